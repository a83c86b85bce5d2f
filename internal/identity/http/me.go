package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// MeHandler returns the authenticated user's own profile. Serving the
// profile counts as activity, so presence is bumped on the way out.
type MeHandler struct {
	Presence *service.PresenceService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := userFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	// The touch is advisory and must not fail the request, but the
	// response only claims the new timestamp when the write landed;
	// otherwise it keeps the stored value loaded with the user.
	if at, err := h.Presence.Touch(ctx, user.ID); err == nil {
		user.LastActiveAt = &at
	}

	httpx.WriteJSON(w, http.StatusOK, newUserResponse(user, time.Now()))
}

// InactiveHandler lets a user opt out of presence: their activity
// timestamp is cleared and they read as inactive until they act again.
type InactiveHandler struct {
	Presence *service.PresenceService
}

func (h *InactiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := userFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	if err := h.Presence.MarkInactive(ctx, user.ID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		slogx.FromContext(ctx).Error("failed to mark inactive", "error", err)
		writeServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
