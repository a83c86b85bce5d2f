package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// BootstrapHandler performs one-time initial setup: it creates the first
// admin account so the admin-gated invitation endpoint becomes usable.
// Guarded by a pre-configured token in the X-Bootstrap-Token header and
// refused once any user exists.
type BootstrapHandler struct {
	Bootstrap *service.BootstrapService
}

func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. The endpoint only exists when a bootstrap token is configured.
	if h.Bootstrap == nil || !h.Bootstrap.Enabled() {
		writeError(w, http.StatusNotFound, "not_found", "Bootstrap is not enabled")
		return
	}

	// 2. Require the bootstrap token header.
	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Bootstrap token is required in X-Bootstrap-Token header")
		return
	}

	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.Bootstrap.Bootstrap(ctx, token, service.BootstrapInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case writeValidationError(w, err):
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid bootstrap token")
		case errors.Is(err, service.ErrBootstrapAlready):
			writeError(w, http.StatusConflict, "already_bootstrapped", "System already has users")
		default:
			log.Error("bootstrap failed", "error", err)
			writeServerError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, newUserResponse(user, time.Now()))
}
