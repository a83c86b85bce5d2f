package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// InviteCreateHandler mints an invitation and emails the redemption link.
// Admin-only; the route is gated by RequireRole.
type InviteCreateHandler struct {
	InviteService *service.InviteService
}

func (h *InviteCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	invitedBy, ok := userFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.DefaultRole
	}

	invite, err := h.InviteService.Create(ctx, invitedBy, service.CreateInviteInput{
		Email: req.Email,
		Role:  role,
	})
	if err != nil {
		switch {
		case writeValidationError(w, err):
		case errors.Is(err, service.ErrInviteNotAllowed):
			writeError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
		case errors.Is(err, service.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid_request", "Unknown role")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			writeError(w, http.StatusConflict, "email_taken", "An account with this email already exists")
		case errors.Is(err, service.ErrInviteDeliveryFailed):
			writeError(w, http.StatusBadGateway, "delivery_failed", "Invitation email could not be delivered")
		default:
			log.Error("failed to create invitation", "error", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newInvitationResponse(invite))
}
