package http

import (
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// InviteVerifyHandler resolves a raw invitation token so the signup form
// can prefill the invited email and show the granted role. Unauthenticated
// by design: the invitee has no account yet.
type InviteVerifyHandler struct {
	InviteService *service.InviteService
}

func (h *InviteVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invite, err := h.InviteService.Verify(ctx, r.PathValue("token"))
	if err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			writeError(w, http.StatusNotFound, "invite_not_found", "Invitation is invalid, used, or expired")
			return
		}
		slogx.FromContext(ctx).Error("failed to verify invitation", "error", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newInvitationResponse(invite))
}
