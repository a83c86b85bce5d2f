package http

import (
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// InviteCountHandler reports how many invitations are still outstanding,
// for the admin dashboard badge.
type InviteCountHandler struct {
	InviteService *service.InviteService
}

func (h *InviteCountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.InviteService.CountPending(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to count pending invitations", "error", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, PendingCountResponse{Pending: count})
}
