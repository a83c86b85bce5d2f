package http

import (
	"net/http"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// UsersHandler lists every account for the admin directory, newest first,
// with presence evaluated against one shared clock reading.
type UsersHandler struct {
	UserService *service.UserService
}

func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.UserService.ListUsers(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list users", "error", err)
		writeServerError(w)
		return
	}

	now := time.Now()
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u, now))
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
