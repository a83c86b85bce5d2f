package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

type LoginHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, creds, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", invalidCredentialsDescription)
			return
		}
		log.Error("login failed", "error", err)
		writeServerError(w)
		return
	}

	setRefreshCookie(w, creds.RefreshToken, h.AuthService.Tokens.RefreshTTL, h.CookieSecure)
	httpx.WriteJSON(w, http.StatusOK, newCredentialsResponse(user, creds, service.LandingPath(user.Role)))
}
