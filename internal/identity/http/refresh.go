package http

import (
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// RefreshHandler rotates the credential pair using the refresh cookie.
// On any token problem the cookie is cleared so a broken client stops
// retrying a dead token.
type RefreshHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Missing refresh token")
		return
	}

	user, creds, err := h.AuthService.Refresh(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			clearRefreshCookie(w, h.CookieSecure)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Refresh token is invalid or expired")
			return
		}
		log.Error("refresh failed", "error", err)
		writeServerError(w)
		return
	}

	setRefreshCookie(w, creds.RefreshToken, h.AuthService.Tokens.RefreshTTL, h.CookieSecure)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newCredentialsResponse(user, creds, service.LandingPath(user.Role)))
}
