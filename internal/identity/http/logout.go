package http

import (
	"net/http"
)

// LogoutHandler ends the session on this device by dropping the refresh
// cookie. Access tokens are short-lived and simply age out; there is no
// server-side session to revoke.
type LogoutHandler struct {
	CookieSecure bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clearRefreshCookie(w, h.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}
