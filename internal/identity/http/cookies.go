package http

import (
	"net/http"
	"time"
)

const (
	refreshCookieName = "identity_refresh"

	// refreshCookiePath scopes the cookie to the one endpoint that reads
	// it, so the refresh token is not attached to every request.
	refreshCookiePath = "/v1/auth/refresh"
)

// setRefreshCookie writes the refresh token as an http-only cookie. In
// production the frontend lives on another origin, so the cookie must be
// Secure + SameSite=None; in development Lax works over plain http.
func setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}

func clearRefreshCookie(w http.ResponseWriter, secure bool) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}
