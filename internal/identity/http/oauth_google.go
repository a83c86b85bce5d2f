package http

import (
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/federation"
	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// GoogleBeginHandler starts the Google sign-in by redirecting the browser
// to the consent screen with a signed state value.
type GoogleBeginHandler struct {
	Federated *service.FederatedService
}

func (h *GoogleBeginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.Federated.Begin(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to begin federated login", "error", err)
		writeServerError(w)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleCallbackHandler finishes the Google sign-in. On success the
// browser is redirected to the frontend with the refresh cookie set; the
// frontend then calls the refresh endpoint to obtain an access token.
type GoogleCallbackHandler struct {
	Federated    *service.FederatedService
	FrontendURL  string
	CookieSecure bool
}

func (h *GoogleCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		// The user cancelled on the consent screen.
		log.Info("federated login declined", "error", errParam)
		http.Redirect(w, r, h.FrontendURL+"/login?error=declined", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Missing code or state")
		return
	}

	user, creds, err := h.Federated.Complete(ctx, code, state)
	if err != nil {
		switch {
		case errors.Is(err, federation.ErrInvalidState), errors.Is(err, federation.ErrStateExpired):
			writeError(w, http.StatusBadRequest, "invalid_state", "Login attempt is invalid or took too long, try again")
		case errors.Is(err, federation.ErrExchangeFailed):
			writeError(w, http.StatusUnauthorized, "unauthorized", "Google rejected the login")
		case errors.Is(err, federation.ErrEmailMissing):
			writeError(w, http.StatusUnauthorized, "unauthorized", "Google account has no verified email")
		default:
			log.Error("federated login failed", "error", err)
			writeServerError(w)
		}
		return
	}

	setRefreshCookie(w, creds.RefreshToken, h.Federated.Tokens.RefreshTTL, h.CookieSecure)
	http.Redirect(w, r, h.FrontendURL+service.LandingPath(user.Role), http.StatusFound)
}
