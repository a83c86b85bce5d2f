package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// SignupHandler creates a local account and signs the user straight in.
// When the request carries an invitation token the account takes the
// invited role; otherwise it gets the default one.
type SignupHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, creds, err := h.AuthService.Signup(ctx, service.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		InviteToken: req.InviteToken,
	})
	if err != nil {
		switch {
		case writeValidationError(w, err):
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "invite_not_found", "Invitation is invalid, used, or expired")
		case errors.Is(err, service.ErrInviteEmailMismatch):
			writeError(w, http.StatusBadRequest, "invite_email_mismatch", "Invitation was issued for a different email")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			writeError(w, http.StatusConflict, "email_taken", "An account with this email already exists")
		default:
			log.Error("signup failed", "error", err)
			writeServerError(w)
		}
		return
	}

	setRefreshCookie(w, creds.RefreshToken, h.AuthService.Tokens.RefreshTTL, h.CookieSecure)
	httpx.WriteJSON(w, http.StatusCreated, newCredentialsResponse(user, creds, service.LandingPath(user.Role)))
}
