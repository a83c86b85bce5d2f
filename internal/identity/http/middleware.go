package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// AuthnMiddleware verifies the bearer access token and loads the account
// it names. Expired tokens get a distinct description so clients know to
// refresh rather than re-login. Store failures are 500s: an outage must
// never masquerade as a revoked session.
func AuthnMiddleware(tokens *service.TokenService, users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			userID, err := tokens.VerifyAccess(token)
			if err != nil {
				if errors.Is(err, service.ErrExpiredAccessToken) {
					writeError(w, http.StatusUnauthorized, "token_expired", "Access token has expired")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid access token")
				return
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, service.ErrUserNotFound) {
					// Valid signature but the account is gone.
					writeError(w, http.StatusUnauthorized, "unauthorized", "Account no longer exists")
					return
				}
				slogx.FromContext(ctx).Error("failed to load authenticated user", "error", err)
				writeServerError(w)
				return
			}

			ctx = contextWithUser(ctx, user)
			ctx = httpx.ContextWithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to one role. Runs inside AuthnMiddleware so
// the user is already on the context; a missing user here is a wiring
// bug, reported as 500 rather than a misleading 401.
func RequireRole(role domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				slogx.FromContext(r.Context()).Error("RequireRole used without AuthnMiddleware")
				writeServerError(w)
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
