package http

import (
	"context"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

type ctxKey string

// ctxKeyUser carries the authenticated domain.User loaded by
// AuthnMiddleware, saving handlers a second store round trip.
const ctxKeyUser ctxKey = "user"

func contextWithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(domain.User)
	return user, ok
}
