package httpx

import "context"

type ctxKey string

// CtxKeyUserID carries the authenticated subject's ID. Authentication
// middleware sets it; rate limiting and handlers read it.
const CtxKeyUserID ctxKey = "user_id"

// UserIDFromContext returns the authenticated user ID, or "" when the
// request is unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID attaches the authenticated subject's ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}
