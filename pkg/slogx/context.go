package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext attaches a logger to the context for downstream use.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the contextual logger, or the default logger if none
// was attached.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}
