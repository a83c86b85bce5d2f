package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// PresenceService tracks coarse activity: a timestamp bumped on
// authenticated traffic and cleared when a user opts out.
type PresenceService struct {
	Store store.Store
}

// Touch records activity for a user and returns the stamped time.
// Presence is advisory, so callers may treat the error as non-fatal, but
// they must not report the new timestamp unless the write landed.
func (s *PresenceService) Touch(ctx context.Context, userID string) (time.Time, error) {
	now := time.Now().UTC()
	if err := s.Store.Users().SetLastActive(ctx, userID, now); err != nil {
		slogx.FromContext(ctx).Error("failed to record activity",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return time.Time{}, err
	}
	return now, nil
}

// MarkInactive clears a user's activity timestamp so they immediately
// read as inactive.
func (s *PresenceService) MarkInactive(ctx context.Context, userID string) error {
	if err := s.Store.Users().ClearLastActive(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		slogx.FromContext(ctx).Error("failed to clear activity",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
