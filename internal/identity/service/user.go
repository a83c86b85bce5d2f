package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

type UserService struct {
	Store store.Store
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch user",
			slog.String("user_id", id),
			slog.Any("error", err),
		)
		return domain.User{}, err
	}
	return user, nil
}

// ListUsers returns every account, newest first. The admin directory view
// uses this together with the presence window to show who is active.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list users", slog.Any("error", err))
		return nil, err
	}
	return users, nil
}
