package service

import (
	"context"
	"testing"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesFirstAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bootstrap := &BootstrapService{Store: env.store, Token: "setup-secret"}

	user, err := bootstrap.Bootstrap(ctx, "setup-secret", BootstrapInput{
		Name:     "Ada Admin",
		Email:    "Ada@Example.com",
		Password: "admin-password",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, user.Role)
	require.Equal(t, "ada@example.com", user.Email)

	// The admin can immediately log in and provision others.
	admin, _, err := env.auth.Login(ctx, "ada@example.com", "admin-password")
	require.NoError(t, err)

	_, err = env.invite.Create(ctx, admin, CreateInviteInput{
		Email: "bob@example.com",
		Role:  domain.RoleEmployee,
	})
	require.NoError(t, err)
}

func TestBootstrapRefusedOnceUsersExist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedAdmin(t)
	bootstrap := &BootstrapService{Store: env.store, Token: "setup-secret"}

	_, err := bootstrap.Bootstrap(ctx, "setup-secret", BootstrapInput{
		Name:     "Second Admin",
		Email:    "second@example.com",
		Password: "admin-password",
	})
	require.ErrorIs(t, err, ErrBootstrapAlready)
}

func TestBootstrapRejectsBadToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bootstrap := &BootstrapService{Store: env.store, Token: "setup-secret"}

	_, err := bootstrap.Bootstrap(ctx, "wrong", BootstrapInput{
		Name:     "Ada Admin",
		Email:    "ada@example.com",
		Password: "admin-password",
	})
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)

	empty, err := env.store.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty, "no user may be created on a rejected attempt")
}

func TestBootstrapDisabledWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	bootstrap := &BootstrapService{Store: env.store}

	require.False(t, bootstrap.Enabled())

	// Even an empty provided token never matches a disabled service.
	_, err := bootstrap.Bootstrap(context.Background(), "", BootstrapInput{
		Name:     "Ada Admin",
		Email:    "ada@example.com",
		Password: "admin-password",
	})
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)
}
