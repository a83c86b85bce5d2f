package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestCreateInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	invite, err := env.invite.Create(ctx, admin, CreateInviteInput{
		Email: "Bob@Example.com",
		Role:  domain.RoleEmployee,
	})
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", invite.Email, "email is normalized")
	require.Equal(t, domain.InvitationPending, invite.Status)
	require.Equal(t, admin.ID, invite.InvitedBy)
	require.WithinDuration(t, time.Now().Add(domain.InvitationTTL), invite.ExpiresAt, time.Minute)

	require.Len(t, env.mailer.sent, 1)
	sent := env.mailer.sent[0]
	require.Equal(t, "Ada Admin", sent.invitedByName)
	require.NotEmpty(t, sent.token)
	require.NotEqual(t, sent.token, invite.TokenHash, "only the fingerprint is stored")
	require.Equal(t, cryptox.FingerprintToken(sent.token), invite.TokenHash)
}

func TestCreateInvitationRejectsExistingAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	_, err := env.invite.Create(ctx, admin, CreateInviteInput{
		Email: admin.Email,
		Role:  domain.RoleEmployee,
	})
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	require.Empty(t, env.mailer.sent)
}

func TestCreateInvitationRemovedWhenMailFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	env.mailer.failNext = true
	_, err := env.invite.Create(ctx, admin, CreateInviteInput{
		Email: "bob@example.com",
		Role:  domain.RoleEmployee,
	})
	require.ErrorIs(t, err, ErrInviteDeliveryFailed)

	count, err := env.invite.CountPending(ctx)
	require.NoError(t, err)
	require.Zero(t, count, "undelivered invitation must not linger")
}

func TestCreateInvitationRejectsNonAdminInviter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	employee := env.inviteAndSignup(t, admin, "bob@example.com", "hunter22")

	_, err := env.invite.Create(ctx, employee, CreateInviteInput{
		Email: "carol@example.com",
		Role:  domain.RoleEmployee,
	})
	require.ErrorIs(t, err, ErrInviteNotAllowed)

	count, err := env.invite.CountPending(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateInvitationRejectsInvalidRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	_, err := env.invite.Create(ctx, admin, CreateInviteInput{
		Email: "bob@example.com",
		Role:  domain.Role("superuser"),
	})
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestCountPendingSkipsExpired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	_, err := env.invite.Create(ctx, admin, CreateInviteInput{Email: "live@example.com", Role: domain.RoleEmployee})
	require.NoError(t, err)

	// Seed an already-expired invitation directly.
	require.NoError(t, env.store.Invitations().CreateInvitation(ctx, domain.Invitation{
		ID:        idx.New().String(),
		Email:     "stale@example.com",
		Role:      domain.RoleEmployee,
		TokenHash: "stale-hash",
		InvitedBy: admin.ID,
		Status:    domain.InvitationPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	count, err := env.invite.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestVerifyInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	_, err := env.invite.Create(ctx, admin, CreateInviteInput{Email: "bob@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	invite, err := env.invite.Verify(ctx, env.mailer.lastToken)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", invite.Email)
	require.Equal(t, domain.RoleAdmin, invite.Role)

	_, err = env.invite.Verify(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrInviteNotFound)

	_, err = env.invite.Verify(ctx, "")
	require.ErrorIs(t, err, ErrInviteNotFound)
}
