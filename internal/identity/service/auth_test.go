package service

import (
	"context"
	"testing"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/require"
)

func TestSignupRedeemsInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	user := env.inviteAndSignup(t, admin, "bob@example.com", "hunter22")
	require.Equal(t, "bob@example.com", user.Email)
	require.Equal(t, domain.RoleEmployee, user.Role)
	require.Equal(t, domain.AccountLocal, user.AccountKind)
	require.NotNil(t, user.LastActiveAt)

	// The token is single-use: a second signup with it must fail.
	_, _, err := env.auth.Signup(ctx, SignupInput{
		Name:        "Mallory",
		Email:       "bob@example.com",
		Password:    "hunter23",
		InviteToken: env.mailer.lastToken,
	})
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestSignupWithoutInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, creds, err := env.auth.Signup(ctx, SignupInput{
		Name:     "Carol",
		Email:    "Carol@Example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.Equal(t, "carol@example.com", user.Email)
	require.Equal(t, domain.DefaultRole, user.Role)
	require.NotEmpty(t, creds.AccessToken)

	// A second signup with the same address conflicts.
	_, _, err = env.auth.Signup(ctx, SignupInput{
		Name:     "Mallory",
		Email:    "carol@example.com",
		Password: "hunter23",
	})
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestSignupEnforcesInvitationEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	_, err := env.invite.Create(ctx, admin, CreateInviteInput{Email: "bob@example.com", Role: domain.RoleEmployee})
	require.NoError(t, err)

	_, _, err = env.auth.Signup(ctx, SignupInput{
		Name:        "Mallory",
		Email:       "mallory@example.com",
		Password:    "hunter22",
		InviteToken: env.mailer.lastToken,
	})
	require.ErrorIs(t, err, ErrInviteEmailMismatch)

	// The invitation survives the failed attempt.
	_, err = env.invite.Verify(ctx, env.mailer.lastToken)
	require.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, _, err := env.auth.Signup(ctx, SignupInput{
		Name:        "Bob",
		Email:       "bob@example.com",
		Password:    "short",
		InviteToken: "whatever",
	})
	require.Error(t, err)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs, "Password")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.inviteAndSignup(t, admin, "bob@example.com", "hunter22")

	user, creds, err := env.auth.Login(ctx, "Bob@Example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", user.Email)
	require.NotEmpty(t, creds.AccessToken)
	require.NotNil(t, user.LastActiveAt)

	subject, err := env.tokens.VerifyAccess(creds.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.inviteAndSignup(t, admin, "bob@example.com", "hunter22")

	// A federated-only account has no password to try.
	require.NoError(t, env.store.Users().CreateUser(ctx, domain.User{
		ID:          "usr-federated",
		Name:        "Fed Only",
		Email:       "fed@example.com",
		AccountKind: domain.AccountFederated,
		Role:        domain.RoleEmployee,
	}))

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "hunter22"},
		{"wrong password", "bob@example.com", "wrong"},
		{"federated-only account", "fed@example.com", "hunter22"},
		{"empty password", "bob@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.auth.Login(ctx, tc.email, tc.password)
			require.ErrorIs(t, err, ErrInvalidCredentials,
				"every failure mode must be indistinguishable")
		})
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	_, creds, err := env.auth.Login(ctx, admin.Email, "admin-password")
	require.NoError(t, err)

	user, next, err := env.auth.Refresh(ctx, creds.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, admin.ID, user.ID)
	require.NotEmpty(t, next.AccessToken)
	require.NotEmpty(t, next.RefreshToken)

	// An access token is not accepted where a refresh token belongs.
	_, _, err = env.auth.Refresh(ctx, creds.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}
