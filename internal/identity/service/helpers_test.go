package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/federation"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/internal/identity/store/drivers/sqlite"
	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/agentdeskhq/agentdesk/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://identity.test"

type testEnv struct {
	store  store.Store
	tokens *TokenService
	mailer *recordingMailer
	auth   *AuthService
	invite *InviteService
	users  *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens := newTestTokenService(t)
	mailer := &recordingMailer{}

	return &testEnv{
		store:  st,
		tokens: tokens,
		mailer: mailer,
		auth:   &AuthService{Store: st, Tokens: tokens},
		invite: &InviteService{Store: st, Mailer: mailer},
		users:  &UserService{Store: st},
	}
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer.(*jwtx.EdDSASigner))

	return &TokenService{
		Signer:          signer,
		AccessVerifier:  jwtx.NewVerifierEdDSA(keys, testIssuer, jwtx.TokenUseAccess),
		RefreshVerifier: jwtx.NewVerifierEdDSA(keys, testIssuer, jwtx.TokenUseRefresh),
		Issuer:          testIssuer,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
	}
}

// seedAdmin creates an admin account directly in the store.
func (e *testEnv) seedAdmin(t *testing.T) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("admin-password")
	require.NoError(t, err)

	admin := domain.User{
		ID:           idx.New().String(),
		Name:         "Ada Admin",
		Email:        "ada@example.com",
		PasswordHash: hash,
		AccountKind:  domain.AccountLocal,
		Role:         domain.RoleAdmin,
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), admin))
	return admin
}

// inviteAndSignup runs the full invite-then-signup flow and returns the
// new employee account.
func (e *testEnv) inviteAndSignup(t *testing.T, admin domain.User, email, password string) domain.User {
	t.Helper()
	ctx := context.Background()

	_, err := e.invite.Create(ctx, admin, CreateInviteInput{Email: email, Role: domain.RoleEmployee})
	require.NoError(t, err)

	user, _, err := e.auth.Signup(ctx, SignupInput{
		Name:        "New Hire",
		Email:       email,
		Password:    password,
		InviteToken: e.mailer.lastToken,
	})
	require.NoError(t, err)
	return user
}

type sentInvitation struct {
	invitation    domain.Invitation
	token         string
	invitedByName string
}

// recordingMailer captures invitation emails instead of sending them.
type recordingMailer struct {
	sent      []sentInvitation
	lastToken string
	failNext  bool
}

func (m *recordingMailer) SendInvitation(_ context.Context, inv domain.Invitation, token, invitedByName string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("relay unreachable")
	}
	m.sent = append(m.sent, sentInvitation{invitation: inv, token: token, invitedByName: invitedByName})
	m.lastToken = token
	return nil
}

// fakeProvider is a canned federation.Provider for exercising the
// federated flow without HTTP.
type fakeProvider struct {
	name    string
	profile federation.Profile

	exchangeErr error
	profileErr  error

	exchanged []string
}

func (p *fakeProvider) Name() string {
	if p.name == "" {
		return "google"
	}
	return p.name
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.test/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*federation.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	p.exchanged = append(p.exchanged, code)
	return &federation.Token{
		AccessToken: "provider-token",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, _ *federation.Token) (*federation.Profile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	profile := p.profile
	return &profile, nil
}
