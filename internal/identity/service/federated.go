package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/federation"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// FederatedService drives sign-in through an external identity provider.
// Provider accounts are keyed by email: a federated login for an address
// that already has a local account signs into that account rather than
// creating a duplicate.
type FederatedService struct {
	Provider federation.Provider
	States   *federation.StateCodec
	Store    store.Store
	Tokens   *TokenService
}

// Begin returns the provider consent URL with a signed state value.
func (s *FederatedService) Begin(ctx context.Context) (string, error) {
	state, err := s.States.Encode(s.Provider.Name(), time.Now())
	if err != nil {
		return "", err
	}
	return s.Provider.AuthCodeURL(state), nil
}

// Complete handles the provider callback: verify state, trade the code
// for a profile, then find or create the matching account and sign it in.
func (s *FederatedService) Complete(ctx context.Context, code, state string) (domain.User, domain.Credentials, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	// 1. Verify the state round-tripped intact and belongs to this provider.
	decoded, err := s.States.Decode(state, now)
	if err != nil {
		log.Warn("federated callback with bad state", slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}
	if decoded.Provider != s.Provider.Name() {
		log.Warn("federated callback state for wrong provider",
			slog.String("state_provider", decoded.Provider),
		)
		return domain.User{}, domain.Credentials{}, federation.ErrInvalidState
	}

	// 2. Exchange the authorization code.
	token, err := s.Provider.Exchange(ctx, code)
	if err != nil {
		log.Warn("federated code exchange failed", slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}

	// 3. Fetch the profile. A verified email is the identity key here;
	// without one there is nothing to attach the account to.
	profile, err := s.Provider.UserInfo(ctx, token)
	if err != nil {
		log.Error("federated profile fetch failed", slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}
	if profile.Email == "" || !profile.EmailVerified {
		log.Warn("federated profile without verified email",
			slog.String("provider", s.Provider.Name()),
		)
		return domain.User{}, domain.Credentials{}, federation.ErrEmailMissing
	}

	// 4. Find or create the account.
	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return domain.User{}, domain.Credentials{}, err
	}

	// 5. Record activity and issue credentials.
	if err := s.Store.Users().SetLastActive(ctx, user.ID, now); err != nil {
		log.Error("failed to record activity", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}
	user.LastActiveAt = &now

	creds, err := s.Tokens.IssueCredentials(user.ID, now)
	if err != nil {
		log.Error("failed to issue credentials", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}

	log.Info("federated login",
		slog.String("user_id", user.ID),
		slog.String("provider", s.Provider.Name()),
	)
	return user, creds, nil
}

// resolveUser returns the account for a federated profile, creating it on
// first login. Existing accounts are enriched, never replaced: only a
// missing avatar is filled in, and a local account is upgraded to "both"
// so the provider link is remembered.
func (s *FederatedService) resolveUser(ctx context.Context, profile *federation.Profile) (domain.User, error) {
	log := slogx.FromContext(ctx)
	email := NormalizeEmail(profile.Email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err == nil {
		return s.mergeProfile(ctx, user, profile)
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, err
	}

	// First login through the provider: provision a federated account
	// with the default role.
	user = domain.User{
		ID:          idx.New().String(),
		Name:        profile.Name,
		Email:       email,
		AccountKind: domain.AccountFederated,
		Role:        domain.DefaultRole,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}
	if user.Name == "" {
		user.Name = email
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		// A concurrent first login can win the race; fall back to the
		// row it created.
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.Store.Users().GetUserByEmail(ctx, email)
		}
		log.Error("failed to create federated user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("federated account provisioned",
		slog.String("user_id", user.ID),
		slog.String("provider", profile.Subject),
	)
	return user, nil
}

func (s *FederatedService) mergeProfile(ctx context.Context, user domain.User, profile *federation.Profile) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if user.AvatarURL == nil && profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		if err := s.Store.Users().UpdateAvatarURL(ctx, user.ID, avatar); err != nil {
			log.Error("failed to update avatar", slog.String("user_id", user.ID), slog.Any("error", err))
			return domain.User{}, err
		}
		user.AvatarURL = &avatar
	}

	if user.AccountKind == domain.AccountLocal {
		if err := s.Store.Users().UpdateAccountKind(ctx, user.ID, domain.AccountBoth); err != nil {
			log.Error("failed to update account kind", slog.String("user_id", user.ID), slog.Any("error", err))
			return domain.User{}, err
		}
		user.AccountKind = domain.AccountBoth
	}

	return user, nil
}

// LandingPath maps a role to the frontend route a fresh login lands on.
func LandingPath(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}
