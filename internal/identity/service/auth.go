package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MinPasswordLength is the floor for local account passwords.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// password login against a federated-only account. One sentinel, one
	// message: callers must not be able to probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrEmailAlreadyRegistered = errors.New("email_already_registered")
	ErrInviteNotFound         = errors.New("invite not found, used, or expired")
	ErrInviteEmailMismatch    = errors.New("invite was issued for a different email")
	ErrUserNotFound           = errors.New("user not found")
)

type AuthService struct {
	Store  store.Store
	Tokens *TokenService
}

// SignupInput carries the signup form. InviteToken is optional: with a
// token the account takes the invitation's email and role, without one the
// account is created with the default role.
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	InviteToken string
}

func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

// Signup creates a local account, redeeming an invitation when a token is
// supplied, and returns the new user already signed in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.User, domain.Credentials, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	if err := in.Validate(); err != nil {
		return domain.User{}, domain.Credentials{}, err
	}
	email := NormalizeEmail(in.Email)

	// 2. Resolve the invitation, if one was supplied, by token fingerprint.
	role := domain.DefaultRole
	var invite domain.Invitation
	var fingerprint string
	if in.InviteToken != "" {
		fingerprint = cryptox.FingerprintToken(in.InviteToken)
		found, err := s.Store.Invitations().GetPendingByTokenHash(ctx, fingerprint)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("signup attempted with invalid or expired invite")
				return domain.User{}, domain.Credentials{}, ErrInviteNotFound
			}
			log.Error("failed to fetch invitation", slog.Any("error", err))
			return domain.User{}, domain.Credentials{}, err
		}
		invite = found

		// The invitation binds the email: the account must be created
		// for the address the admin invited.
		if invite.Email != email {
			log.Warn("signup email does not match invitation",
				slog.String("invitation_id", invite.ID),
			)
			return domain.User{}, domain.Credentials{}, ErrInviteEmailMismatch
		}
		role = invite.Role
	}

	// 3. Hash the password.
	passwordHash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}

	// 4. Create the user and consume the invitation atomically. The
	// conditional UPDATE inside ConsumeInvitation guarantees a token is
	// redeemed at most once even under concurrent attempts.
	user := domain.User{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: passwordHash,
		AccountKind:  domain.AccountLocal,
		Role:         role,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailAlreadyRegistered
			}
			return err
		}
		if fingerprint == "" {
			return nil
		}
		if _, err := tx.Invitations().ConsumeInvitation(ctx, fingerprint, user.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEmailAlreadyRegistered) && !errors.Is(err, ErrInviteNotFound) {
			log.Error("failed to create user", slog.Any("error", err))
		}
		return domain.User{}, domain.Credentials{}, err
	}

	attrs := []any{
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	}
	if invite.ID != "" {
		attrs = append(attrs, slog.String("invitation_id", invite.ID))
	}
	log.Info("user signed up", attrs...)

	// 5. Record activity, then sign the new user in.
	return s.finishLogin(ctx, user)
}

// Login authenticates a local account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, domain.Credentials, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate shape only. Anything malformed fails the same way a
	// wrong password does.
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, domain.Credentials{}, ErrInvalidCredentials
	}

	// 2. Look up the account.
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("login attempt for unknown email")
			return domain.User{}, domain.Credentials{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}

	// 3. Federated-only accounts have no password to check; fail exactly
	// like a bad password would.
	if !user.HasLocalPassword() {
		log.Info("password login attempted against federated-only account",
			slog.String("user_id", user.ID),
		)
		return domain.User{}, domain.Credentials{}, ErrInvalidCredentials
	}

	// 4. Verify the password.
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Info("login attempt with wrong password", slog.String("user_id", user.ID))
		return domain.User{}, domain.Credentials{}, ErrInvalidCredentials
	}

	return s.finishLogin(ctx, user)
}

// Refresh exchanges a valid refresh token for a fresh credential pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.User, domain.Credentials, error) {
	log := slogx.FromContext(ctx)

	// 1. Verify the token carries the refresh use claim.
	userID, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.User{}, domain.Credentials{}, err
	}

	// 2. The subject must still exist.
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("refresh for deleted user", slog.String("user_id", userID))
			return domain.User{}, domain.Credentials{}, ErrInvalidRefreshToken
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, domain.Credentials{}, err
	}

	return s.finishLogin(ctx, user)
}

// finishLogin records activity and mints credentials. The activity write
// happens first so a token is never issued for a session the presence
// data does not know about.
func (s *AuthService) finishLogin(ctx context.Context, user domain.User) (domain.User, domain.Credentials, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

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

	log.Debug("credentials issued", slog.String("user_id", user.ID))
	return user, creds, nil
}

// NormalizeEmail lowercases and trims an address so lookups and the
// unique index agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
