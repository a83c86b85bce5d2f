package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	ErrBootstrapAlready      = errors.New("system already has users")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the first admin account on a fresh deployment.
// Every later account flows through signup or an invitation, but the
// invitation endpoint is admin-gated, so something has to mint admin zero.
// The operation is guarded by a pre-configured token and refuses to run
// once any user exists.
type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token
}

// Enabled reports whether a bootstrap token was configured at all.
func (s *BootstrapService) Enabled() bool {
	return s.Token != ""
}

// BootstrapInput carries the first admin's account details.
type BootstrapInput struct {
	Name     string
	Email    string
	Password string
}

func (in BootstrapInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

// Bootstrap creates the first admin. It fails once any user row exists;
// the emptiness check and the insert share a transaction so two racing
// calls cannot both seed an admin.
func (s *BootstrapService) Bootstrap(ctx context.Context, token string, in BootstrapInput) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate the provided token.
	if !s.Enabled() || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		log.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	// 2. Validate input.
	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}

	// 3. Hash the password.
	passwordHash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash admin password", slog.Any("error", err))
		return domain.User{}, err
	}

	// 4. Create the admin, but only into an empty users table.
	user := domain.User{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: passwordHash,
		AccountKind:  domain.AccountLocal,
		Role:         domain.RoleAdmin,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			log.Warn("attempted bootstrap on a system that already has users")
		} else {
			log.Error("failed to create admin user", slog.Any("error", err))
		}
		return domain.User{}, err
	}

	log.Info("bootstrapped first admin", slog.String("user_id", user.ID))
	return user, nil
}
