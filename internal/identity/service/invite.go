package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/mail"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/idx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	ErrInvalidRole          = errors.New("invalid_role")
	ErrInviteNotAllowed     = errors.New("admin role required to invite")
	ErrInviteDeliveryFailed = errors.New("invitation email could not be delivered")
)

type InviteService struct {
	Store  store.Store
	Mailer mail.Mailer
}

// CreateInviteInput carries the admin's invitation request.
type CreateInviteInput struct {
	Email string
	Role  domain.Role
}

func (in CreateInviteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
	)
}

// Create mints an invitation for an email address and emails the one-time
// redemption link. The raw token exists only in that email; the store
// keeps a fingerprint.
func (s *InviteService) Create(ctx context.Context, invitedBy domain.User, in CreateInviteInput) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	// 1. Only admins provision accounts. The HTTP route is gated too, but
	// the rule belongs to the service, not to one particular caller.
	if invitedBy.Role != domain.RoleAdmin {
		log.Warn("invitation attempted by non-admin", slog.String("invited_by", invitedBy.ID))
		return domain.Invitation{}, ErrInviteNotAllowed
	}

	// 2. Validate input.
	if err := in.Validate(); err != nil {
		return domain.Invitation{}, err
	}
	if !in.Role.Valid() {
		return domain.Invitation{}, ErrInvalidRole
	}
	email := NormalizeEmail(in.Email)

	// 3. An existing account cannot be invited again.
	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err == nil {
		log.Warn("invitation attempted for existing account",
			slog.String("invited_by", invitedBy.ID),
		)
		return domain.Invitation{}, ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check for existing account", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	// 4. Generate the token and store its fingerprint.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	now := time.Now().UTC()
	invite := domain.Invitation{
		ID:        idx.New().String(),
		Email:     email,
		Role:      in.Role,
		TokenHash: cryptox.FingerprintToken(token),
		InvitedBy: invitedBy.ID,
		Status:    domain.InvitationPending,
		ExpiresAt: now.Add(domain.InvitationTTL),
	}

	if err := s.Store.Invitations().CreateInvitation(ctx, invite); err != nil {
		log.Error("failed to create invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	// 5. Deliver the email. If delivery fails the invitation is removed
	// again: a row whose token nobody ever received would only block a
	// retry behind the existing-invite noise.
	if err := s.Mailer.SendInvitation(ctx, invite, token, invitedBy.Name); err != nil {
		log.Error("failed to send invitation email",
			slog.String("invitation_id", invite.ID),
			slog.Any("error", err),
		)
		if delErr := s.Store.Invitations().DeleteInvitation(ctx, invite.ID); delErr != nil {
			log.Error("failed to remove undelivered invitation",
				slog.String("invitation_id", invite.ID),
				slog.Any("error", delErr),
			)
		}
		return domain.Invitation{}, ErrInviteDeliveryFailed
	}

	log.Info("invitation created",
		slog.String("invitation_id", invite.ID),
		slog.String("role", string(invite.Role)),
		slog.String("invited_by", invitedBy.ID),
		slog.Time("expires_at", invite.ExpiresAt),
	)
	return invite, nil
}

// CountPending returns how many invitations are still redeemable.
func (s *InviteService) CountPending(ctx context.Context) (int, error) {
	return s.Store.Invitations().CountPending(ctx)
}

// Verify resolves a raw invitation token to its invitation so the signup
// form can be prefilled. It does not consume the token.
func (s *InviteService) Verify(ctx context.Context, token string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	if token == "" {
		return domain.Invitation{}, ErrInviteNotFound
	}

	invite, err := s.Store.Invitations().GetPendingByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInviteNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	return invite, nil
}
