package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Invitations() Invitations

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to do multi-step atomic operations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalized email. Used during password
	// login and duplicate checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns all users ordered by creation date (newest first).
	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdateAvatarURL backfills the profile picture and bumps updated_at.
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error

	// UpdateAccountKind flips the account kind (e.g. federated -> both).
	UpdateAccountKind(ctx context.Context, userID string, kind domain.AccountKind) error

	// SetLastActive stamps the presence timestamp.
	SetLastActive(ctx context.Context, userID string, at time.Time) error

	// ClearLastActive nulls the presence timestamp (explicit inactivation).
	ClearLastActive(ctx context.Context, userID string) error
}

type Invitations interface {
	// CreateInvitation writes a new invitation (token_hash is the SHA-256
	// fingerprint of the opaque token, never the token itself).
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetPendingByTokenHash returns a pending, unexpired invitation by hash.
	GetPendingByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// ConsumeInvitation atomically flips a pending, unexpired invitation to
	// consumed and records who redeemed it. Returns ErrNotFound when the
	// invitation is absent, expired, or already consumed — under concurrent
	// redemption exactly one caller wins.
	ConsumeInvitation(ctx context.Context, hash, usedByUserID string) (domain.Invitation, error)

	// CountPending counts pending invitations whose expiry is still ahead.
	CountPending(ctx context.Context) (int, error)

	// DeleteInvitation removes an invitation outright. Used as the
	// compensating action when the notification email fails to send.
	DeleteInvitation(ctx context.Context, id string) error

	// DeleteExpiredInvitations is housekeeping.
	DeleteExpiredInvitations(ctx context.Context) error
}
