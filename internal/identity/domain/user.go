package domain

import "time"

// Role is the coarse authorization level of a user. There are exactly two.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// DefaultRole is assigned when no role is specified at provisioning time.
const DefaultRole = RoleEmployee

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// AccountKind records how an account can authenticate. It replaces the usual
// placeholder-password trick for federated-only accounts with an explicit tag.
type AccountKind string

const (
	// AccountLocal authenticates with a password only.
	AccountLocal AccountKind = "local"
	// AccountFederated authenticates through the external identity provider
	// only; its password hash is empty and must never match anything.
	AccountFederated AccountKind = "federated"
	// AccountBoth has a usable password and a linked federated identity.
	AccountBoth AccountKind = "both"
)

type User struct {
	ID           string
	Name         string
	Email        string // normalized lower-case, unique at the store level
	PasswordHash string // argon2 encoded; empty for federated-only accounts
	AccountKind  AccountKind
	Role         Role
	AvatarURL    *string    // nullable
	LastActiveAt *time.Time // nil means never active or explicitly inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasLocalPassword reports whether password login is possible for this
// account.
func (u User) HasLocalPassword() bool {
	return u.AccountKind != AccountFederated && u.PasswordHash != ""
}

// WithoutHash returns a copy safe to hand to transport layers.
func (u User) WithoutHash() User {
	u.PasswordHash = ""
	return u
}
