package domain

import "time"

// InvitationTTL is how long an invitation stays redeemable after creation.
const InvitationTTL = 7 * 24 * time.Hour

// InvitationStatus tracks whether an invitation has been redeemed. Expiry is
// derived from ExpiresAt rather than stored as a status of its own.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationConsumed InvitationStatus = "consumed"
)

// Invitation binds an email address to a pre-assigned role via a single-use,
// time-limited opaque token. Only the token's SHA-256 fingerprint is stored.
type Invitation struct {
	ID        string
	Email     string // normalized lower-case
	Role      Role
	TokenHash string
	InvitedBy string // user ID of the admin who created it
	Status    InvitationStatus
	UsedBy    string // user ID that redeemed it; empty while pending
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Redeemable reports whether the invitation can still be consumed at t.
func (i Invitation) Redeemable(t time.Time) bool {
	return i.Status == InvitationPending && t.Before(i.ExpiresAt)
}
