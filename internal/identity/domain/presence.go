package domain

import "time"

// PresenceWindow is the trailing window within which an account counts as
// active. The derivation is a pure function owned by whatever view consumes
// it; the store only holds the timestamp.
const PresenceWindow = 24 * time.Hour

// ActiveAt reports whether a last-active timestamp counts as active at now.
// A nil timestamp means never active or explicitly marked inactive.
func ActiveAt(lastActive *time.Time, now time.Time) bool {
	if lastActive == nil {
		return false
	}
	return now.Sub(*lastActive) <= PresenceWindow
}
