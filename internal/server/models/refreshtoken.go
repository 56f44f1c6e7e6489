package models

import "time"

// RefreshToken is one row of the refresh_tokens ledger. Rows are never
// deleted; Revoked only ever goes from false to true.
type RefreshToken struct {
	ID        string
	SubjectID string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// UsableAt reports whether the token may still be exchanged at now:
// not revoked and expiring strictly after now.
func (t *RefreshToken) UsableAt(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
