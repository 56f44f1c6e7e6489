// Package sessions keeps the server-side ledger of refresh tokens: at most one
// live token per subject, rotation on refresh, revocation on logout.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
)

// Store is the refresh token ledger. All mutations for one subject are
// serialized; different subjects proceed independently.
type Store interface {
	// StoreOrRotate revokes every live token of subject and records token as
	// its only live one.
	StoreOrRotate(ctx context.Context, subject, token string, expiresAt time.Time) (*models.RefreshToken, error)

	// IsValid reports whether token is recorded, not revoked and unexpired.
	// Unknown tokens are simply not valid.
	IsValid(ctx context.Context, token string) (bool, error)

	// Rotate exchanges oldToken for newToken atomically. It fails with
	// common.ErrTokenNotFound, common.ErrTokenOwnershipMismatch,
	// common.ErrTokenRevoked or common.ErrTokenExpired without changing anything.
	Rotate(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time, subject string) (*models.RefreshToken, error)

	// Revoke flags token revoked and reports whether a live row was flipped.
	// Unknown or already revoked tokens are a no-op.
	Revoke(ctx context.Context, token string) (bool, error)

	// RevokeAllForSubject flags every live token of subject revoked.
	RevokeAllForSubject(ctx context.Context, subject string) error

	// Find returns the ledger row for token or common.ErrTokenNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
}

// CheckUsable decides whether rec may be exchanged by subject at now.
// It performs no writes, so both stores run it before committing a rotation.
func CheckUsable(rec *models.RefreshToken, subject string, now time.Time) error {
	switch {
	case rec == nil:
		return common.ErrTokenNotFound
	case rec.SubjectID != subject:
		return common.ErrTokenOwnershipMismatch
	case rec.Revoked:
		return common.ErrTokenRevoked
	case !rec.ExpiresAt.After(now):
		return common.ErrTokenExpired
	}
	return nil
}
