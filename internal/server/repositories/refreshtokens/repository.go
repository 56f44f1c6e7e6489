// Package refreshtokens declares the server-side repository contract for the
// refresh token ledger and its PostgreSQL implementation.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/rentdesk/internal/server/models"
)

// Repository is the storage contract for the refresh_tokens ledger.
// Rows are only ever inserted or flagged revoked; there is no delete.
type Repository interface {
	// LockSubject serializes mutating work for subjectID until the surrounding
	// transaction ends. It is a no-op outside a transaction.
	LockSubject(ctx context.Context, subjectID string) error

	// Create inserts a new, non-revoked row and fills in its ID. A token that
	// is already recorded, or a second live row for the subject, yields
	// common.ErrorConflict.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByToken returns the row for token, or common.ErrorNotFound.
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// FindByTokenForUpdate is FindByToken with a row lock held until commit.
	FindByTokenForUpdate(ctx context.Context, token string) (*models.RefreshToken, error)

	// RevokeByToken flags the row revoked. Unknown tokens are not an error.
	RevokeByToken(ctx context.Context, token string) (int64, error)

	// RevokeActiveForSubject flags every non-revoked row of subjectID revoked
	// and returns how many rows changed.
	RevokeActiveForSubject(ctx context.Context, subjectID string) (int64, error)
}
