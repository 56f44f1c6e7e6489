package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/dbx"
	"github.com/dmitrijs2005/rentdesk/internal/logging"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
	"github.com/dmitrijs2005/rentdesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/rentdesk/internal/server/repositories/repomanager"
	"github.com/jonboulle/clockwork"
)

// DBStore is the PostgreSQL-backed Store. Every mutating call runs in one
// transaction that first takes a per-subject advisory lock.
type DBStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	clock clockwork.Clock
	log   logging.Logger
}

func NewDBStore(db *sql.DB, repos repomanager.RepositoryManager, clock clockwork.Clock, log logging.Logger) *DBStore {
	return &DBStore{db: db, repos: repos, clock: clock, log: log.With("module", "sessions")}
}

func (s *DBStore) StoreOrRotate(ctx context.Context, subject, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)
		if err := repo.LockSubject(ctx, subject); err != nil {
			return err
		}
		rec, err := s.replaceActive(ctx, repo, subject, token, expiresAt)
		out = rec
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return out, nil
}

// replaceActive revokes whatever is live for subject and inserts the successor.
// Callers must hold the subject lock.
func (s *DBStore) replaceActive(ctx context.Context, repo refreshtokens.Repository, subject, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	n, err := repo.RevokeActiveForSubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	rec := &models.RefreshToken{
		SubjectID: subject,
		Token:     token,
		IssuedAt:  s.clock.Now(),
		ExpiresAt: expiresAt,
	}
	if err := repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "refresh token recorded", "subject", subject, "id", rec.ID, "superseded", n)
	return rec, nil
}

func (s *DBStore) IsValid(ctx context.Context, token string) (bool, error) {
	rec, err := s.Find(ctx, token)
	if errors.Is(err, common.ErrTokenNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.UsableAt(s.clock.Now()), nil
}

func (s *DBStore) Rotate(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time, subject string) (*models.RefreshToken, error) {
	var out *models.RefreshToken
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)
		if err := repo.LockSubject(ctx, subject); err != nil {
			return err
		}

		old, err := repo.FindByTokenForUpdate(ctx, oldToken)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrTokenNotFound
		}
		if err != nil {
			return err
		}
		if err := CheckUsable(old, subject, s.clock.Now()); err != nil {
			return err
		}

		if _, err := repo.RevokeByToken(ctx, oldToken); err != nil {
			return err
		}
		rec, err := s.replaceActive(ctx, repo, subject, newToken, newExpiresAt)
		out = rec
		return err
	})
	if rb := dbx.RollbackFailure(err); rb != nil {
		s.log.Error(ctx, "rotate rollback failed", "subject", subject, "error", err)
		return nil, fmt.Errorf("rotate refresh token: %w", rb)
	}
	if err != nil {
		if common.IsAuthError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return out, nil
}

func (s *DBStore) Revoke(ctx context.Context, token string) (bool, error) {
	n, err := s.repos.RefreshTokens(s.db).RevokeByToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	s.log.Debug(ctx, "refresh token revoke", "affected", n)
	return n > 0, nil
}

func (s *DBStore) RevokeAllForSubject(ctx context.Context, subject string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)
		if err := repo.LockSubject(ctx, subject); err != nil {
			return err
		}
		n, err := repo.RevokeActiveForSubject(ctx, subject)
		if err != nil {
			return err
		}
		s.log.Info(ctx, "revoked all sessions", "subject", subject, "affected", n)
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke subject sessions: %w", err)
	}
	return nil
}

func (s *DBStore) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	rec, err := s.repos.RefreshTokens(s.db).FindByToken(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return rec, nil
}
