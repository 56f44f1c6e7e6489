package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/dmitrijs2005/rentdesk/internal/dbx"
	"github.com/dmitrijs2005/rentdesk/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, subject_id, token, issued_at, expires_at, revoked`

func (r *PostgresRepository) LockSubject(ctx context.Context, subjectID string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := r.db.ExecContext(ctx, query, subjectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (subject_id, token, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		token.SubjectID, token.Token, token.IssuedAt, token.ExpiresAt).Scan(&token.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
		}
		return fmt.Errorf("db error: %w", err)
	}
	token.Revoked = false
	return nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return r.find(ctx, `SELECT `+selectColumns+` FROM refresh_tokens WHERE token = $1`, token)
}

func (r *PostgresRepository) FindByTokenForUpdate(ctx context.Context, token string) (*models.RefreshToken, error) {
	return r.find(ctx, `SELECT `+selectColumns+` FROM refresh_tokens WHERE token = $1 FOR UPDATE`, token)
}

func (r *PostgresRepository) find(ctx context.Context, query, token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.ID, &rt.SubjectID, &rt.Token, &rt.IssuedAt, &rt.ExpiresAt, &rt.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) RevokeByToken(ctx context.Context, token string) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE token = $1 AND NOT revoked
	`
	return r.exec(ctx, query, token)
}

func (r *PostgresRepository) RevokeActiveForSubject(ctx context.Context, subjectID string) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE subject_id = $1 AND NOT revoked
	`
	return r.exec(ctx, query, subjectID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
