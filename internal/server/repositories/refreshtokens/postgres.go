// Package refreshtokens provides the PostgreSQL-backed refresh-token store.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskman/internal/common"
	"taskman/internal/dbx"
	"taskman/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by both
// *sql.DB and *sql.Tx, so rotation can run inside a transaction).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save inserts a new refresh-token record and fills in ID and CreatedAt.
func (r *PostgresRepository) Save(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, token.UserID, token.Token, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByToken returns the record for the given token string.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at, invalidated, revoked_at, replaced_by_token_id
		FROM refresh_tokens
		WHERE token = $1
	`
	rec := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rec.ID, &rec.UserID, &rec.Token, &rec.ExpiresAt, &rec.CreatedAt,
		&rec.Invalidated, &rec.RevokedAt, &rec.ReplacedByTokenID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// IsValid checks existence, the invalidated flag, and expiry in one query.
func (r *PostgresRepository) IsValid(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM refresh_tokens
			WHERE token = $1 AND NOT invalidated AND expires_at > now()
		)
	`
	var valid bool
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&valid); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return valid, nil
}

// AtomicInvalidate consumes the token in a single conditional UPDATE.
// The `NOT invalidated` predicate makes the row the arbiter: under
// concurrent rotation the row lock serializes callers and only the first
// one matches, so the rows-affected count tells the winner from the losers.
func (r *PostgresRepository) AtomicInvalidate(ctx context.Context, token string, replacedByTokenID int64) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET invalidated = TRUE, revoked_at = now(), replaced_by_token_id = $2
		WHERE token = $1 AND NOT invalidated
	`
	res, err := r.db.ExecContext(ctx, query, token, replacedByTokenID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected == 1, nil
}

// RevokeAllForUser invalidates every live token belonging to the user.
// No successor is recorded: these records become terminal "revoked", not
// "rotated".
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET invalidated = TRUE, revoked_at = now()
		WHERE user_id = $1 AND NOT invalidated
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
