package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookstore-api/pkg/apperror"
)

// Conf is the postgres-backed TokenStore.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) ReplaceActive(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		queryRevoke := `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > NOW()
		`
		if _, err := tx.ExecContext(ctx, queryRevoke, userID); err != nil {
			return fmt.Errorf("failed to revoke active refresh tokens: %w", err)
		}

		queryInsert := `
			INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`
		if _, err := tx.ExecContext(ctx, queryInsert, uuid.NewString(), userID, tokenHash, expiresAt); err != nil {
			return fmt.Errorf("failed to insert refresh token: %w", err)
		}
		return nil
	})
}

func (c *Conf) FindActive(ctx context.Context, userID, tokenHash string) (RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND token_hash = $2 AND revoked_at IS NULL AND expires_at > NOW()
	`
	var rt RefreshToken
	err := c.db.QueryRowContext(ctx, query, userID, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.RevokedAt, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RefreshToken{}, apperror.NotFound("refresh token not found")
		}
		return RefreshToken{}, fmt.Errorf("failed to query refresh token: %w", err)
	}
	return rt, nil
}

func (c *Conf) RevokeAllActive(ctx context.Context, userID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	if _, err := c.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
