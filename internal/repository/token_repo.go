package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mavon-shop/internal/model"
)

// TokenRepository stores at most one refresh-token hash per user. Issuing a
// new pair overwrites the previous row, which is what invalidates other
// sessions' refresh capability.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Replace(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET token_hash = EXCLUDED.token_hash,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at`,
		userID, tokenHash, time.Now().UTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("replace refresh token: %w", err)
	}
	return nil
}

// Match reports whether the stored hash for the user equals tokenHash and has
// not expired. A replayed hash that was rotated out no longer matches.
func (r *TokenRepository) Match(ctx context.Context, userID string, tokenHash string) error {
	var stored string
	err := r.pool.QueryRow(ctx,
		`SELECT token_hash FROM refresh_tokens
		 WHERE user_id = $1 AND expires_at > now()`, userID).Scan(&stored)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("match refresh token: %w", err)
	}
	if stored != tokenHash {
		return model.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) Revoke(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
