package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mavon-shop/internal/model"
)

const (
	oauthStatePrefix   = "oauth:state:"
	exchangeCodePrefix = "oauth:exchange:"
	oauthStateSentinel = "1"
)

// OAuthRepository keeps the short-lived OAuth bookkeeping in Redis: the
// CSRF state nonce and the one-time exchange code that replaces token
// transport through the redirect URL.
type OAuthRepository struct {
	rdb *redis.Client
}

func NewOAuthRepository(rdb *redis.Client) *OAuthRepository {
	return &OAuthRepository{rdb: rdb}
}

func (r *OAuthRepository) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, oauthStatePrefix+state, oauthStateSentinel, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (r *OAuthRepository) ConsumeState(ctx context.Context, state string) error {
	err := r.rdb.GetDel(ctx, oauthStatePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return model.ErrInvalidOAuthState
	}
	if err != nil {
		return fmt.Errorf("consume oauth state: %w", err)
	}
	return nil
}

func (r *OAuthRepository) SaveExchange(ctx context.Context, code string, pair model.TokenPair, ttl time.Duration) error {
	payload, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal exchange payload: %w", err)
	}
	if err := r.rdb.Set(ctx, exchangeCodePrefix+code, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save exchange code: %w", err)
	}
	return nil
}

// ConsumeExchange returns the stored pair exactly once; GETDEL makes a
// second attempt with the same code fail.
func (r *OAuthRepository) ConsumeExchange(ctx context.Context, code string) (model.TokenPair, error) {
	raw, err := r.rdb.GetDel(ctx, exchangeCodePrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.TokenPair{}, model.ErrExchangeCodeNotFound
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("consume exchange code: %w", err)
	}

	var pair model.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return model.TokenPair{}, fmt.Errorf("unmarshal exchange payload: %w", err)
	}
	return pair, nil
}
