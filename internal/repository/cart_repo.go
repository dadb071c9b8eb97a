package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mavon-shop/internal/model"
)

const cartKeyPrefix = "cart:"

// CartRepository persists one serialized cart blob per user id in Redis.
// Writes are optimistic: WATCH the key, verify the version observed by the
// caller is still current, then swap the whole blob inside MULTI/EXEC. A
// writer holding a stale version gets ErrVersionConflict instead of
// silently overwriting a concurrent update.
type CartRepository struct {
	rdb *redis.Client
}

func NewCartRepository(rdb *redis.Client) *CartRepository {
	return &CartRepository{rdb: rdb}
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}

// Get returns the user's cart. A missing key or a corrupt blob both yield
// an empty cart; corruption is logged but never surfaced to the caller.
func (r *CartRepository) Get(ctx context.Context, userID string) (model.Cart, error) {
	raw, err := r.rdb.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Cart{UserID: userID, Entries: []model.CartEntry{}}, nil
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("get cart: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		slog.Warn("discarding corrupt cart blob", "user_id", userID, "error", err)
		return model.Cart{UserID: userID, Entries: []model.CartEntry{}}, nil
	}

	cart.UserID = userID
	if cart.Entries == nil {
		cart.Entries = []model.CartEntry{}
	}
	return cart, nil
}

// Save writes the cart if its stored version still equals expectedVersion
// (0 means the caller saw no cart). The written blob carries
// expectedVersion+1.
func (r *CartRepository) Save(ctx context.Context, cart model.Cart, expectedVersion int64) error {
	key := cartKey(cart.UserID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if expectedVersion != 0 {
				return model.ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("read cart for save: %w", err)
		default:
			var stored model.Cart
			if jsonErr := json.Unmarshal(current, &stored); jsonErr == nil && stored.Version != expectedVersion {
				return model.ErrVersionConflict
			}
		}

		cart.Version = expectedVersion + 1
		cart.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	err := r.rdb.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The key changed between WATCH and EXEC.
		return model.ErrVersionConflict
	}
	return err
}

// Delete removes the blob entirely; an emptied cart leaves no key behind.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
