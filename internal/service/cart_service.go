package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mavon-shop/internal/event"
	"mavon-shop/internal/model"
	"mavon-shop/pkg/apierror"
)

// cartSaveRetries bounds the reload-and-reapply loop when a concurrent
// session wins the compare-and-swap.
const cartSaveRetries = 3

type cartStore interface {
	Get(ctx context.Context, userID string) (model.Cart, error)
	Save(ctx context.Context, cart model.Cart, expectedVersion int64) error
	Delete(ctx context.Context, userID string) error
}

type productGetter interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
}

// CartService maintains one cart per authenticated user. Every mutation is
// persisted immediately and announced on the bus so other live sessions of
// the same user converge without polling.
type CartService struct {
	store    cartStore
	products productGetter
	bus      event.Bus
}

func NewCartService(store cartStore, products productGetter, bus event.Bus) *CartService {
	return &CartService{store: store, products: products, bus: bus}
}

func (s *CartService) Get(ctx context.Context, userID string) (model.Cart, error) {
	return s.store.Get(ctx, userID)
}

func (s *CartService) AddItem(ctx context.Context, userID string, req model.AddCartItemRequest) (model.Cart, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return model.Cart{}, apierror.BadRequest("product_id is required", "")
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return model.Cart{}, err
	}

	delivery := strings.TrimSpace(req.DeliveryMethod)
	if delivery == "" {
		delivery = model.DefaultDeliveryMethod
	}

	entry := model.CartEntry{
		ProductID:       product.ID,
		ProductName:     product.Name,
		Color:           strings.TrimSpace(req.Color),
		Size:            strings.TrimSpace(req.Size),
		Quantity:        quantity,
		UnitPrice:       product.Price,
		DiscountedPrice: product.DiscountedPrice,
		DeliveryMethod:  delivery,
		Note:            strings.TrimSpace(req.Note),
	}

	return s.mutate(ctx, userID, func(cart *model.Cart) bool {
		if i, ok := cart.Find(entry.Key()); ok {
			// Same product+color+size merges into one line.
			cart.Entries[i].Quantity += entry.Quantity
			return true
		}
		cart.Entries = append(cart.Entries, entry)
		return true
	})
}

// RemoveItem is a no-op when the line does not exist; in particular it never
// materialises a key for a user whose cart is empty.
func (s *CartService) RemoveItem(ctx context.Context, userID string, key model.CartKey) (model.Cart, error) {
	return s.mutate(ctx, userID, func(cart *model.Cart) bool {
		i, ok := cart.Find(key)
		if !ok {
			return false
		}
		cart.Entries = append(cart.Entries[:i], cart.Entries[i+1:]...)
		return true
	})
}

// SetQuantity overwrites the line's quantity; anything below one removes
// the line instead of leaving a zero-quantity entry behind.
func (s *CartService) SetQuantity(ctx context.Context, userID string, key model.CartKey, quantity int) (model.Cart, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, key)
	}

	return s.mutate(ctx, userID, func(cart *model.Cart) bool {
		i, ok := cart.Find(key)
		if !ok {
			return false
		}
		cart.Entries[i].Quantity = quantity
		return true
	})
}

// Clear deletes the persisted blob outright; an empty cart leaves no key.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}

	s.publish(event.TypeCartCleared, userID, model.Cart{UserID: userID, Entries: []model.CartEntry{}})
	return nil
}

// mutate runs load-apply-save with optimistic concurrency: a save rejected
// for a stale version reloads the latest blob and reapplies the change.
// An apply that reports no change skips the save entirely.
func (s *CartService) mutate(ctx context.Context, userID string, apply func(*model.Cart) bool) (model.Cart, error) {
	var lastErr error
	for attempt := 0; attempt < cartSaveRetries; attempt++ {
		cart, err := s.store.Get(ctx, userID)
		if err != nil {
			return model.Cart{}, err
		}

		observed := cart.Version
		if !apply(&cart) {
			return cart, nil
		}

		if err := s.store.Save(ctx, cart, observed); err != nil {
			if errors.Is(err, model.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return model.Cart{}, err
		}

		cart.Version = observed + 1
		s.publish(event.TypeCartUpdated, userID, cart)
		return cart, nil
	}

	return model.Cart{}, lastErr
}

func (s *CartService) publish(t event.Type, userID string, cart model.Cart) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		UserID:    userID,
		Payload:   cart,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
