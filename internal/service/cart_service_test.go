package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavon-shop/internal/event"
	"mavon-shop/internal/model"
)

// fakeCartStore mirrors the redis blob store: one versioned cart per user,
// saves rejected when the expected version is stale.
type fakeCartStore struct {
	mu    sync.Mutex
	carts map[string]model.Cart

	// failSaves makes the next N saves fail with a version conflict.
	failSaves int
	saves     int

	// failDelete makes every delete fail with this error.
	failDelete error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]model.Cart{}}
}

func (f *fakeCartStore) Get(_ context.Context, userID string) (model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cart, ok := f.carts[userID]
	if !ok {
		return model.Cart{UserID: userID, Entries: []model.CartEntry{}}, nil
	}
	return cart, nil
}

func (f *fakeCartStore) Save(_ context.Context, cart model.Cart, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saves++
	if f.failSaves > 0 {
		f.failSaves--
		return model.ErrVersionConflict
	}

	if stored, ok := f.carts[cart.UserID]; ok && stored.Version != expectedVersion {
		return model.ErrVersionConflict
	}

	cart.Version = expectedVersion + 1
	f.carts[cart.UserID] = cart
	return nil
}

func (f *fakeCartStore) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.carts, userID)
	return nil
}

func (f *fakeCartStore) has(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.carts[userID]
	return ok
}

type fakeProductGetter struct {
	products map[string]model.Product
}

func (f *fakeProductGetter) FindByID(_ context.Context, id string) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return p, nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe() (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	return ch, func() {}
}

func floatPtr(v float64) *float64 { return &v }

func newTestCartService(store *fakeCartStore, bus event.Bus) *CartService {
	products := &fakeProductGetter{products: map[string]model.Product{
		"lipstick": {ID: "lipstick", Name: "Velvet Lipstick", Price: 25},
		"serum":    {ID: "serum", Name: "Night Serum", Price: 60, DiscountedPrice: floatPtr(45)},
	}}
	return NewCartService(store, products, bus)
}

func TestCartService_AddItem(t *testing.T) {
	t.Parallel()

	t.Run("same variant merges into one line", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Color: "red", Size: "std", Quantity: 2})
		require.NoError(t, err)

		cart, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Color: "red", Size: "std", Quantity: 3})
		require.NoError(t, err)

		require.Len(t, cart.Entries, 1)
		assert.Equal(t, 5, cart.Entries[0].Quantity)
	})

	t.Run("different color or size stays separate", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Color: "red", Size: "std"})
		require.NoError(t, err)

		cart, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Color: "nude", Size: "std"})
		require.NoError(t, err)

		assert.Len(t, cart.Entries, 2)
	})

	t.Run("price is snapshotted from the product", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		cart, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "serum"})
		require.NoError(t, err)

		require.Len(t, cart.Entries, 1)
		assert.Equal(t, 1, cart.Entries[0].Quantity)
		assert.Equal(t, 60.0, cart.Entries[0].UnitPrice)
		require.NotNil(t, cart.Entries[0].DiscountedPrice)
		assert.Equal(t, 45.0, *cart.Entries[0].DiscountedPrice)
		assert.Equal(t, model.DefaultDeliveryMethod, cart.Entries[0].DeliveryMethod)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc := newTestCartService(newFakeCartStore(), nil)

		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "nope"})
		require.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestCartService_SetQuantity(t *testing.T) {
	t.Parallel()

	t.Run("overwrites the quantity", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Quantity: 2})
		require.NoError(t, err)

		key := model.CartKey{ProductID: "lipstick"}
		cart, err := svc.SetQuantity(context.Background(), "u1", key, 7)
		require.NoError(t, err)

		require.Len(t, cart.Entries, 1)
		assert.Equal(t, 7, cart.Entries[0].Quantity)
	})

	t.Run("quantity below one removes the line", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Quantity: 2})
		require.NoError(t, err)

		cart, err := svc.SetQuantity(context.Background(), "u1", model.CartKey{ProductID: "lipstick"}, 0)
		require.NoError(t, err)
		assert.Empty(t, cart.Entries)
	})
}

func TestCartService_AbsentLineIsNoOp(t *testing.T) {
	t.Parallel()

	t.Run("remove from an empty cart leaves no key behind", func(t *testing.T) {
		store := newFakeCartStore()
		bus := &recordingBus{}
		svc := newTestCartService(store, bus)

		cart, err := svc.RemoveItem(context.Background(), "u1", model.CartKey{ProductID: "lipstick"})
		require.NoError(t, err)
		assert.Empty(t, cart.Entries)

		// Nothing was written, so no key and no announcement.
		assert.False(t, store.has("u1"))
		assert.Zero(t, store.saves)
		assert.Empty(t, bus.events)
	})

	t.Run("set quantity on a missing line does not bump the version", func(t *testing.T) {
		store := newFakeCartStore()
		bus := &recordingBus{}
		svc := newTestCartService(store, bus)

		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick"})
		require.NoError(t, err)
		before, err := svc.Get(context.Background(), "u1")
		require.NoError(t, err)

		cart, err := svc.SetQuantity(context.Background(), "u1", model.CartKey{ProductID: "serum"}, 4)
		require.NoError(t, err)
		assert.Equal(t, before.Version, cart.Version)
		require.Len(t, cart.Entries, 1)

		// Only the add reached the store and the bus.
		assert.Equal(t, 1, store.saves)
		assert.Len(t, bus.events, 1)
	})
}

func TestCartService_Clear(t *testing.T) {
	t.Parallel()

	store := newFakeCartStore()
	bus := &recordingBus{}
	svc := newTestCartService(store, bus)

	_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick"})
	require.NoError(t, err)
	require.True(t, store.has("u1"))

	require.NoError(t, svc.Clear(context.Background(), "u1"))

	// The blob is gone, not stored as an empty cart.
	assert.False(t, store.has("u1"))

	cart, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Entries)

	last := bus.events[len(bus.events)-1]
	assert.Equal(t, event.TypeCartCleared, last.Type)
	assert.Equal(t, "u1", last.UserID)
}

func TestCartService_UserIsolation(t *testing.T) {
	t.Parallel()

	store := newFakeCartStore()
	svc := newTestCartService(store, nil)

	_, err := svc.AddItem(context.Background(), "alice", model.AddCartItemRequest{ProductID: "lipstick", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "bob", model.AddCartItemRequest{ProductID: "serum"})
	require.NoError(t, err)

	alice, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	bob, err := svc.Get(context.Background(), "bob")
	require.NoError(t, err)

	require.Len(t, alice.Entries, 1)
	require.Len(t, bob.Entries, 1)
	assert.Equal(t, "lipstick", alice.Entries[0].ProductID)
	assert.Equal(t, "serum", bob.Entries[0].ProductID)

	// Clearing one user leaves the other untouched.
	require.NoError(t, svc.Clear(context.Background(), "alice"))
	bob, err = svc.Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, bob.Entries, 1)
}

func TestCartService_Subtotal(t *testing.T) {
	t.Parallel()

	store := newFakeCartStore()
	svc := newTestCartService(store, nil)

	// 2 x 25 full price + 1 x 45 discounted (from 60).
	_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick", Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "serum"})
	require.NoError(t, err)

	assert.InDelta(t, 95.0, cart.Subtotal(), 0.0001)
}

func TestCartService_VersionConflictRetry(t *testing.T) {
	t.Parallel()

	t.Run("retries a lost race and succeeds", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		store.failSaves = 1
		cart, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick"})
		require.NoError(t, err)
		require.Len(t, cart.Entries, 1)
		assert.Equal(t, 2, store.saves)
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		store := newFakeCartStore()
		svc := newTestCartService(store, nil)

		store.failSaves = cartSaveRetries
		_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick"})
		require.ErrorIs(t, err, model.ErrVersionConflict)
	})
}

func TestCartService_PublishesPerUserEvents(t *testing.T) {
	t.Parallel()

	store := newFakeCartStore()
	bus := &recordingBus{}
	svc := newTestCartService(store, bus)

	_, err := svc.AddItem(context.Background(), "u1", model.AddCartItemRequest{ProductID: "lipstick"})
	require.NoError(t, err)

	require.Len(t, bus.events, 1)
	assert.Equal(t, event.TypeCartUpdated, bus.events[0].Type)
	assert.Equal(t, "u1", bus.events[0].UserID)

	payload, ok := bus.events[0].Payload.(model.Cart)
	require.True(t, ok)
	assert.Len(t, payload.Entries, 1)
}
