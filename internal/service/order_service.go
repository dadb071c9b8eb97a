package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mavon-shop/internal/event"
	"mavon-shop/internal/model"
	"mavon-shop/pkg/apierror"
)

type orderStore interface {
	Create(ctx context.Context, o model.Order) error
	FindByID(ctx context.Context, id string) (model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListAll(ctx context.Context, status string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, expectedFrom string, to string) error
}

type OrderService struct {
	orders orderStore
	cart   *CartService
	bus    event.Bus
}

func NewOrderService(orders orderStore, cart *CartService, bus event.Bus) *OrderService {
	return &OrderService{orders: orders, cart: cart, bus: bus}
}

// Place snapshots the caller's cart into an order and then clears the cart.
// The order and its items land in one transaction; the cart is only cleared
// after the order is durably written.
func (s *OrderService) Place(ctx context.Context, userID string, req model.PlaceOrderRequest) (model.Order, error) {
	if strings.TrimSpace(req.ShippingName) == "" || strings.TrimSpace(req.ShippingAddress) == "" {
		return model.Order{}, apierror.BadRequest("shipping name and address are required", "")
	}

	cart, err := s.cart.Get(ctx, userID)
	if err != nil {
		return model.Order{}, err
	}
	if len(cart.Entries) == 0 {
		return model.Order{}, model.ErrCartEmpty
	}

	now := time.Now().UTC()
	order := model.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          model.OrderStatusPending,
		Subtotal:        cart.Subtotal(),
		ShippingName:    strings.TrimSpace(req.ShippingName),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ShippingPhone:   strings.TrimSpace(req.ShippingPhone),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, entry := range cart.Entries {
		price := entry.UnitPrice
		if entry.DiscountedPrice != nil && *entry.DiscountedPrice > 0 && *entry.DiscountedPrice < entry.UnitPrice {
			price = *entry.DiscountedPrice
		}
		order.Items = append(order.Items, model.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   entry.ProductID,
			ProductName: entry.ProductName,
			Color:       entry.Color,
			Size:        entry.Size,
			Quantity:    entry.Quantity,
			UnitPrice:   price,
			LineTotal:   entry.LineTotal(),
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return model.Order{}, err
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		// The order exists; a stale cart is an inconvenience, not a failure.
		slog.Warn("failed to clear cart after placing order",
			"user_id", userID, "order_id", order.ID, "error", err)
	}

	s.publish(event.TypeOrderPlaced, userID, order)
	return order, nil
}

func (s *OrderService) GetForUser(ctx context.Context, userID string, orderID string) (model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if order.UserID != userID {
		// Do not leak existence of other users' orders.
		return model.Order{}, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context, status string) ([]model.Order, error) {
	if status != "" && !validOrderStatus(status) {
		return nil, apierror.BadRequest("unknown order status", status)
	}
	return s.orders.ListAll(ctx, status)
}

// Advance moves an order along the status machine. The repository's
// conditional update keeps two concurrent transitions from both applying.
func (s *OrderService) Advance(ctx context.Context, orderID string, to string) (model.Order, error) {
	if !validOrderStatus(to) {
		return model.Order{}, apierror.BadRequest("unknown order status", to)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}

	if !model.CanTransitionOrder(order.Status, to) {
		return model.Order{}, model.ErrInvalidTransition
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, to); err != nil {
		return model.Order{}, err
	}

	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	s.publish(event.TypeOrderUpdated, order.UserID, order)
	return order, nil
}

func (s *OrderService) publish(t event.Type, userID string, order model.Order) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		UserID:    userID,
		Payload:   order,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func validOrderStatus(status string) bool {
	switch status {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
		return true
	}
	return false
}
