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

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create writes the order and its item snapshot in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, subtotal, shipping_name, shipping_address, shipping_phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.UserID, o.Status, o.Subtotal, o.ShippingName, o.ShippingAddress, o.ShippingPhone, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, color, size, quantity, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, o.ID, item.ProductID, item.ProductName, item.Color, item.Size, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, subtotal, shipping_name, shipping_address, shipping_phone, created_at, updated_at
		 FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.ShippingName, &o.ShippingAddress, &o.ShippingPhone, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return model.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) itemsFor(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, product_name, color, size, quantity, unit_price, line_total
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Color, &it.Size, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return r.list(ctx,
		`SELECT id, user_id, status, subtotal, shipping_name, shipping_address, shipping_phone, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *OrderRepository) ListAll(ctx context.Context, status string) ([]model.Order, error) {
	if status == "" {
		return r.list(ctx,
			`SELECT id, user_id, status, subtotal, shipping_name, shipping_address, shipping_phone, created_at, updated_at
			 FROM orders ORDER BY created_at DESC`)
	}
	return r.list(ctx,
		`SELECT id, user_id, status, subtotal, shipping_name, shipping_address, shipping_phone, created_at, updated_at
		 FROM orders WHERE status = $1 ORDER BY created_at DESC`, status)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.ShippingName, &o.ShippingAddress, &o.ShippingPhone, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// UpdateStatus performs the transition only when the stored status still
// equals expectedFrom, so two concurrent admins cannot both advance it.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expectedFrom string, to string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, expectedFrom, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidTransition
	}
	return nil
}
