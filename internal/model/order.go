package model

import "time"

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// orderTransitions lists the allowed next statuses for each status.
// Delivered and cancelled are terminal.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func CanTransitionOrder(from string, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Status          string      `json:"status"`
	Items           []OrderItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	ShippingName    string      `json:"shipping_name"`
	ShippingAddress string      `json:"shipping_address"`
	ShippingPhone   string      `json:"shipping_phone"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem snapshots a cart line at checkout time so later product edits
// do not rewrite order history.
type OrderItem struct {
	ID          string   `json:"id"`
	OrderID     string   `json:"-"`
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	Color       string   `json:"color"`
	Size        string   `json:"size"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	LineTotal   float64  `json:"line_total"`
}
