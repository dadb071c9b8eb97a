package model

import "time"

const DefaultDeliveryMethod = "standard"

// CartEntry is one line in a user's cart. Two entries with the same product
// but a different color or size are distinct lines.
type CartEntry struct {
	ProductID       string   `json:"product_id"`
	ProductName     string   `json:"product_name"`
	Color           string   `json:"color"`
	Size            string   `json:"size"`
	Quantity        int      `json:"quantity"`
	UnitPrice       float64  `json:"unit_price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
	DeliveryMethod  string   `json:"delivery_method"`
	Note            string   `json:"note,omitempty"`
}

// Key identifies the line within a cart.
func (e CartEntry) Key() CartKey {
	return CartKey{ProductID: e.ProductID, Color: e.Color, Size: e.Size}
}

func (e CartEntry) LineTotal() float64 {
	price := e.UnitPrice
	if e.DiscountedPrice != nil && *e.DiscountedPrice > 0 && *e.DiscountedPrice < e.UnitPrice {
		price = *e.DiscountedPrice
	}
	return price * float64(e.Quantity)
}

type CartKey struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// Cart is the persisted per-user blob. Version backs the compare-and-swap
// on writes; a stale writer is rejected instead of silently winning.
type Cart struct {
	UserID    string      `json:"user_id"`
	Entries   []CartEntry `json:"entries"`
	Version   int64       `json:"version"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (c Cart) Subtotal() float64 {
	var total float64
	for _, e := range c.Entries {
		total += e.LineTotal()
	}
	return total
}

func (c Cart) Find(key CartKey) (int, bool) {
	for i, e := range c.Entries {
		if e.Key() == key {
			return i, true
		}
	}
	return -1, false
}
