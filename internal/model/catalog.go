package model

import "time"

type Brand struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

type Size struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BrandID         string    `json:"brand_id"`
	BrandName       string    `json:"brand_name,omitempty"`
	Price           float64   `json:"price"`
	DiscountedPrice *float64  `json:"discounted_price,omitempty"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"image_url,omitempty"`
	Stock           int       `json:"stock"`
	Colors          []Color   `json:"colors"`
	Sizes           []Size    `json:"sizes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EffectivePrice is the price a buyer actually pays for one unit.
func (p Product) EffectivePrice() float64 {
	if p.DiscountedPrice != nil && *p.DiscountedPrice > 0 && *p.DiscountedPrice < p.Price {
		return *p.DiscountedPrice
	}
	return p.Price
}

type ProductFilter struct {
	BrandID  string
	ColorID  string
	SizeID   string
	MinPrice float64
	MaxPrice float64
	Search   string
	Page     int
	Limit    int
}
