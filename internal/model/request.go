package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ExchangeRequest struct {
	Code string `json:"code"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type BrandRequest struct {
	Name string `json:"name"`
}

type ColorRequest struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type SizeRequest struct {
	Name string `json:"name"`
}

type ProductRequest struct {
	Name            string   `json:"name"`
	BrandID         string   `json:"brand_id"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"image_url"`
	Stock           int      `json:"stock"`
	ColorIDs        []string `json:"color_ids"`
	SizeIDs         []string `json:"size_ids"`
}

type AddCartItemRequest struct {
	ProductID      string `json:"product_id"`
	Color          string `json:"color"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	DeliveryMethod string `json:"delivery_method"`
	Note           string `json:"note"`
}

type SetCartQuantityRequest struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	ShippingName    string `json:"shipping_name"`
	ShippingAddress string `json:"shipping_address"`
	ShippingPhone   string `json:"shipping_phone"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

type CommentRequest struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}
