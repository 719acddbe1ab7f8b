package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one buyer/product row of the shopping cart.
type CartItem struct {
	ID          int64           `json:"cart_id"`
	BuyerID     int64           `json:"buyer_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"product_name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CheckoutRow is a cart row priced with the product's live price.
// ProductFound is false when the product no longer exists.
type CheckoutRow struct {
	ProductID    int64
	Quantity     int
	Price        decimal.Decimal
	CategoryID   *int64
	ProductFound bool
}

type AddToCartParams struct {
	BuyerID   int64
	ProductID int64
	Quantity  int
}

type UpdateCartParams struct {
	BuyerID   int64
	ProductID int64
	Quantity  int
}
