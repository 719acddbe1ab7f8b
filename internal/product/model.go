package product

import "github.com/shopspring/decimal"

type Product struct {
	ID         int64           `json:"id"`
	SellerID   int64           `json:"seller_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID *int64          `json:"category_id,omitempty"`
	ImageURL   *string         `json:"image_url,omitempty"`
}
