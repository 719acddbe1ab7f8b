package order

import (
	"strings"
	"time"

	"cartify/internal/payment"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the statuses each status may move to. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

type Order struct {
	ID         int64            `json:"order_id"`
	BuyerID    int64            `json:"buyer_id"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"order_date"`
	Items      []OrderItem      `json:"items,omitempty"`
	Address    *Address         `json:"address,omitempty"`
	Payment    *payment.Payment `json:"payment,omitempty"`
}

type OrderItem struct {
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ProductName string          `json:"product_name,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

type Address struct {
	OrderID    int64  `json:"order_id,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a Address) fields() []string {
	return []string{a.Address, a.City, a.PostalCode, a.Country}
}

// Complete reports whether every address field is non-blank.
func (a Address) Complete() bool {
	for _, f := range a.fields() {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Empty reports whether every address field is blank.
func (a Address) Empty() bool {
	for _, f := range a.fields() {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// LineItem is a client supplied purchase line. Its price is checked for
// sanity but never stored; the live product price is.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Summary struct {
	OrderID    int64           `json:"order_id"`
	OrderDate  time.Time       `json:"order_date"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     Status          `json:"status"`
}

type CreateOrderParams struct {
	BuyerID       int64
	Items         []LineItem
	TotalPrice    decimal.Decimal
	PaymentMethod string
	Address       Address
}

type CreateFromCartParams struct {
	BuyerID       int64
	PaymentMethod string
	// Address may be nil; a non-nil address must be complete.
	Address *Address
}

// pricedLine is a purchase line priced from the products table.
type pricedLine struct {
	ProductID  int64
	Quantity   int
	Price      decimal.Decimal
	CategoryID *int64
}
