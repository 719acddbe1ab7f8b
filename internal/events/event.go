package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderRemoved       Type = "order.removed"
)

// OrderEvent is the message body published for order lifecycle changes.
type OrderEvent struct {
	ID         string           `json:"id"`
	Type       Type             `json:"type"`
	OrderID    int64            `json:"order_id"`
	BuyerID    int64            `json:"buyer_id,omitempty"`
	Status     string           `json:"status,omitempty"`
	PrevStatus string           `json:"prev_status,omitempty"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
	Categories []int64          `json:"categories,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
