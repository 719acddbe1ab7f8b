package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCOD    Method = "cod"
	MethodOnline Method = "online"
)

// methodAliases maps the spellings clients send onto the stored methods.
var methodAliases = map[string]Method{
	"cod":              MethodCOD,
	"cash":             MethodCOD,
	"cash on delivery": MethodCOD,
	"cash_on_delivery": MethodCOD,
	"online":           MethodOnline,
	"card":             MethodOnline,
	"credit card":      MethodOnline,
	"credit_card":      MethodOnline,
	"bank transfer":    MethodOnline,
	"bank_transfer":    MethodOnline,
	"e-wallet":         MethodOnline,
}

// ParseMethod normalizes a client supplied payment method.
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", ErrInvalidMethod
}

type Payment struct {
	ID        int64           `json:"payment_id"`
	OrderID   int64           `json:"order_id"`
	BuyerID   int64           `json:"buyer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    Method          `json:"payment_method"`
	CreatedAt time.Time       `json:"created_at"`
}
