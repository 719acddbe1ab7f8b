package payment

import "errors"

var (
	ErrInvalidMethod   = errors.New("unsupported payment method")
	ErrInvalidAmount   = errors.New("payment amount must be positive")
	ErrPaymentNotFound = errors.New("payment not found")
)
