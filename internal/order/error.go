package order

import (
	"errors"
	"fmt"

	"cartify/internal/cart"
	"cartify/internal/product"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")

	ErrCartEmpty       = cart.ErrCartEmpty
	ErrProductNotFound = product.ErrProductNotFound
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
