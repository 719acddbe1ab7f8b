package rest

import (
	"errors"
	"net/http"

	"cartify/internal/cart"
	"cartify/internal/logger"
	"cartify/internal/order"
	"cartify/internal/product"
	"cartify/internal/user"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("invalid request body")

const internalErrorText = "internal server error"

// envelope is the body of every non-list response.
type envelope map[string]any

func fail(c echo.Context, status int, message, errText string) error {
	return c.JSON(status, envelope{"message": message, "error": errText})
}

// respondError maps domain errors onto HTTP statuses. Unrecognised errors
// are logged and reported as a generic 500.
func respondError(c echo.Context, message string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request().Context()).Error(message,
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return fail(c, status, message, internalErrorText)
	}
	return fail(c, status, message, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, user.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, cart.ErrUserNotAuthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, cart.ErrCartItemNotFound):
		return http.StatusNotFound

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
