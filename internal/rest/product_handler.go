package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) explore(c echo.Context) error {
	products, err := h.products.Explore(c.Request().Context(), callerID(c))
	if err != nil {
		return respondError(c, "failed to load explore feed", err)
	}
	return c.JSON(http.StatusOK, envelope{
		"message":  "explore feed fetched successfully",
		"products": products,
	})
}
