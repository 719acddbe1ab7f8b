package rest

import (
	"net/http"

	"cartify/internal/cart"

	"github.com/labstack/echo/v4"
)

type addCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) addToCart(c echo.Context) error {
	req := new(addCartRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "failed to add to cart", errBadRequest.Error())
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.carts.AddToCart(c.Request().Context(), cart.AddToCartParams{
		BuyerID:   callerID(c),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return respondError(c, "failed to add to cart", err)
	}

	return c.JSON(http.StatusCreated, envelope{
		"message": "product added to cart",
		"item":    item,
	})
}

func (h *Handler) getCart(c echo.Context) error {
	items, err := h.carts.GetCart(c.Request().Context(), callerID(c))
	if err != nil {
		return respondError(c, "failed to fetch cart", err)
	}
	return c.JSON(http.StatusOK, envelope{
		"message": "cart fetched successfully",
		"items":   items,
	})
}

func (h *Handler) updateCart(c echo.Context) error {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return fail(c, http.StatusBadRequest, "failed to update cart", "invalid product_id")
	}

	req := new(updateCartRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "failed to update cart", errBadRequest.Error())
	}

	err := h.carts.UpdateQuantity(c.Request().Context(), cart.UpdateCartParams{
		BuyerID:   callerID(c),
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return respondError(c, "failed to update cart", err)
	}
	return c.JSON(http.StatusOK, envelope{"message": "cart updated"})
}

func (h *Handler) removeFromCart(c echo.Context) error {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return fail(c, http.StatusBadRequest, "failed to remove from cart", "invalid product_id")
	}

	if err := h.carts.RemoveFromCart(c.Request().Context(), callerID(c), productID); err != nil {
		return respondError(c, "failed to remove from cart", err)
	}
	return c.JSON(http.StatusOK, envelope{"message": "product removed from cart"})
}

func (h *Handler) clearCart(c echo.Context) error {
	if err := h.carts.ClearCart(c.Request().Context(), callerID(c)); err != nil {
		return respondError(c, "failed to clear cart", err)
	}
	return c.JSON(http.StatusOK, envelope{"message": "cart cleared"})
}
