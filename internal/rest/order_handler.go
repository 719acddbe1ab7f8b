package rest

import (
	"net/http"

	"cartify/internal/order"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Products      []order.LineItem `json:"products"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	PaymentMethod string           `json:"payment_method"`
	Address       string           `json:"address"`
	City          string           `json:"city"`
	PostalCode    string           `json:"postal_code"`
	Country       string           `json:"country"`
}

type createFromCartRequest struct {
	BuyerID       *int64 `json:"buyer_id"`
	PaymentMethod string `json:"payment_method"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createOrder(c echo.Context) error {
	req := new(createOrderRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "failed to create order", errBadRequest.Error())
	}

	o, err := h.orders.CreateOrder(c.Request().Context(), order.CreateOrderParams{
		BuyerID:       callerID(c),
		Items:         req.Products,
		TotalPrice:    req.TotalPrice,
		PaymentMethod: req.PaymentMethod,
		Address: order.Address{
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Country:    req.Country,
		},
	})
	if err != nil {
		return respondError(c, "failed to create order", err)
	}

	return c.JSON(http.StatusCreated, envelope{
		"message":     "order created successfully",
		"order_id":    o.ID,
		"total_price": o.TotalPrice,
	})
}

func (h *Handler) createFromCart(c echo.Context) error {
	req := new(createFromCartRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "failed to create order", errBadRequest.Error())
	}

	buyerID := callerID(c)
	if req.BuyerID != nil && *req.BuyerID != buyerID {
		return fail(c, http.StatusForbidden, "failed to create order", "buyer_id does not match the authenticated buyer")
	}

	params := order.CreateFromCartParams{
		BuyerID:       buyerID,
		PaymentMethod: req.PaymentMethod,
	}
	addr := order.Address{
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
	if !addr.Empty() {
		params.Address = &addr
	}

	o, err := h.orders.CreateFromCart(c.Request().Context(), params)
	if err != nil {
		return respondError(c, "failed to create order", err)
	}

	return c.JSON(http.StatusCreated, envelope{
		"message":     "order created successfully",
		"order_id":    o.ID,
		"total_price": o.TotalPrice,
	})
}

// myOrders answers with a bare list, newest first.
func (h *Handler) myOrders(c echo.Context) error {
	summaries, err := h.orders.ListBuyerOrders(c.Request().Context(), callerID(c))
	if err != nil {
		return respondError(c, "failed to fetch orders", err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *Handler) getOrder(c echo.Context) error {
	id, ok := pathID(c, "order_id")
	if !ok {
		return fail(c, http.StatusBadRequest, "failed to fetch order", "invalid order_id")
	}

	o, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, "failed to fetch order", err)
	}

	items := o.Items
	if items == nil {
		items = []order.OrderItem{}
	}
	header := *o
	header.Items = nil

	return c.JSON(http.StatusOK, envelope{
		"message": "order fetched successfully",
		"order":   header,
		"items":   items,
	})
}

func (h *Handler) removeOrder(c echo.Context) error {
	id, ok := pathID(c, "order_id")
	if !ok {
		return fail(c, http.StatusBadRequest, "failed to remove order", "invalid order_id")
	}

	if err := h.orders.RemoveOrder(c.Request().Context(), id); err != nil {
		return respondError(c, "failed to remove order", err)
	}
	return c.JSON(http.StatusOK, envelope{"message": "order removed successfully"})
}

func (h *Handler) updateOrder(c echo.Context) error {
	id, ok := pathID(c, "order_id")
	if !ok {
		return fail(c, http.StatusBadRequest, "failed to update order", "invalid order_id")
	}

	req := new(updateOrderRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "failed to update order", errBadRequest.Error())
	}
	if req.Status == "" {
		return fail(c, http.StatusBadRequest, "failed to update order", "status is required")
	}

	if err := h.orders.UpdateOrderStatus(c.Request().Context(), id, req.Status); err != nil {
		return respondError(c, "failed to update order", err)
	}
	return c.JSON(http.StatusOK, envelope{"message": "order status updated successfully"})
}
