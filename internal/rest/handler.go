package rest

import (
	"net/http"

	"cartify/internal/cart"
	"cartify/internal/metrics"
	"cartify/internal/middleware"
	"cartify/internal/order"
	"cartify/internal/product"
	"cartify/internal/user"
	"cartify/internal/utils"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	users    user.Service
	orders   order.Service
	carts    cart.Service
	products product.Service
	metrics  *metrics.Registry
}

func NewHandler(
	users user.Service,
	orders order.Service,
	carts cart.Service,
	products product.Service,
	reg *metrics.Registry,
) *Handler {
	return &Handler{
		users:    users,
		orders:   orders,
		carts:    carts,
		products: products,
		metrics:  reg,
	}
}

// Register mounts every route under /api. Authentication runs earlier in
// the chain; the role gates here only check what it put in the context.
func (h *Handler) Register(e *echo.Echo) {
	api := e.Group("/api")

	buyer := echo.WrapMiddleware(middleware.RequireRole(utils.RoleBuyer))
	anyRole := echo.WrapMiddleware(middleware.RequireRole(utils.RoleBuyer, utils.RoleSeller, utils.RoleAdmin))
	ownerOrAdmin := echo.WrapMiddleware(middleware.RequireRole(utils.RoleBuyer, utils.RoleAdmin))
	staff := echo.WrapMiddleware(middleware.RequireRole(utils.RoleSeller, utils.RoleAdmin))

	a := api.Group("/auth")
	a.POST("/login", h.login)
	a.POST("/register", h.register)

	o := api.Group("/order")
	o.POST("/create-order", h.createOrder, buyer)
	o.GET("/my-orders", h.myOrders, buyer)
	o.GET("/get-order/:order_id", h.getOrder, anyRole)
	o.DELETE("/remove-order/:order_id", h.removeOrder, ownerOrAdmin)
	o.PUT("/update-order/:order_id", h.updateOrder, staff)

	sc := api.Group("/shopping-cart", buyer)
	sc.POST("/create-from-cart", h.createFromCart)
	sc.POST("/add", h.addToCart)
	sc.GET("", h.getCart)
	sc.PUT("/:product_id", h.updateCart)
	sc.DELETE("/:product_id", h.removeFromCart)
	sc.DELETE("", h.clearCart)

	api.GET("/products/explore", h.explore, buyer)
	api.GET("/metrics", h.getMetrics)
}

func callerID(c echo.Context) int64 {
	id, _ := utils.GetUserIDFromContext(c.Request().Context())
	return id
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	return id, err == nil
}

func (h *Handler) getMetrics(c echo.Context) error {
	snap := h.metrics.Snapshot()
	return c.JSON(http.StatusOK, envelope{
		"message":   "ok",
		"counters":  snap.Counters,
		"latencies": snap.Latencies,
	})
}
