package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"storefront/internal/entity"
	"storefront/internal/service"
	"storefront/internal/validation"
	"strconv"
)

// IdempotencyHeader lets a client retry POST /api/orders without placing the
// order twice.
const IdempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	orderService *service.OrderService
	adminService *service.AdminService
}

func NewOrderHandler(orderService *service.OrderService, adminService *service.AdminService) *OrderHandler {
	return &OrderHandler{orderService: orderService, adminService: adminService}
}

// CreateOrder --> POST /api/orders
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	req := validation.PlaceOrder{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	key := c.Request().Header.Get(IdempotencyHeader)

	order, err := h.orderService.Place(c.Request().Context(), actorOf(c), req, key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOrders --> GET /api/orders?limit=
func (h *OrderHandler) ListOrders(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		limit = n
	}
	orders, err := h.orderService.List(c.Request().Context(), actorOf(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder --> GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	order, err := h.orderService.Get(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// CancelOrder --> POST /api/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	order, err := h.orderService.Cancel(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Reorder copies a delivered order into the cart --> POST /api/orders/:id/reorder
func (h *OrderHandler) Reorder(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	res, err := h.orderService.Reorder(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus --> PATCH /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	req := validation.StatusUpdate{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	order, err := h.orderService.UpdateStatus(c.Request().Context(), actorOf(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Stats --> GET /api/admin/stats
func (h *OrderHandler) Stats(c echo.Context) error {
	stats, err := h.adminService.Stats(c.Request().Context(), actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
