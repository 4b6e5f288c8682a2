package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"storefront/internal/entity"
	"storefront/internal/service"
	"storefront/internal/validation"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// List --> GET /api/cart
func (h *CartHandler) List(c echo.Context) error {
	items, err := h.cartService.Items(c.Request().Context(), actorOf(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []entity.CartItem{}
	}
	return c.JSON(http.StatusOK, items)
}

// Summary returns the cart totals --> GET /api/cart/summary
func (h *CartHandler) Summary(c echo.Context) error {
	summary, err := h.cartService.Summary(c.Request().Context(), actorOf(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Add --> POST /api/cart
func (h *CartHandler) Add(c echo.Context) error {
	req := validation.CartAdd{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	item, err := h.cartService.Add(c.Request().Context(), actorOf(c).UserID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update sets a line's quantity --> PUT /api/cart/:id
func (h *CartHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	req := validation.CartUpdate{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	item, err := h.cartService.Update(c.Request().Context(), actorOf(c).UserID, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// Remove --> DELETE /api/cart/:id
func (h *CartHandler) Remove(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	if err := h.cartService.Remove(c.Request().Context(), actorOf(c).UserID, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear --> DELETE /api/cart
func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.cartService.Clear(c.Request().Context(), actorOf(c).UserID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
