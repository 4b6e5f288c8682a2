package client

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"net/http"
	"storefront/internal/entity"
	"storefront/internal/validation"
)

type ReorderResult struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped"`
}

func (c *Client) Orders(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	if err := c.query(ctx, "/api/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Order(ctx context.Context, id int) (*entity.Order, error) {
	var order entity.Order
	if err := c.query(ctx, fmt.Sprintf("/api/orders/%d", id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PlaceOrder submits a checkout. An empty idempotencyKey gets a fresh one;
// pass the same key to retry safely.
func (c *Client) PlaceOrder(ctx context.Context, req validation.PlaceOrder, idempotencyKey string) (*entity.Order, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		c.notifier.Notify(Notification{Title: "Error", Description: "Please fill in all required fields.", Variant: VariantDestructive})
		return nil, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	var order entity.Order
	header := http.Header{"Idempotency-Key": []string{idempotencyKey}}
	if err := c.sendWithHeader(ctx, http.MethodPost, "/api/orders", req, &order, header); err != nil {
		c.notifier.Notify(Notification{Title: "Error", Description: "Failed to place order. Please try again.", Variant: VariantDestructive})
		return nil, err
	}
	for _, prefix := range []string{"/api/cart", "/api/orders", "/api/products", "/api/admin"} {
		c.cache.Invalidate(prefix)
	}
	c.notifier.Notify(Notification{Title: "Success!", Description: "Your order has been placed successfully.", Variant: VariantDefault})
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, id int) (*entity.Order, error) {
	var order entity.Order
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", id), nil, &order); err != nil {
		c.failure(err, "Failed to cancel order")
		return nil, err
	}
	c.cache.Invalidate("/api/orders")
	c.cache.Invalidate("/api/products")
	c.success("Order cancelled")
	return &order, nil
}

func (c *Client) Reorder(ctx context.Context, id int) (*ReorderResult, error) {
	var res ReorderResult
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/reorder", id), nil, &res); err != nil {
		c.failure(err, "Failed to reorder")
		return nil, err
	}
	c.cache.Invalidate("/api/cart")
	c.success(fmt.Sprintf("Added %d item(s) to cart", res.Added))
	return &res, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int, status entity.OrderStatus) (*entity.Order, error) {
	req := validation.StatusUpdate{Status: status}
	if err := validation.Struct(req); err != nil {
		c.failure(err, "Failed to update order")
		return nil, err
	}
	var order entity.Order
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", id), req, &order); err != nil {
		c.failure(err, "Failed to update order")
		return nil, err
	}
	c.cache.Invalidate("/api/orders")
	c.cache.Invalidate("/api/admin")
	if status == entity.StatusCancelled {
		c.cache.Invalidate("/api/products")
	}
	c.success(fmt.Sprintf("Order #%d is now %s", id, status))
	return &order, nil
}

func (c *Client) Stats(ctx context.Context) (*entity.Stats, error) {
	var stats entity.Stats
	if err := c.query(ctx, "/api/admin/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
