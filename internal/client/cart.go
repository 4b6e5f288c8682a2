package client

import (
	"context"
	"fmt"
	"net/http"
	"storefront/internal/entity"
	"storefront/internal/pricing"
	"storefront/internal/validation"
)

// CartItems lists the cart. Signed out clients have an empty cart and send
// no request.
func (c *Client) CartItems(ctx context.Context) ([]entity.CartItem, error) {
	if c.Token() == "" {
		return []entity.CartItem{}, nil
	}
	var items []entity.CartItem
	if err := c.query(ctx, "/api/cart", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CartSummary totals the cached cart.
func (c *Client) CartSummary(ctx context.Context) (pricing.Summary, error) {
	items, err := c.CartItems(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	return pricing.SummarizeCart(items), nil
}

func (c *Client) AddToCart(ctx context.Context, req validation.CartAdd) (*entity.CartItem, error) {
	if err := validation.Struct(req); err != nil {
		c.failure(err, "Failed to add item to cart")
		return nil, err
	}
	var item entity.CartItem
	if err := c.send(ctx, http.MethodPost, "/api/cart", req, &item); err != nil {
		c.failure(err, "Failed to add item to cart")
		return nil, err
	}
	c.cache.Invalidate("/api/cart")
	c.success("Item added to cart")
	return &item, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, id, quantity int) (*entity.CartItem, error) {
	req := validation.CartUpdate{Quantity: quantity}
	if err := validation.Struct(req); err != nil {
		c.failure(err, "Failed to update cart item")
		return nil, err
	}
	var item entity.CartItem
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/api/cart/%d", id), req, &item); err != nil {
		c.failure(err, "Failed to update cart item")
		return nil, err
	}
	c.cache.Invalidate("/api/cart")
	return &item, nil
}

// StepCartItem moves a line's quantity by delta, kept within 1 and the
// product's stock. It sends nothing when the clamped quantity is unchanged.
func (c *Client) StepCartItem(ctx context.Context, item entity.CartItem, delta int) (*entity.CartItem, error) {
	quantity := pricing.ClampQuantity(item.Quantity+delta, item.Product.Stock)
	if quantity == item.Quantity {
		return &item, nil
	}
	return c.UpdateCartItem(ctx, item.ID, quantity)
}

func (c *Client) RemoveFromCart(ctx context.Context, id int) error {
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/cart/%d", id), nil, nil); err != nil {
		c.failure(err, "Failed to remove item from cart")
		return err
	}
	c.cache.Invalidate("/api/cart")
	c.success("Item removed from cart")
	return nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	if err := c.send(ctx, http.MethodDelete, "/api/cart", nil, nil); err != nil {
		c.failure(err, "Failed to clear cart")
		return err
	}
	c.cache.Invalidate("/api/cart")
	c.success("Cart cleared")
	return nil
}
