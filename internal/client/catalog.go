package client

import (
	"context"
	"fmt"
	"net/http"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/validation"
)

func (c *Client) Categories(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	if err := c.query(ctx, "/api/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ProductsPath is the cache key and request path for a product listing.
func ProductsPath(q catalog.Query) string {
	if key := q.Key(); key != "" {
		return "/api/products?" + key
	}
	return "/api/products"
}

func (c *Client) Products(ctx context.Context, q catalog.Query) ([]entity.Product, error) {
	var products []entity.Product
	if err := c.query(ctx, ProductsPath(q), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Product(ctx context.Context, id int) (*entity.Product, error) {
	var product entity.Product
	if err := c.query(ctx, fmt.Sprintf("/api/products/%d", id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CreateProduct(ctx context.Context, in validation.ProductInput) (*entity.Product, error) {
	return c.saveProduct(ctx, http.MethodPost, "/api/products", in, "Product created")
}

func (c *Client) UpdateProduct(ctx context.Context, id int, in validation.ProductInput) (*entity.Product, error) {
	return c.saveProduct(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", id), in, "Product updated")
}

func (c *Client) saveProduct(ctx context.Context, method, path string, in validation.ProductInput, done string) (*entity.Product, error) {
	if err := validation.Struct(in); err != nil {
		c.failure(err, "Failed to save product")
		return nil, err
	}
	var product entity.Product
	if err := c.send(ctx, method, path, in, &product); err != nil {
		c.failure(err, "Failed to save product")
		return nil, err
	}
	c.cache.Invalidate("/api/products")
	c.success(done)
	return &product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil); err != nil {
		c.failure(err, "Failed to delete product")
		return err
	}
	c.cache.Invalidate("/api/products")
	c.cache.Invalidate("/api/cart")
	c.success("Product deleted")
	return nil
}

func (c *Client) CreateCategory(ctx context.Context, in validation.CategoryInput) (*entity.Category, error) {
	if err := validation.Struct(in); err != nil {
		c.failure(err, "Failed to create category")
		return nil, err
	}
	var category entity.Category
	if err := c.send(ctx, http.MethodPost, "/api/categories", in, &category); err != nil {
		c.failure(err, "Failed to create category")
		return nil, err
	}
	c.cache.Invalidate("/api/categories")
	c.success("Category created")
	return &category, nil
}
