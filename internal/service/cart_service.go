package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/entity"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

type CartService struct {
	cart     repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(cart repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{cart: cart, products: products}
}

func (s *CartService) Items(ctx context.Context, userID int) ([]entity.CartItem, error) {
	items, err := s.cart.List(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing cart for user %d", userID)
		return nil, err
	}
	return items, nil
}

func (s *CartService) Summary(ctx context.Context, userID int) (pricing.Summary, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return pricing.Summary{}, err
	}
	return pricing.SummarizeCart(items), nil
}

func insufficient(p *entity.Product, want int) error {
	return fmt.Errorf("only %d of %q left, %d requested: %w", p.Stock, p.Name, want, repository.ErrInsufficientStock)
}

// Add puts a product in the cart, merging with an existing line for the
// same product.
func (s *CartService) Add(ctx context.Context, userID int, req validation.CartAdd) (*entity.CartItem, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !pricing.CanPurchase(*product) {
		return nil, fmt.Errorf("%q: %w", product.Name, ErrOutOfStock)
	}

	existing, err := s.cart.FindByProduct(ctx, userID, req.ProductID)
	switch {
	case err == nil:
		quantity := existing.Quantity + req.Quantity
		if quantity > product.Stock {
			return nil, insufficient(product, quantity)
		}
		if err := s.cart.UpdateQuantity(ctx, userID, existing.ID, quantity); err != nil {
			return nil, err
		}
		return s.cart.Get(ctx, userID, existing.ID)
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, err
	}

	if req.Quantity > product.Stock {
		return nil, insufficient(product, req.Quantity)
	}
	item := &entity.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
	if err := s.cart.Add(ctx, item); err != nil {
		logger.Error().Err(err).Msgf("Error adding product %d to cart of user %d", req.ProductID, userID)
		return nil, err
	}
	return s.cart.Get(ctx, userID, item.ID)
}

func (s *CartService) Update(ctx context.Context, userID, id int, req validation.CartUpdate) (*entity.CartItem, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	item, err := s.cart.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Quantity > item.Product.Stock {
		return nil, insufficient(&item.Product, req.Quantity)
	}
	if err := s.cart.UpdateQuantity(ctx, userID, id, req.Quantity); err != nil {
		return nil, err
	}
	item.Quantity = req.Quantity
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, id int) error {
	return s.cart.Remove(ctx, userID, id)
}

func (s *CartService) Clear(ctx context.Context, userID int) error {
	return s.cart.Clear(ctx, userID)
}
