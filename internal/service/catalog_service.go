package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/repository"
	"storefront/internal/validation"
	"strings"
)

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

func (s *CatalogService) ListProducts(ctx context.Context, q catalog.Query) ([]entity.Product, error) {
	q.Sort = catalog.ParseSort(string(q.Sort))
	products, err := s.products.List(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing categories")
		return nil, err
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, in validation.CategoryInput) (*entity.Category, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	category := &entity.Category{Name: strings.TrimSpace(in.Name), Description: in.Description, ImageURL: in.ImageURL}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id int) error {
	_, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return validation.Errors{"categoryId": "unknown category"}
	}
	return err
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, in validation.ProductInput) (*entity.Product, error) {
	if !actor.CanManageProducts() {
		return nil, ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product := &entity.Product{VendorID: actor.UserID}
	in.Apply(product)
	if err := s.products.Create(ctx, product); err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}
	logger.Info().Msgf("User %d created product %d", actor.UserID, product.ID)
	return product, nil
}

// owned loads a product the actor may edit: any product for admins, their
// own for vendors.
func (s *CatalogService) owned(ctx context.Context, actor Actor, id int) (*entity.Product, error) {
	if !actor.CanManageProducts() {
		return nil, ErrForbidden
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && product.VendorID != actor.UserID {
		return nil, fmt.Errorf("product %d belongs to another vendor: %w", id, ErrForbidden)
	}
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id int, in validation.ProductInput) (*entity.Product, error) {
	product, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	in.Apply(product)
	if err := s.products.Update(ctx, product); err != nil {
		logger.Error().Err(err).Msgf("Error updating product %d", id)
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id int) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %d", id)
		return err
	}
	return nil
}
