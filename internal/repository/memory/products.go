package memory

import (
	"context"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

type productRepo struct{ s *Store }

func cloneProduct(p entity.Product) entity.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

func (r *productRepo) List(_ context.Context, q catalog.Query) ([]entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]entity.Product, 0, len(r.s.products))
	for id := 1; id < r.s.nextProductID; id++ {
		if p, ok := r.s.products[id]; ok {
			all = append(all, cloneProduct(p))
		}
	}
	return catalog.Apply(all, q), nil
}

func (r *productRepo) GetByID(_ context.Context, id int) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *productRepo) Create(_ context.Context, product *entity.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[product.CategoryID]; !ok {
		return repository.ErrInvalidInput
	}
	product.ID = s.nextProductID
	s.nextProductID++
	if product.CreatedAt.IsZero() {
		product.CreatedAt = s.now()
	}
	s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *productRepo) Update(_ context.Context, product *entity.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.categories[product.CategoryID]; !ok {
		return repository.ErrInvalidInput
	}
	product.CreatedAt = old.CreatedAt
	s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *productRepo) Delete(_ context.Context, id int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	for cid, item := range s.cart {
		if item.ProductID == id {
			delete(s.cart, cid)
		}
	}
	return nil
}

func (r *productRepo) AdjustStock(_ context.Context, id int, change int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustStockLocked(id, change)
}

func (s *Store) adjustStockLocked(id, change int) error {
	p, ok := s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock+change < 0 {
		return repository.ErrInsufficientStock
	}
	p.Stock += change
	s.products[id] = p
	return nil
}
