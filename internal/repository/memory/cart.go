package memory

import (
	"context"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

type cartRepo struct{ s *Store }

// withProduct attaches the current product snapshot. Callers hold the lock.
func (r *cartRepo) withProduct(item entity.CartItem) (entity.CartItem, bool) {
	p, ok := r.s.products[item.ProductID]
	if !ok {
		return item, false
	}
	item.Product = cloneProduct(p)
	return item, true
}

func (r *cartRepo) List(_ context.Context, userID int) ([]entity.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []entity.CartItem{}
	for id := 1; id < r.s.nextCartID; id++ {
		item, ok := r.s.cart[id]
		if !ok || item.UserID != userID {
			continue
		}
		if item, ok = r.withProduct(item); ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *cartRepo) Get(_ context.Context, userID, id int) (*entity.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.cart[id]
	if !ok || item.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if item, ok = r.withProduct(item); !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *cartRepo) FindByProduct(_ context.Context, userID, productID int) (*entity.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, item := range r.s.cart {
		if item.UserID == userID && item.ProductID == productID {
			if item, ok := r.withProduct(item); ok {
				return &item, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *cartRepo) Add(_ context.Context, item *entity.CartItem) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[item.ProductID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range s.cart {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			return repository.ErrDuplicate
		}
	}
	item.ID = s.nextCartID
	s.nextCartID++
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	stored := *item
	stored.Product = entity.Product{}
	s.cart[item.ID] = stored
	return nil
}

func (r *cartRepo) UpdateQuantity(_ context.Context, userID, id, quantity int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cart[id]
	if !ok || item.UserID != userID {
		return repository.ErrNotFound
	}
	item.Quantity = quantity
	s.cart[id] = item
	return nil
}

func (r *cartRepo) Remove(_ context.Context, userID, id int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cart[id]
	if !ok || item.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.cart, id)
	return nil
}

func (r *cartRepo) Clear(_ context.Context, userID int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.cart {
		if item.UserID == userID {
			delete(s.cart, id)
		}
	}
	return nil
}
