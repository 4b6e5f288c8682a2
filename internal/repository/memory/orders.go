package memory

import (
	"context"
	"fmt"
	"sort"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

type orderRepo struct{ s *Store }

func cloneOrder(o entity.Order) entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	return o
}

func (r *orderRepo) Create(_ context.Context, order *entity.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("order has no items: %w", repository.ErrInvalidInput)
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	need := make(map[int]int, len(order.Items))
	for _, it := range order.Items {
		need[it.ProductID] += it.Quantity
	}
	for id, qty := range need {
		p, ok := s.products[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
		}
		if p.Stock < qty {
			return fmt.Errorf("product %d: %w", id, repository.ErrInsufficientStock)
		}
	}
	for id, qty := range need {
		// checked above, cannot fail
		_ = s.adjustStockLocked(id, -qty)
	}

	now := s.now()
	order.ID = s.nextOrderID
	s.nextOrderID++
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Items {
		order.Items[i].ID = s.nextItemID
		order.Items[i].OrderID = order.ID
		s.nextItemID++
	}
	s.orders[order.ID] = cloneOrder(*order)

	for id, item := range s.cart {
		if _, bought := need[item.ProductID]; bought && item.UserID == order.UserID {
			delete(s.cart, id)
		}
	}
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id int) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *orderRepo) List(_ context.Context, filter repository.OrderFilter) ([]entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []entity.Order{}
	for _, o := range r.s.orders {
		if filter.UserID == 0 || o.UserID == filter.UserID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id int, from, to entity.OrderStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != from {
		return repository.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = s.now()
	s.orders[id] = o

	if to == entity.StatusCancelled {
		for _, it := range o.Items {
			// deleted products have nothing to restock
			if _, ok := s.products[it.ProductID]; ok {
				_ = s.adjustStockLocked(it.ProductID, it.Quantity)
			}
		}
	}
	return nil
}
