// Package memory is a mutex-guarded in-process implementation of the
// repository interfaces, used for STORAGE=memory and in tests.
package memory

import (
	"context"
	"storefront/internal/entity"
	"storefront/internal/repository"
	"strings"
	"sync"
	"time"
)

type Store struct {
	mu sync.RWMutex

	users      map[int]entity.User
	categories map[int]entity.Category
	products   map[int]entity.Product
	cart       map[int]entity.CartItem
	orders     map[int]entity.Order

	nextUserID     int
	nextCategoryID int
	nextProductID  int
	nextCartID     int
	nextOrderID    int
	nextItemID     int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int]entity.User),
		categories: make(map[int]entity.Category),
		products:   make(map[int]entity.Product),
		cart:       make(map[int]entity.CartItem),
		orders:     make(map[int]entity.Order),

		nextUserID:     1,
		nextCategoryID: 1,
		nextProductID:  1,
		nextCartID:     1,
		nextOrderID:    1,
		nextItemID:     1,

		now: time.Now,
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:      &userRepo{s},
		Categories: &categoryRepo{s},
		Products:   &productRepo{s},
		Cart:       &cartRepo{s},
		Orders:     &orderRepo{s},
		Stats:      &statsRepo{s},
	}
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = s.nextUserID
	s.nextUserID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) List(_ context.Context) ([]entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entity.Category, 0, len(r.s.categories))
	for id := 1; id < r.s.nextCategoryID; id++ {
		if c, ok := r.s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *categoryRepo) GetByID(_ context.Context, id int) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *categoryRepo) Create(_ context.Context, category *entity.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return repository.ErrDuplicate
		}
	}
	category.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories[category.ID] = *category
	return nil
}

type statsRepo struct{ s *Store }

func (r *statsRepo) Stats(_ context.Context) (*entity.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st := &entity.Stats{
		TotalOrders:   len(r.s.orders),
		TotalUsers:    len(r.s.users),
		TotalProducts: len(r.s.products),
	}
	for _, o := range r.s.orders {
		if o.Status != entity.StatusCancelled {
			st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		}
	}
	return st, nil
}
