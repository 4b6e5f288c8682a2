package repository

import (
	"context"
	"storefront/internal/catalog"
	"storefront/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]entity.Category, error)
	GetByID(ctx context.Context, id int) (*entity.Category, error)
	Create(ctx context.Context, category *entity.Category) error
}

type ProductRepository interface {
	List(ctx context.Context, q catalog.Query) ([]entity.Product, error)
	GetByID(ctx context.Context, id int) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int) error

	// AdjustStock adds change to the stock of a product. A result below zero
	// fails with ErrInsufficientStock and leaves the stock untouched.
	AdjustStock(ctx context.Context, id int, change int) error
}

// CartRepository scopes every lookup by user so one user can never touch
// another user's lines.
type CartRepository interface {
	List(ctx context.Context, userID int) ([]entity.CartItem, error)
	Get(ctx context.Context, userID, id int) (*entity.CartItem, error)
	FindByProduct(ctx context.Context, userID, productID int) (*entity.CartItem, error)
	Add(ctx context.Context, item *entity.CartItem) error
	UpdateQuantity(ctx context.Context, userID, id, quantity int) error
	Remove(ctx context.Context, userID, id int) error
	Clear(ctx context.Context, userID int) error
}

type OrderFilter struct {
	UserID int // 0 lists every user's orders
	Limit  int // 0 means no limit
}

type OrderRepository interface {
	// Create stores the order and its items, decrements stock for every item
	// and removes the purchased products from the buyer's cart, all in one
	// transaction. It fails with ErrInsufficientStock when any product cannot
	// cover its quantity.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int) (*entity.Order, error)
	// List returns orders newest first, items included.
	List(ctx context.Context, filter OrderFilter) ([]entity.Order, error)
	// UpdateStatus moves an order from one status to another and fails with
	// ErrConflict when the stored status is no longer from. Moving to
	// cancelled returns the ordered units to products that still exist.
	UpdateStatus(ctx context.Context, id int, from, to entity.OrderStatus) error
}

type StatsRepository interface {
	Stats(ctx context.Context) (*entity.Stats, error)
}

type Repositories struct {
	Users      UserRepository
	Categories CategoryRepository
	Products   ProductRepository
	Cart       CartRepository
	Orders     OrderRepository
	Stats      StatsRepository
}
