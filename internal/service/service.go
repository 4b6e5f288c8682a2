package service

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"os"
	"storefront/internal/entity"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrDuplicateRequest   = errors.New("request already processed")
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int
	Role   entity.Role
}

func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

// CanManageProducts reports whether the actor may create or edit products.
func (a Actor) CanManageProducts() bool {
	return a.Role == entity.RoleAdmin || a.Role == entity.RoleVendor
}

type SessionStore interface {
	Create(ctx context.Context, id string, userID int, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
