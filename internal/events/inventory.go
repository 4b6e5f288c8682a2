package events

import (
	"context"
	"storefront/internal/entity"
)

// Invalidator drops cached product entries. The redis catalog cache
// implements it.
type Invalidator interface {
	InvalidateProducts(ctx context.Context, ids ...int)
}

// Inventory refreshes cached products whose stock moved. Stock itself is
// written by the order repository, so the handler never touches it.
type Inventory struct {
	invalidator Invalidator
}

// NewInventory builds the handler; invalidator may be nil.
func NewInventory(invalidator Invalidator) *Inventory {
	return &Inventory{invalidator: invalidator}
}

func (h *Inventory) Handle(ctx context.Context, event string, order *entity.Order) error {
	switch event {
	case Placed, Cancelled:
		h.invalidate(ctx, order)
	case Status:
		logger.Info().Msgf("Order %d is now %s", order.ID, order.Status)
	default:
		logger.Warn().Msgf("Skipping unknown order event %q for order %d", event, order.ID)
	}
	return nil
}

func (h *Inventory) invalidate(ctx context.Context, order *entity.Order) {
	if h.invalidator != nil {
		h.invalidator.InvalidateProducts(ctx, order.ProductIDs()...)
	}
}
