package service

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/entity"
	"storefront/internal/events"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/validation"
	"time"
)

const idempotencyTTL = 24 * time.Hour

type OrderService struct {
	orders      repository.OrderRepository
	products    repository.ProductRepository
	cart        repository.CartRepository
	publisher   events.Publisher
	idempotency IdempotencyStore
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, cart repository.CartRepository,
	publisher events.Publisher, idempotency IdempotencyStore) *OrderService {
	return &OrderService{
		orders:      orders,
		products:    products,
		cart:        cart,
		publisher:   publisher,
		idempotency: idempotency,
	}
}

// Place prices the requested lines at current unit prices and stores the
// order. A non-empty idempotency key is accepted once per user per day.
func (s *OrderService) Place(ctx context.Context, actor Actor, req validation.PlaceOrder, idempotencyKey string) (_ *entity.Order, err error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		key := fmt.Sprintf("%d:%s", actor.UserID, idempotencyKey)
		var claimed bool
		claimed, err = s.idempotency.Claim(ctx, key, idempotencyTTL)
		if err != nil {
			logger.Error().Err(err).Msg("Error claiming idempotency key")
			return nil, err
		}
		if !claimed {
			return nil, ErrDuplicateRequest
		}
		// a failed attempt may be retried with the same key
		defer func() {
			if err != nil {
				if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
					logger.Error().Err(relErr).Msg("Error releasing idempotency key")
				}
			}
		}()
	}

	order := &entity.Order{
		UserID:          actor.UserID,
		Status:          entity.StatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
	}
	var lines []pricing.Line
	for _, line := range mergeLines(req.Items) {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !pricing.CanPurchase(*product) {
			return nil, fmt.Errorf("%q: %w", product.Name, ErrOutOfStock)
		}
		if line.Quantity > product.Stock {
			return nil, insufficient(product, line.Quantity)
		}
		unit := product.UnitPrice()
		order.Items = append(order.Items, entity.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unit,
		})
		lines = append(lines, pricing.Line{UnitPrice: unit, Quantity: line.Quantity})
	}

	summary := pricing.Summarize(lines)
	order.Subtotal = summary.Subtotal
	order.Shipping = summary.Shipping
	order.Tax = summary.Tax
	order.Total = summary.Total

	if err := s.orders.Create(ctx, order); err != nil {
		logger.Error().Err(err).Msgf("Error creating order for user %d", actor.UserID)
		return nil, err
	}
	logger.Info().Msgf("Order %d placed by user %d, total %s", order.ID, actor.UserID, order.Total.StringFixed(2))

	s.publish(ctx, events.Placed, order)
	return order, nil
}

// mergeLines sums quantities of repeated products, keeping first-seen order.
func mergeLines(lines []validation.OrderLine) []validation.OrderLine {
	index := make(map[int]int, len(lines))
	var out []validation.OrderLine
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (s *OrderService) publish(ctx context.Context, event string, order *entity.Order) {
	if err := s.publisher.Publish(ctx, event, order); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s event for order %d", event, order.ID)
	}
}

// List returns the actor's orders newest first; admins see every order.
func (s *OrderService) List(ctx context.Context, actor Actor, limit int) ([]entity.Order, error) {
	filter := repository.OrderFilter{UserID: actor.UserID, Limit: limit}
	if actor.IsAdmin() {
		filter.UserID = 0
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	return orders, nil
}

// Get returns an order visible to the actor. Other users' orders read as
// not found.
func (s *OrderService) Get(ctx context.Context, actor Actor, id int) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("order %d: %w", id, repository.ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, order *entity.Order, to entity.OrderStatus) (*entity.Order, error) {
	if !order.Status.CanTransition(to) {
		return nil, fmt.Errorf("%s to %s: %w", order.Status, to, ErrInvalidTransition)
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			logger.Warn().Msgf("Order %d changed status concurrently", order.ID)
		}
		return nil, err
	}
	updated, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	event := events.Status
	if to == entity.StatusCancelled {
		event = events.Cancelled
	}
	s.publish(ctx, event, updated)
	return updated, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id int, req validation.StatusUpdate) (*entity.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, req.Status)
}

// Cancel cancels a pending or processing order. The repository returns the
// ordered units to stock in the same write as the status change.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id int) (*entity.Order, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, fmt.Errorf("order %d is %s: %w", id, order.Status, ErrInvalidTransition)
	}
	return s.transition(ctx, order, entity.StatusCancelled)
}

type ReorderResult struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped"`
}

// Reorder copies a delivered order back into the cart. Quantities are clamped
// to current stock and unavailable products are skipped.
func (s *OrderService) Reorder(ctx context.Context, actor Actor, id int) (*ReorderResult, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	if !order.Status.Actions().Reorder {
		return nil, fmt.Errorf("order %d is %s: %w", id, order.Status, ErrInvalidTransition)
	}

	res := &ReorderResult{Skipped: []string{}}
	for _, item := range order.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			res.Skipped = append(res.Skipped, item.ProductName)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !pricing.CanPurchase(*product) {
			res.Skipped = append(res.Skipped, product.Name)
			continue
		}

		existing, err := s.cart.FindByProduct(ctx, actor.UserID, product.ID)
		switch {
		case err == nil:
			quantity := pricing.ClampQuantity(existing.Quantity+item.Quantity, product.Stock)
			err = s.cart.UpdateQuantity(ctx, actor.UserID, existing.ID, quantity)
		case errors.Is(err, repository.ErrNotFound):
			err = s.cart.Add(ctx, &entity.CartItem{
				UserID:    actor.UserID,
				ProductID: product.ID,
				Quantity:  pricing.ClampQuantity(item.Quantity, product.Stock),
			})
		}
		if err != nil {
			logger.Error().Err(err).Msgf("Error re-adding product %d from order %d", product.ID, id)
			return nil, err
		}
		res.Added++
	}
	return res, nil
}
