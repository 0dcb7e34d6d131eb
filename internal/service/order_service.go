package service

import (
	"context"
	"errors"
	"fmt"

	"eshop/internal/entity"
)

// OrderService handles carts and order placement. idem and events may be nil.
type OrderService struct {
	carts  CartRepository
	orders OrderRepository
	idem   IdempotencyStore
	events EventPublisher
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(carts CartRepository, orders OrderRepository, idem IdempotencyStore, events EventPublisher) *OrderService {
	return &OrderService{
		carts:  carts,
		orders: orders,
		idem:   idem,
		events: events,
	}
}

// AddToCart inserts a cart row. Product existence and stock are checked only
// when the order is placed.
func (s *OrderService) AddToCart(ctx context.Context, userID, productID, quantity int) (*entity.CartItem, error) {
	if userID <= 0 || productID <= 0 {
		return nil, fmt.Errorf("%w: userId and productId are required", entity.ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", entity.ErrValidation)
	}

	item, err := s.carts.AddCartItem(ctx, &entity.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error adding product %d to cart of user %d", productID, userID)
		return nil, err
	}
	return item, nil
}

func (s *OrderService) ListCart(ctx context.Context, userID int) ([]entity.CartItem, error) {
	return s.carts.ListCartItems(ctx, userID)
}

// PlaceOrder creates one pending order per line, all or nothing. A non-empty
// idempotencyKey that was already used fails with ErrConflict.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int, lines []entity.OrderLine, idempotencyKey string) ([]entity.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", entity.ErrValidation)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cartItems must not be empty", entity.ErrValidation)
	}
	for i, line := range lines {
		if line.ProductID <= 0 {
			return nil, fmt.Errorf("%w: item %d: productId is required", entity.ErrValidation, i)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d: quantity must be positive, got %d", entity.ErrValidation, i, line.Quantity)
		}
	}

	claimed := false
	if idempotencyKey != "" && s.idem != nil {
		ok, err := s.idem.Claim(ctx, idempotencyKey)
		if err != nil {
			logger.Error().Err(err).Msg("Error claiming idempotency key")
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: duplicate order request", entity.ErrConflict)
		}
		claimed = true
	}

	orders, err := s.orders.PlaceOrder(ctx, userID, lines)
	if err != nil {
		if claimed {
			if rErr := s.idem.Release(ctx, idempotencyKey); rErr != nil {
				logger.Warn().Err(rErr).Msg("Error releasing idempotency key")
			}
		}
		if errors.Is(err, entity.ErrInsufficientStock) {
			logger.Warn().Msgf("Order for user %d rejected: %v", userID, err)
		} else if !errors.Is(err, entity.ErrNotFound) {
			logger.Error().Err(err).Msg("Error placing order")
		}
		return nil, err
	}

	events := make([]entity.Event, 0, len(orders))
	for i := range orders {
		events = append(events, entity.Event{Key: fmt.Sprintf("order.created.%d", orders[i].ID), Payload: orders[i]})
	}
	s.publish(ctx, events)
	return orders, nil
}

// publish is best effort: the order is already committed.
func (s *OrderService) publish(ctx context.Context, events []entity.Event) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %d order events", len(events))
	}
}
