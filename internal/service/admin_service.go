package service

import (
	"context"
	"fmt"

	"eshop/internal/entity"
)

type AdminService struct {
	users  UserRepository
	orders OrderRepository
	events EventPublisher
}

func NewAdminService(users UserRepository, orders OrderRepository, events EventPublisher) *AdminService {
	return &AdminService{
		users:  users,
		orders: orders,
		events: events,
	}
}

// UpdateOrderStatus moves a pending order to completed or cancelled.
// Completed and cancelled orders are final.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, caller entity.Identity, orderID int, status string) (*entity.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !entity.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrValidation, status)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: order %d cannot move from %s to %s", entity.ErrConflict, orderID, order.Status, status)
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, order.Status, status); err != nil {
		logger.Error().Err(err).Msgf("Error updating order %d", orderID)
		return nil, err
	}
	order.Status = status

	if s.events != nil {
		key := fmt.Sprintf("order.%s.%d", status, orderID)
		if err := s.events.Publish(ctx, entity.Event{Key: key, Payload: order}); err != nil {
			logger.Error().Err(err).Msgf("Error publishing event %s", key)
		}
	}
	return order, nil
}

func (s *AdminService) ListUsers(ctx context.Context, caller entity.Identity) ([]entity.UserSummary, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

func (s *AdminService) ListOrders(ctx context.Context, caller entity.Identity, status string) ([]entity.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if status != "" && !entity.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrValidation, status)
	}
	return s.orders.ListOrders(ctx, status)
}

// SalesStats sums sold quantities per product, cancelled orders excluded.
func (s *AdminService) SalesStats(ctx context.Context, caller entity.Identity) ([]entity.SalesStat, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.orders.SalesStats(ctx)
}
