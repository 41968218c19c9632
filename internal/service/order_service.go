package service

import (
	"context"
	"errors"
	"fmt"

	"klimapart/internal/domain"
	"klimapart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrIllegalTransition = errors.New("illegal order status transition")
)

// OrderService covers the administrator-driven order operations that sit
// outside the payment leg: the fulfilment transitions after CONFIRMED.
type OrderService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// Get retrieves an order with its items.
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// UpdateStatus applies an administrator fulfilment transition after checking
// it against the state machine.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) error {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !domain.CanTransition(order.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, to)
	}

	if order.Status == to {
		return nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, to); err != nil {
		return err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)),
	)

	return nil
}
