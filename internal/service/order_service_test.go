package service

import (
	"context"
	"errors"
	"testing"

	"klimapart/internal/domain"
	"klimapart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func orderFixture(status domain.OrderStatus) (*orderService, *mockOrderRepository, *domain.Order) {
	orderRepo := newMockOrderRepository()
	order := &domain.Order{
		ID:          uuid.New(),
		OrderNumber: "KPTEST02",
		MerchantOID: "KPTEST02",
		Status:      status,
		PayStatus:   domain.PaymentStatusPaid,
	}
	orderRepo.orders[order.ID] = order

	svc := NewOrderService(orderRepo, zap.NewNop()).(*orderService)
	return svc, orderRepo, order
}

func TestUpdateStatus_LegalTransitions(t *testing.T) {
	tests := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
	}{
		{domain.OrderStatusConfirmed, domain.OrderStatusShipped},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered},
		{domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled},
	}

	for _, tt := range tests {
		svc, _, order := orderFixture(tt.from)

		if err := svc.UpdateStatus(context.Background(), order.ID, tt.to); err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
			continue
		}
		if order.Status != tt.to {
			t.Errorf("%s -> %s: status not applied, got %s", tt.from, tt.to, order.Status)
		}
	}
}

func TestUpdateStatus_IllegalTransitions(t *testing.T) {
	tests := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
	}{
		{domain.OrderStatusDelivered, domain.OrderStatusShipped},
		{domain.OrderStatusCancelled, domain.OrderStatusConfirmed},
		{domain.OrderStatusPending, domain.OrderStatusDelivered},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled},
	}

	for _, tt := range tests {
		svc, _, order := orderFixture(tt.from)

		err := svc.UpdateStatus(context.Background(), order.ID, tt.to)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: expected ErrIllegalTransition, got %v", tt.from, tt.to, err)
		}
		if order.Status != tt.from {
			t.Errorf("%s -> %s: illegal transition must not change state", tt.from, tt.to)
		}
	}
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	svc, _, order := orderFixture(domain.OrderStatusShipped)

	if err := svc.UpdateStatus(context.Background(), order.ID, domain.OrderStatusShipped); err != nil {
		t.Errorf("repeating the current status must succeed, got %v", err)
	}
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	svc, _, _ := orderFixture(domain.OrderStatusConfirmed)

	err := svc.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatusShipped)
	if !errors.Is(err, repository.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}
