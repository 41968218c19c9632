package service

import (
	"context"

	"klimapart/internal/config"
	"klimapart/internal/domain"
	"klimapart/internal/payment"
	"klimapart/internal/repository"

	"go.uber.org/zap"
)

// Acknowledgement literals the gateway's retry machinery keys on. The exact
// body text matters, not the HTTP status code.
const (
	AckOK     = "OK"
	AckFailed = "FAILED"
)

// CallbackStatusSuccess is the payload status value meaning the payment went
// through.
const CallbackStatusSuccess = "success"

// CallbackPayload is the form-decoded inbound payment notification.
type CallbackPayload struct {
	MerchantOID string
	Status      string
	TotalAmount string
	Hash        string
}

// CallbackService authenticates inbound payment notifications and applies
// the terminal order state exactly once.
type CallbackService interface {
	// HandleCallback returns the literal acknowledgement body for the
	// gateway. It never returns an error to the transport: every outcome
	// maps to one of the two literals.
	HandleCallback(ctx context.Context, payload CallbackPayload) string
}

type callbackService struct {
	orderRepo repository.OrderRepository
	cfg       config.PaymentConfig
	logger    *zap.Logger
}

// NewCallbackService creates a new instance of CallbackService
func NewCallbackService(orderRepo repository.OrderRepository, cfg config.PaymentConfig, logger *zap.Logger) CallbackService {
	return &callbackService{
		orderRepo: orderRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleCallback verifies the notification signature, then applies a
// set-to-target state transition keyed by the gateway correlation id.
// Duplicate deliveries of the same outcome are acknowledged without
// re-applying anything.
func (s *callbackService) HandleCallback(ctx context.Context, payload CallbackPayload) string {
	// The hash is recomputed from our own credentials, independent of
	// anything the payload claims. A mismatch is a security boundary, not a
	// business error: no state is touched and the gateway is told to retry.
	if !payment.VerifyCallback(s.cfg.MerchantKey, s.cfg.MerchantSalt, payload.MerchantOID, payload.Status, payload.TotalAmount, payload.Hash) {
		s.logger.Warn("Callback hash mismatch",
			zap.String("merchant_oid", payload.MerchantOID),
			zap.String("status", payload.Status),
		)
		return AckFailed
	}

	order, err := s.orderRepo.FindByMerchantOID(ctx, payload.MerchantOID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			// Retrying cannot make a nonexistent local order appear, so the
			// gateway is told all is well; the mismatch is logged for
			// investigation.
			s.logger.Error("Callback for unknown order",
				zap.String("merchant_oid", payload.MerchantOID),
			)
			return AckOK
		}
		s.logger.Error("Failed to load order for callback",
			zap.String("merchant_oid", payload.MerchantOID),
			zap.Error(err),
		)
		return AckFailed
	}

	targetStatus, targetPayStatus := callbackTarget(payload.Status)

	// Set-to-target keeps the transition idempotent: an order already in the
	// target state is acknowledged without side effects.
	if order.PayStatus == targetPayStatus && order.Status == targetStatus {
		return AckOK
	}

	// A callback reporting a different outcome for an already settled order
	// is suspicious; the settled state wins and the conflict is logged.
	if order.PayStatus != domain.PaymentStatusPending {
		s.logger.Warn("Callback conflicts with settled order state",
			zap.String("merchant_oid", payload.MerchantOID),
			zap.String("settled", string(order.PayStatus)),
			zap.String("claimed", payload.Status),
		)
		return AckOK
	}

	if err := s.orderRepo.SetPaymentOutcome(ctx, payload.MerchantOID, targetStatus, targetPayStatus); err != nil {
		s.logger.Error("Failed to apply payment outcome",
			zap.String("merchant_oid", payload.MerchantOID),
			zap.Error(err),
		)
		return AckFailed
	}

	s.logger.Info("Payment outcome applied",
		zap.String("merchant_oid", payload.MerchantOID),
		zap.String("status", string(targetStatus)),
		zap.String("payment_status", string(targetPayStatus)),
	)

	return AckOK
}

func callbackTarget(claimed string) (domain.OrderStatus, domain.PaymentStatus) {
	if claimed == CallbackStatusSuccess {
		return domain.OrderStatusConfirmed, domain.PaymentStatusPaid
	}
	return domain.OrderStatusCancelled, domain.PaymentStatusFailed
}
