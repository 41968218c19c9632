package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"klimapart/internal/domain"
	"klimapart/internal/payment"
	"klimapart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidAmount = errors.New("order amount must be positive")
	// ErrTokenIssuance wraps gateway failures surfaced to the checkout
	// caller; the just-created order has already been rolled back.
	ErrTokenIssuance = errors.New("payment token issuance failed")
)

// IssueTokenInput is everything checkout needs; unit prices are deliberately
// absent, the server recomputes them.
type IssueTokenInput struct {
	UserID      uuid.UUID
	Email       string
	UserIP      string
	UserName    string
	UserPhone   string
	AddressID   uuid.UUID
	Notes       string
	IsWholesale bool
	Lines       []CartLine
}

// TokenResult is the successful outcome of token issuance.
type TokenResult struct {
	Token   string
	OrderID uuid.UUID
}

// CheckoutService turns a cart into a pending order and a gateway payment
// token.
type CheckoutService interface {
	IssueToken(ctx context.Context, input IssueTokenInput) (*TokenResult, error)
}

type checkoutService struct {
	pricingService PricingService
	orderRepo      repository.OrderRepository
	addressRepo    repository.AddressRepository
	gateway        payment.Gateway
	logger         *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	pricingService PricingService,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	gateway payment.Gateway,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		pricingService: pricingService,
		orderRepo:      orderRepo,
		addressRepo:    addressRepo,
		gateway:        gateway,
		logger:         logger,
	}
}

// IssueToken validates the cart, recomputes every unit price from catalog
// state, persists a PENDING order with frozen lines and asks the gateway for
// a payment token. If the gateway call fails for any reason the order is
// deleted again before the error is surfaced, so a failed token never leaves
// a pending order behind.
func (s *checkoutService) IssueToken(ctx context.Context, input IssueTokenInput) (*TokenResult, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	address, err := s.addressRepo.FindByIDForUser(ctx, input.AddressID, input.UserID)
	if err != nil {
		if err == repository.ErrAddressNotFound {
			return nil, repository.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(input.Lines))
	basket := make([]payment.BasketItem, 0, len(input.Lines))
	total := decimal.Zero

	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: non-positive quantity", ErrInvalidAmount)
		}

		// Client prices are never trusted; the authoritative unit price is
		// recomputed here, strictly (no display fallback rates).
		quote, product, err := s.pricingService.AuthoritativeUnitPrice(ctx, line.ProductID, line.Quantity, input.IsWholesale)
		if err != nil {
			return nil, err
		}

		// Round to the minor unit exactly once, at the settlement boundary.
		unitPrice := quote.UnitPrice.Round(2)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))

		items = append(items, domain.OrderItem{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
		basket = append(basket, payment.BasketItem{
			Name:           product.Name,
			UnitPriceMinor: minorUnits(unitPrice),
			Quantity:       line.Quantity,
		})
		total = total.Add(lineTotal)
	}

	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}

	merchantOID := newMerchantOID()
	order := &domain.Order{
		ID:           uuid.New(),
		OrderNumber:  merchantOID,
		UserID:       input.UserID,
		Status:       domain.OrderStatusPending,
		PayStatus:    domain.PaymentStatusPending,
		MerchantOID:  merchantOID,
		Total:        total,
		Currency:     domain.SettlementCurrency,
		ShippingText: address.Snapshot(),
		Notes:        input.Notes,
		Items:        items,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	token, err := s.gateway.IssueToken(ctx, payment.TokenRequest{
		MerchantOID: merchantOID,
		UserIP:      input.UserIP,
		Email:       input.Email,
		AmountMinor: minorUnits(total),
		Basket:      basket,
		UserName:    input.UserName,
		UserAddress: order.ShippingText,
		UserPhone:   input.UserPhone,
		Currency:    string(domain.SettlementCurrency),
	})
	if err != nil {
		// Compensating delete: a caller must never get a token failure while
		// a pending order silently lingers. Best effort; a crash in between
		// leaves harmless debris for the abandoned-order purge.
		if delErr := s.orderRepo.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("Compensating order delete failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}

	s.logger.Info("Payment token issued",
		zap.String("order_id", order.ID.String()),
		zap.String("merchant_oid", merchantOID),
		zap.String("total", total.String()),
	)

	return &TokenResult{Token: token, OrderID: order.ID}, nil
}

// minorUnits converts a settlement amount already rounded to two decimals
// into the gateway's integer minor-unit representation.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

const oidAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newMerchantOID builds a gateway-compatible alphanumeric order identifier:
// a time base plus a random suffix wide enough to avoid collisions between
// orders created in the same nanosecond bucket.
func newMerchantOID() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))

	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = oidAlphabet[rand.Intn(len(oidAlphabet))]
	}

	return "KP" + ts + string(suffix)
}
