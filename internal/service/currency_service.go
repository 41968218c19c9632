package service

import (
	"context"
	"errors"
	"fmt"

	"klimapart/internal/domain"
	"klimapart/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidRate      = errors.New("rate must be positive")
	ErrInvalidCurrency  = errors.New("unknown currency code")
	ErrSettlementUpdate = errors.New("settlement currency rate is fixed")
)

// CurrencyService handles the administrator rate update and the cascading
// recompute of cached settlement prices.
type CurrencyService interface {
	// UpdateRate upserts the rate for a currency and rewrites every affected
	// product's cached settlement price. Returns how many products were
	// recomputed.
	UpdateRate(ctx context.Context, code domain.Currency, rate decimal.Decimal) (int, error)
	Rates(ctx context.Context) ([]*domain.CurrencyRate, error)
}

type currencyService struct {
	rateRepo    repository.CurrencyRateRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCurrencyService creates a new instance of CurrencyService
func NewCurrencyService(
	rateRepo repository.CurrencyRateRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) CurrencyService {
	return &currencyService{
		rateRepo:    rateRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// UpdateRate stores the new rate and then walks every product listed in that
// currency, rewriting its cached settlement price to price_original * rate.
// The walk is deliberately non-transactional and best-effort: the cache is a
// display optimization, and checkout always recomputes from the live rate. A
// row failure is logged and skipped rather than aborting the batch.
func (s *currencyService) UpdateRate(ctx context.Context, code domain.Currency, rate decimal.Decimal) (int, error) {
	switch code {
	case domain.CurrencyUSD, domain.CurrencyEUR:
	case domain.SettlementCurrency:
		return 0, ErrSettlementUpdate
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
	}

	if !rate.IsPositive() {
		return 0, ErrInvalidRate
	}

	if err := s.rateRepo.Upsert(ctx, code, rate); err != nil {
		return 0, fmt.Errorf("failed to store rate: %w", err)
	}

	products, err := s.productRepo.FindByCurrency(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("failed to list products for recompute: %w", err)
	}

	recomputed := 0
	for _, product := range products {
		newPrice := product.PriceOriginal.Mul(rate)
		if err := s.productRepo.UpdateCachedPrice(ctx, product.ID, newPrice); err != nil {
			s.logger.Warn("Failed to recompute cached price",
				zap.String("product_id", product.ID.String()),
				zap.Error(err),
			)
			continue
		}
		recomputed++
	}

	s.logger.Info("Currency rate updated",
		zap.String("currency", string(code)),
		zap.String("rate", rate.String()),
		zap.Int("products_recomputed", recomputed),
	)

	return recomputed, nil
}

// Rates returns the full rate table for the admin screen.
func (s *currencyService) Rates(ctx context.Context) ([]*domain.CurrencyRate, error) {
	rates, err := s.rateRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	return rates, nil
}
