package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"klimapart/internal/domain"
	"klimapart/internal/pricing"
	"klimapart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrUnknownProduct = errors.New("unknown product")
)

// CartLine is one requested line of a quote or checkout.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// PricingService resolves unit prices. The Quote* methods serve the
// storefront read path and tolerate a missing rate row via the configured
// fallback table; AuthoritativeUnitPrice serves checkout and is strict.
type PricingService interface {
	QuoteCart(ctx context.Context, lines []CartLine, isWholesale bool) ([]pricing.Quote, error)
	QuoteB2B(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	AuthoritativeUnitPrice(ctx context.Context, productID uuid.UUID, quantity int, isWholesale bool) (pricing.Quote, *domain.Product, error)
}

type pricingService struct {
	productRepo  repository.ProductRepository
	rateRepo     repository.CurrencyRateRepository
	discountRepo repository.B2BDiscountRepository
	campaignRepo repository.CampaignRepository
	fallback     pricing.RateTable
	logger       *zap.Logger
}

// NewPricingService creates a new instance of PricingService
func NewPricingService(
	productRepo repository.ProductRepository,
	rateRepo repository.CurrencyRateRepository,
	discountRepo repository.B2BDiscountRepository,
	campaignRepo repository.CampaignRepository,
	fallback pricing.RateTable,
	logger *zap.Logger,
) PricingService {
	return &pricingService{
		productRepo:  productRepo,
		rateRepo:     rateRepo,
		discountRepo: discountRepo,
		campaignRepo: campaignRepo,
		fallback:     fallback,
		logger:       logger,
	}
}

// QuoteCart resolves display prices for a batch of cart lines. Prices
// returned here are advisory; checkout recomputes them authoritatively.
func (s *pricingService) QuoteCart(ctx context.Context, lines []CartLine, isWholesale bool) ([]pricing.Quote, error) {
	rates, discounts, err := s.loadPricingData(ctx, isWholesale)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quotes := make([]pricing.Quote, 0, len(lines))

	for _, line := range lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}

		base := pricing.ConvertOrFallback(product.PriceOriginal, product.PriceCurrency, rates, s.fallback)

		campaigns, err := s.campaignRepo.FindApplicable(ctx, product, now)
		if err != nil {
			return nil, fmt.Errorf("failed to load campaigns: %w", err)
		}
		campaigns = pricing.ActiveCampaignsFor(product, campaigns, now)

		quotes = append(quotes, pricing.Compose(product, base, line.Quantity, isWholesale, discounts, campaigns))
	}

	return quotes, nil
}

// QuoteB2B resolves wholesale unit prices for a batch of product ids at
// quantity one (the wholesale cascade is quantity-independent).
func (s *pricingService) QuoteB2B(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rates, discounts, err := s.loadPricingData(ctx, true)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, product := range products {
		base := pricing.ConvertOrFallback(product.PriceOriginal, product.PriceCurrency, rates, s.fallback)
		prices[product.ID] = pricing.ResolveB2B(product, base, discounts)
	}

	return prices, nil
}

// AuthoritativeUnitPrice recomputes the unit price for one line from catalog
// state at this instant. Any client-submitted price is ignored by design; a
// missing rate row fails here instead of falling back, since a wrong
// fallback on the settlement path has financial consequences.
func (s *pricingService) AuthoritativeUnitPrice(ctx context.Context, productID uuid.UUID, quantity int, isWholesale bool) (pricing.Quote, *domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return pricing.Quote{}, nil, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
		}
		return pricing.Quote{}, nil, fmt.Errorf("failed to load product: %w", err)
	}

	rateRows, err := s.rateRepo.All(ctx)
	if err != nil {
		return pricing.Quote{}, nil, fmt.Errorf("failed to load rate table: %w", err)
	}

	base, err := pricing.Convert(product.PriceOriginal, product.PriceCurrency, pricing.RatesFrom(rateRows))
	if err != nil {
		// Configuration error; no fallback on the settlement path.
		return pricing.Quote{}, nil, err
	}

	discounts := []*domain.B2BDiscount{}
	if isWholesale {
		discounts, err = s.discountRepo.All(ctx)
		if err != nil {
			return pricing.Quote{}, nil, fmt.Errorf("failed to load b2b discounts: %w", err)
		}
	}

	now := time.Now()
	campaigns, err := s.campaignRepo.FindApplicable(ctx, product, now)
	if err != nil {
		return pricing.Quote{}, nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	campaigns = pricing.ActiveCampaignsFor(product, campaigns, now)

	return pricing.Compose(product, base, quantity, isWholesale, discounts, campaigns), product, nil
}

func (s *pricingService) loadPricingData(ctx context.Context, withDiscounts bool) (pricing.RateTable, []*domain.B2BDiscount, error) {
	rateRows, err := s.rateRepo.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rate table: %w", err)
	}

	discounts := []*domain.B2BDiscount{}
	if withDiscounts {
		discounts, err = s.discountRepo.All(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load b2b discounts: %w", err)
		}
	}

	return pricing.RatesFrom(rateRows), discounts, nil
}
