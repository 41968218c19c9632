package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"klimapart/internal/domain"
	"klimapart/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func pricingFixture() (PricingService, *mockProductRepository, *mockCurrencyRateRepository, *mockB2BDiscountRepository, *mockCampaignRepository) {
	productRepo := newMockProductRepository()
	rateRepo := newMockCurrencyRateRepository()
	discountRepo := &mockB2BDiscountRepository{}
	campaignRepo := newMockCampaignRepository()

	fallback := pricing.RateTable{
		domain.CurrencyUSD: decimal.NewFromInt(30),
		domain.CurrencyEUR: decimal.NewFromInt(33),
	}

	svc := NewPricingService(productRepo, rateRepo, discountRepo, campaignRepo, fallback, zap.NewNop())
	return svc, productRepo, rateRepo, discountRepo, campaignRepo
}

func TestQuoteCart_UsesLiveRateOverFallback(t *testing.T) {
	svc, productRepo, rateRepo, _, _ := pricingFixture()

	product := productRepo.addProduct(domain.CurrencyUSD, decimal.NewFromInt(100))
	rateRepo.Upsert(context.Background(), domain.CurrencyUSD, decimal.NewFromInt(32))

	quotes, err := svc.QuoteCart(context.Background(), []CartLine{{ProductID: product.ID, Quantity: 1}}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	if !quotes[0].UnitPrice.Equal(decimal.NewFromInt(3200)) {
		t.Errorf("expected 3200 from the live rate, got %s", quotes[0].UnitPrice)
	}
	if quotes[0].Rule != pricing.RuleList {
		t.Errorf("expected rule LIST, got %s", quotes[0].Rule)
	}
}

func TestQuoteCart_FallsBackWhenRateMissing(t *testing.T) {
	svc, productRepo, _, _, _ := pricingFixture()

	product := productRepo.addProduct(domain.CurrencyUSD, decimal.NewFromInt(100))

	quotes, err := svc.QuoteCart(context.Background(), []CartLine{{ProductID: product.ID, Quantity: 1}}, false)
	if err != nil {
		t.Fatalf("display quoting must tolerate a missing rate: %v", err)
	}
	if !quotes[0].UnitPrice.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected 3000 from the fallback table, got %s", quotes[0].UnitPrice)
	}
}

func TestQuoteCart_UnknownProduct(t *testing.T) {
	svc, _, _, _, _ := pricingFixture()

	_, err := svc.QuoteCart(context.Background(), []CartLine{{ProductID: uuid.New(), Quantity: 1}}, false)
	if !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestQuoteCart_WholesaleAppliesCascade(t *testing.T) {
	svc, productRepo, rateRepo, discountRepo, _ := pricingFixture()

	product := productRepo.addProduct(domain.CurrencyTRY, decimal.NewFromInt(1000))
	rateRepo.Upsert(context.Background(), domain.CurrencyUSD, decimal.NewFromInt(32))

	brandID := product.BrandID
	discountRepo.rows = []*domain.B2BDiscount{
		{ID: uuid.New(), Scope: domain.DiscountScopeGeneral, Percent: decimal.NewFromInt(10)},
		{ID: uuid.New(), Scope: domain.DiscountScopeBrand, BrandID: &brandID, Percent: decimal.NewFromInt(20)},
	}

	retail, err := svc.QuoteCart(context.Background(), []CartLine{{ProductID: product.ID, Quantity: 1}}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wholesale, err := svc.QuoteCart(context.Background(), []CartLine{{ProductID: product.ID, Quantity: 1}}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !retail[0].UnitPrice.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("retail buyer must get the list price, got %s", retail[0].UnitPrice)
	}
	if !wholesale[0].UnitPrice.Equal(decimal.NewFromInt(800)) {
		t.Errorf("expected brand discount price 800, got %s", wholesale[0].UnitPrice)
	}
	if wholesale[0].Rule != pricing.RuleB2B {
		t.Errorf("expected rule B2B, got %s", wholesale[0].Rule)
	}
}

func TestQuoteB2B_BatchPrices(t *testing.T) {
	svc, productRepo, _, discountRepo, _ := pricingFixture()

	a := productRepo.addProduct(domain.CurrencyTRY, decimal.NewFromInt(1000))
	b := productRepo.addProduct(domain.CurrencyTRY, decimal.NewFromInt(200))
	discountRepo.rows = []*domain.B2BDiscount{
		{ID: uuid.New(), Scope: domain.DiscountScopeGeneral, Percent: decimal.NewFromInt(10)},
	}

	prices, err := svc.QuoteB2B(context.Background(), []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !prices[a.ID].Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected 900, got %s", prices[a.ID])
	}
	if !prices[b.ID].Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected 180, got %s", prices[b.ID])
	}
}

func TestAuthoritativeUnitPrice_StrictOnMissingRate(t *testing.T) {
	svc, productRepo, _, _, _ := pricingFixture()

	product := productRepo.addProduct(domain.CurrencyEUR, decimal.NewFromInt(100))

	_, _, err := svc.AuthoritativeUnitPrice(context.Background(), product.ID, 1, false)
	if !errors.Is(err, pricing.ErrNoRate) {
		t.Errorf("the settlement path must fail loud on a missing rate, got %v", err)
	}
}

func TestAuthoritativeUnitPrice_AppliesActiveCampaign(t *testing.T) {
	svc, productRepo, _, _, campaignRepo := pricingFixture()

	product := productRepo.addProduct(domain.CurrencyTRY, decimal.NewFromInt(1000))

	productID := product.ID
	campaignRepo.campaigns[uuid.New()] = &domain.Campaign{
		ID:        uuid.New(),
		Name:      "bulk",
		PromoType: domain.PromoTypePercentage,
		Scope:     domain.CampaignScopeProduct,
		ProductID: &productID,
		StartsAt:  time.Now().Add(-time.Hour),
		EndsAt:    time.Now().Add(time.Hour),
		IsActive:  true,
		Tiers: []domain.CampaignTier{
			{MinQuantity: 10, Value: decimal.NewFromInt(5)},
			{MinQuantity: 50, Value: decimal.NewFromInt(15)},
		},
	}

	quote, got, err := svc.AuthoritativeUnitPrice(context.Background(), product.ID, 60, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != product.ID {
		t.Errorf("expected the catalog product to be returned")
	}
	if !quote.UnitPrice.Equal(decimal.NewFromInt(850)) {
		t.Errorf("expected 850 at the 50 tier, got %s", quote.UnitPrice)
	}
	if quote.Rule != pricing.RuleCampaign || quote.TierMinQuantity != 50 {
		t.Errorf("expected CAMPAIGN attribution at tier 50, got %s/%d", quote.Rule, quote.TierMinQuantity)
	}
}
