package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"klimapart/internal/domain"
	"klimapart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockCurrencyRateRepository struct {
	rates map[domain.Currency]*domain.CurrencyRate
}

func newMockCurrencyRateRepository() *mockCurrencyRateRepository {
	return &mockCurrencyRateRepository{rates: make(map[domain.Currency]*domain.CurrencyRate)}
}

func (m *mockCurrencyRateRepository) Upsert(ctx context.Context, code domain.Currency, rate decimal.Decimal) error {
	m.rates[code] = &domain.CurrencyRate{Code: code, Rate: rate, UpdatedAt: time.Now()}
	return nil
}

func (m *mockCurrencyRateRepository) FindByCode(ctx context.Context, code domain.Currency) (*domain.CurrencyRate, error) {
	rate, exists := m.rates[code]
	if !exists {
		return nil, repository.ErrRateNotFound
	}
	return rate, nil
}

func (m *mockCurrencyRateRepository) All(ctx context.Context) ([]*domain.CurrencyRate, error) {
	out := make([]*domain.CurrencyRate, 0, len(m.rates))
	for _, rate := range m.rates {
		out = append(out, rate)
	}
	return out, nil
}

type mockProductRepository struct {
	products        map[uuid.UUID]*domain.Product
	failUpdateFor   uuid.UUID
	cachedPriceHits int
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, id := range ids {
		if product, exists := m.products[id]; exists {
			out = append(out, product)
		}
	}
	return out, nil
}

func (m *mockProductRepository) FindByCurrency(ctx context.Context, currency domain.Currency) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, product := range m.products {
		if product.PriceCurrency == currency {
			out = append(out, product)
		}
	}
	return out, nil
}

func (m *mockProductRepository) UpdateCachedPrice(ctx context.Context, id uuid.UUID, priceTRY decimal.Decimal) error {
	if id == m.failUpdateFor {
		return errors.New("row locked")
	}
	product, exists := m.products[id]
	if !exists {
		return repository.ErrProductNotFound
	}
	m.cachedPriceHits++
	product.PriceTRY = priceTRY
	return nil
}

func (m *mockProductRepository) addProduct(currency domain.Currency, priceOriginal decimal.Decimal) *domain.Product {
	product := &domain.Product{
		ID:            uuid.New(),
		PriceOriginal: priceOriginal,
		PriceCurrency: currency,
	}
	m.products[product.ID] = product
	return product
}

func TestUpdateRate_RecomputesCachedPrices(t *testing.T) {
	rateRepo := newMockCurrencyRateRepository()
	productRepo := newMockProductRepository()
	svc := NewCurrencyService(rateRepo, productRepo, zap.NewNop())

	usd1 := productRepo.addProduct(domain.CurrencyUSD, decimal.NewFromInt(100))
	usd2 := productRepo.addProduct(domain.CurrencyUSD, decimal.NewFromFloat(49.99))
	try := productRepo.addProduct(domain.CurrencyTRY, decimal.NewFromInt(500))
	eur := productRepo.addProduct(domain.CurrencyEUR, decimal.NewFromInt(80))

	recomputed, err := svc.UpdateRate(context.Background(), domain.CurrencyUSD, decimal.NewFromInt(32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recomputed != 2 {
		t.Errorf("expected 2 recomputed products, got %d", recomputed)
	}

	if !usd1.PriceTRY.Equal(decimal.NewFromInt(3200)) {
		t.Errorf("expected 3200, got %s", usd1.PriceTRY)
	}
	if !usd2.PriceTRY.Equal(decimal.NewFromFloat(1599.68)) {
		t.Errorf("expected 1599.68, got %s", usd2.PriceTRY)
	}
	if !try.PriceTRY.IsZero() || !eur.PriceTRY.IsZero() {
		t.Error("products in other currencies must not be touched")
	}

	stored, err := rateRepo.FindByCode(context.Background(), domain.CurrencyUSD)
	if err != nil || !stored.Rate.Equal(decimal.NewFromInt(32)) {
		t.Errorf("rate was not stored, got %v / %v", stored, err)
	}
}

func TestUpdateRate_RowFailureSkippedNotFatal(t *testing.T) {
	rateRepo := newMockCurrencyRateRepository()
	productRepo := newMockProductRepository()
	svc := NewCurrencyService(rateRepo, productRepo, zap.NewNop())

	ok := productRepo.addProduct(domain.CurrencyUSD, decimal.NewFromInt(10))
	broken := productRepo.addProduct(domain.CurrencyUSD, decimal.NewFromInt(20))
	productRepo.failUpdateFor = broken.ID

	recomputed, err := svc.UpdateRate(context.Background(), domain.CurrencyUSD, decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("a single row failure must not abort the batch: %v", err)
	}
	if recomputed != 1 {
		t.Errorf("expected 1 recomputed product, got %d", recomputed)
	}
	if !ok.PriceTRY.Equal(decimal.NewFromInt(300)) {
		t.Errorf("surviving row not recomputed, got %s", ok.PriceTRY)
	}
}

func TestUpdateRate_Validation(t *testing.T) {
	rateRepo := newMockCurrencyRateRepository()
	productRepo := newMockProductRepository()
	svc := NewCurrencyService(rateRepo, productRepo, zap.NewNop())

	tests := []struct {
		name    string
		code    domain.Currency
		rate    decimal.Decimal
		wantErr error
	}{
		{"settlement currency has no rate", domain.CurrencyTRY, decimal.NewFromInt(1), ErrSettlementUpdate},
		{"unknown currency", domain.Currency("GBP"), decimal.NewFromInt(40), ErrInvalidCurrency},
		{"zero rate", domain.CurrencyUSD, decimal.Zero, ErrInvalidRate},
		{"negative rate", domain.CurrencyEUR, decimal.NewFromInt(-5), ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateRate(context.Background(), tt.code, tt.rate)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if len(rateRepo.rates) != 0 {
		t.Errorf("invalid updates must never be stored, got %d", len(rateRepo.rates))
	}
}
