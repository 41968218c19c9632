package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"klimapart/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrRateNotFound = errors.New("currency rate not found")
)

// CurrencyRateRepository defines access to the administrator-maintained rate
// table. Rows are upserted, never deleted.
type CurrencyRateRepository interface {
	Upsert(ctx context.Context, code domain.Currency, rate decimal.Decimal) error
	FindByCode(ctx context.Context, code domain.Currency) (*domain.CurrencyRate, error)
	All(ctx context.Context) ([]*domain.CurrencyRate, error)
}

type currencyRateRepository struct {
	db *sql.DB
}

// NewCurrencyRateRepository creates a new instance of CurrencyRateRepository
func NewCurrencyRateRepository(db *sql.DB) CurrencyRateRepository {
	return &currencyRateRepository{db: db}
}

// Upsert creates or replaces the rate row for a currency code.
func (r *currencyRateRepository) Upsert(ctx context.Context, code domain.Currency, rate decimal.Decimal) error {
	query := `
		INSERT INTO currency_rates (code, rate, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, code, rate, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert currency rate: %w", err)
	}

	return nil
}

// FindByCode retrieves the rate row for a currency code.
func (r *currencyRateRepository) FindByCode(ctx context.Context, code domain.Currency) (*domain.CurrencyRate, error) {
	query := `SELECT code, rate, updated_at FROM currency_rates WHERE code = $1`

	rate := &domain.CurrencyRate{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&rate.Code, &rate.Rate, &rate.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRateNotFound
		}
		return nil, fmt.Errorf("failed to find currency rate: %w", err)
	}

	return rate, nil
}

// All retrieves the complete rate table.
func (r *currencyRateRepository) All(ctx context.Context) ([]*domain.CurrencyRate, error) {
	query := `SELECT code, rate, updated_at FROM currency_rates ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list currency rates: %w", err)
	}
	defer rows.Close()

	rates := []*domain.CurrencyRate{}
	for rows.Next() {
		rate := &domain.CurrencyRate{}
		if err := rows.Scan(&rate.Code, &rate.Rate, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan currency rate: %w", err)
		}
		rates = append(rates, rate)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rates: %w", err)
	}

	return rates, nil
}
