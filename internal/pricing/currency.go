// Package pricing implements the price resolution core: currency
// normalization, the wholesale discount cascade, quantity-tiered campaign
// resolution and the final compositing of the three into one authoritative
// unit price. Everything here is pure computation over catalog data; the
// service layer feeds it repository reads.
package pricing

import (
	"errors"
	"fmt"

	"klimapart/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoRate means the rate table has no row for a product's list
	// currency. On the checkout path this is a configuration error and must
	// not be papered over with a fallback.
	ErrNoRate = errors.New("no rate configured for currency")
)

// RateTable maps a currency code to its settlement rate (units of settlement
// currency per one unit of the foreign currency).
type RateTable map[domain.Currency]decimal.Decimal

// RatesFrom builds a RateTable from repository rows.
func RatesFrom(rows []*domain.CurrencyRate) RateTable {
	table := make(RateTable, len(rows))
	for _, row := range rows {
		table[row.Code] = row.Rate
	}
	return table
}

// Convert normalizes an amount from its source currency into the settlement
// currency. Amounts already in the settlement currency pass through
// unchanged; a missing rate fails loudly.
func Convert(amount decimal.Decimal, currency domain.Currency, rates RateTable) (decimal.Decimal, error) {
	if currency == domain.SettlementCurrency {
		return amount, nil
	}

	rate, ok := rates[currency]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoRate, currency)
	}

	return amount.Mul(rate), nil
}

// ConvertOrFallback converts with a tolerant fallback table for the
// storefront display path. Never used for settlement.
func ConvertOrFallback(amount decimal.Decimal, currency domain.Currency, rates, fallback RateTable) decimal.Decimal {
	converted, err := Convert(amount, currency, rates)
	if err == nil {
		return converted
	}

	if rate, ok := fallback[currency]; ok && rate.IsPositive() {
		return amount.Mul(rate)
	}

	// Nothing usable; surface the raw amount rather than hiding the product.
	return amount
}
