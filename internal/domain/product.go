package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is the ISO code a product's list price is expressed in.
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// SettlementCurrency is the single currency all orders are charged in.
const SettlementCurrency = CurrencyTRY

// Product represents a catalog product. Catalog CRUD lives outside this
// service; products are read-only here.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	PriceOriginal decimal.Decimal `json:"price_original" db:"price_original"`
	PriceCurrency Currency        `json:"price_currency" db:"price_currency"`
	// PriceTRY is the cached settlement-currency price, refreshed by the bulk
	// recompute on rate changes. Display only; checkout never trusts it.
	PriceTRY   decimal.Decimal  `json:"price_try" db:"price_try"`
	B2BPrice   *decimal.Decimal `json:"b2b_price,omitempty" db:"b2b_price"`
	BrandID    uuid.UUID        `json:"brand_id" db:"brand_id"`
	CategoryID uuid.UUID        `json:"category_id" db:"category_id"`
	Stock      int              `json:"stock" db:"stock"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// Brand represents a product brand
type Brand struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CurrencyRate is one row of the administrator-maintained rate table: units of
// settlement currency per one unit of the foreign currency. Rows are created
// once per code and only ever updated, never deleted.
type CurrencyRate struct {
	Code      Currency        `json:"code" db:"code"`
	Rate      decimal.Decimal `json:"rate" db:"rate"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
