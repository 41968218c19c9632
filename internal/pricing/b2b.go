package pricing

import (
	"klimapart/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ResolveB2B returns the wholesale unit price for an approved wholesale
// buyer. The cascade is a business rule and its order is contractual:
//
//  1. product-level negotiated override, returned verbatim
//  2. brand-scoped discount off the settlement price
//  3. category-scoped discount off the settlement price
//  4. general discount off the settlement price
//  5. no rule: the plain settlement price
//
// The first matching rule wins; rules are never combined. Discounts are
// scanned in slice order, so callers passing rows in creation order get
// deterministic resolution even if legacy duplicate scope rows exist.
func ResolveB2B(product *domain.Product, base decimal.Decimal, discounts []*domain.B2BDiscount) decimal.Decimal {
	if product.B2BPrice != nil && product.B2BPrice.IsPositive() {
		return *product.B2BPrice
	}

	for _, d := range discounts {
		if d.Scope == domain.DiscountScopeBrand && matchesRef(d.BrandID, product.BrandID) {
			return applyPercent(base, d.Percent)
		}
	}

	for _, d := range discounts {
		if d.Scope == domain.DiscountScopeCategory && matchesRef(d.CategoryID, product.CategoryID) {
			return applyPercent(base, d.Percent)
		}
	}

	for _, d := range discounts {
		if d.Scope == domain.DiscountScopeGeneral {
			return applyPercent(base, d.Percent)
		}
	}

	return base
}

func matchesRef(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}

func applyPercent(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(oneHundred.Sub(percent)).Div(oneHundred)
}
