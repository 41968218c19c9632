package pricing

import (
	"sort"
	"time"

	"klimapart/internal/domain"

	"github.com/shopspring/decimal"
)

// CampaignResult is the outcome of campaign resolution for one line. When no
// campaign beats the base price, Campaign and Tier are nil and Price equals
// the base.
type CampaignResult struct {
	Price    decimal.Decimal
	Campaign *domain.Campaign
	Tier     *domain.CampaignTier
	Savings  decimal.Decimal
}

// Applied reports whether a campaign actually lowered the price.
func (r CampaignResult) Applied() bool {
	return r.Campaign != nil
}

// ActiveCampaignsFor filters campaigns down to those whose scope covers the
// product and whose computed status is active right now.
func ActiveCampaignsFor(product *domain.Product, campaigns []*domain.Campaign, now time.Time) []*domain.Campaign {
	active := []*domain.Campaign{}
	for _, campaign := range campaigns {
		if campaign.Status(now) != domain.CampaignStatusActive {
			continue
		}
		if !campaign.AppliesTo(product) {
			continue
		}
		active = append(active, campaign)
	}
	return active
}

// MatchTier picks the tier applying to the requested quantity: tiers are
// "at least" thresholds, and the highest qualifying one wins. Quantity 60
// against tiers at 10 and 50 matches the 50 tier, not the 10 one. Returns
// nil when no tier qualifies.
func MatchTier(tiers []domain.CampaignTier, quantity int) *domain.CampaignTier {
	sorted := make([]domain.CampaignTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})

	for i := range sorted {
		if sorted[i].MinQuantity <= quantity {
			return &sorted[i]
		}
	}

	return nil
}

// TierUnitPrice computes the unit price a tier yields against the base
// price: a percentage off for PERCENTAGE campaigns, the tier value verbatim
// for FIXED_PRICE ones.
func TierUnitPrice(promoType domain.PromoType, base decimal.Decimal, tier *domain.CampaignTier) decimal.Decimal {
	if promoType == domain.PromoTypeFixedPrice {
		return tier.Value
	}
	return applyPercent(base, tier.Value)
}

// BestPrice resolves the single cheapest campaign price among the candidate
// campaigns at the given quantity. Campaigns with no qualifying tier are
// skipped; simultaneously active campaigns compete and are never combined. A
// campaign only wins by being strictly cheaper than the base price.
func BestPrice(base decimal.Decimal, quantity int, campaigns []*domain.Campaign) CampaignResult {
	result := CampaignResult{Price: base, Savings: decimal.Zero}

	for _, campaign := range campaigns {
		tier := MatchTier(campaign.Tiers, quantity)
		if tier == nil {
			continue
		}

		price := TierUnitPrice(campaign.PromoType, base, tier)
		if price.IsNegative() {
			continue
		}

		if price.LessThan(result.Price) {
			result.Price = price
			result.Campaign = campaign
			result.Tier = tier
		}
	}

	if result.Applied() {
		result.Savings = base.Sub(result.Price)
	}

	return result
}
