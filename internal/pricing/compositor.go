package pricing

import (
	"klimapart/internal/domain"

	"github.com/shopspring/decimal"
)

// Rule names the discount mechanism that produced the final unit price.
type Rule string

const (
	RuleList     Rule = "LIST"
	RuleB2B      Rule = "B2B"
	RuleCampaign Rule = "CAMPAIGN"
)

// Quote is a fully resolved unit price plus the machine-readable explanation
// of which rule won.
type Quote struct {
	ProductID string          `json:"product_id"`
	Base      decimal.Decimal `json:"base_price"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Rule      Rule            `json:"rule"`
	// CampaignName and TierMinQuantity are set only when Rule is CAMPAIGN.
	CampaignName    string          `json:"campaign_name,omitempty"`
	TierMinQuantity int             `json:"tier_min_quantity,omitempty"`
	Savings         decimal.Decimal `json:"savings"`
}

// Compose combines the plain settlement price, the wholesale cascade and the
// campaign resolution into one authoritative unit price. Campaigns are always
// evaluated against the plain settlement price, never against the wholesale
// price; the cheaper of the two results wins for a wholesale buyer, and
// discounts are never stacked.
func Compose(product *domain.Product, base decimal.Decimal, quantity int, isWholesale bool, discounts []*domain.B2BDiscount, campaigns []*domain.Campaign) Quote {
	quote := Quote{
		ProductID: product.ID.String(),
		Base:      base,
		UnitPrice: base,
		Rule:      RuleList,
		Savings:   decimal.Zero,
	}

	campaignResult := BestPrice(base, quantity, campaigns)
	if campaignResult.Applied() {
		quote.UnitPrice = campaignResult.Price
		quote.Rule = RuleCampaign
		quote.CampaignName = campaignResult.Campaign.Name
		quote.TierMinQuantity = campaignResult.Tier.MinQuantity
	}

	if isWholesale {
		b2bPrice := ResolveB2B(product, base, discounts)
		if b2bPrice.LessThan(quote.UnitPrice) {
			quote.UnitPrice = b2bPrice
			quote.Rule = RuleB2B
			quote.CampaignName = ""
			quote.TierMinQuantity = 0
		}
	}

	quote.Savings = base.Sub(quote.UnitPrice)
	return quote
}
