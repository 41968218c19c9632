package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountScope is the axis a B2B discount applies along.
type DiscountScope string

const (
	DiscountScopeGeneral  DiscountScope = "GENERAL"
	DiscountScopeBrand    DiscountScope = "BRAND"
	DiscountScopeCategory DiscountScope = "CATEGORY"
)

// B2BDiscount is a wholesale discount rule. At most one row exists per scope
// key: a single GENERAL row, one row per brand, one row per category (enforced
// by partial unique indexes).
type B2BDiscount struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Scope      DiscountScope   `json:"scope" db:"scope"`
	BrandID    *uuid.UUID      `json:"brand_id,omitempty" db:"brand_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty" db:"category_id"`
	Percent    decimal.Decimal `json:"percent" db:"percent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// PromoType determines how a campaign tier's value is interpreted.
type PromoType string

const (
	PromoTypePercentage PromoType = "PERCENTAGE"
	PromoTypeFixedPrice PromoType = "FIXED_PRICE"
)

// CampaignScope is the axis a promotional campaign applies along.
type CampaignScope string

const (
	CampaignScopeProduct  CampaignScope = "PRODUCT"
	CampaignScopeBrand    CampaignScope = "BRAND"
	CampaignScopeCategory CampaignScope = "CATEGORY"
)

// CampaignStatus is computed from the active flag and the time window at read
// time; it is never persisted.
type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusInactive CampaignStatus = "inactive"
	CampaignStatusExpired  CampaignStatus = "expired"
)

// Campaign is a quantity-tiered promotion. Exactly one of ProductID, BrandID,
// CategoryID is set, matching Scope.
type Campaign struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	PromoType  PromoType      `json:"promo_type" db:"promo_type"`
	Scope      CampaignScope  `json:"scope" db:"scope"`
	ProductID  *uuid.UUID     `json:"product_id,omitempty" db:"product_id"`
	BrandID    *uuid.UUID     `json:"brand_id,omitempty" db:"brand_id"`
	CategoryID *uuid.UUID     `json:"category_id,omitempty" db:"category_id"`
	StartsAt   time.Time      `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time      `json:"ends_at" db:"ends_at"`
	IsActive   bool           `json:"is_active" db:"is_active"`
	Tiers      []CampaignTier `json:"tiers"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// CampaignTier is one step of a campaign's discount function: at MinQuantity
// units and above, Value applies (a percentage for PERCENTAGE campaigns, an
// absolute unit price for FIXED_PRICE ones). MinQuantity is unique within a
// campaign.
type CampaignTier struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CampaignID  uuid.UUID       `json:"campaign_id" db:"campaign_id"`
	MinQuantity int             `json:"min_quantity" db:"min_quantity"`
	Value       decimal.Decimal `json:"value" db:"value"`
}

// Status computes the campaign's effective status at the given instant. The
// window is inclusive on both ends.
func (c *Campaign) Status(now time.Time) CampaignStatus {
	if !c.IsActive {
		return CampaignStatusInactive
	}
	if now.Before(c.StartsAt) {
		return CampaignStatusInactive
	}
	if now.After(c.EndsAt) {
		return CampaignStatusExpired
	}
	return CampaignStatusActive
}

// AppliesTo reports whether the campaign's scope covers the product.
func (c *Campaign) AppliesTo(p *Product) bool {
	switch c.Scope {
	case CampaignScopeProduct:
		return c.ProductID != nil && *c.ProductID == p.ID
	case CampaignScopeBrand:
		return c.BrandID != nil && *c.BrandID == p.BrandID
	case CampaignScopeCategory:
		return c.CategoryID != nil && *c.CategoryID == p.CategoryID
	}
	return false
}
