package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"klimapart/internal/domain"
	"klimapart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidCampaignScope = errors.New("campaign scope reference does not match scope type")
	ErrInvalidWindow        = errors.New("campaign window ends before it starts")
	ErrNoTiers              = errors.New("campaign needs at least one tier")
	ErrDuplicateTier        = errors.New("duplicate tier minimum quantity")
	ErrInvalidTierValue     = errors.New("invalid tier value")
)

// CampaignService manages promotional campaigns and their tiers (admin side).
type CampaignService interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	Update(ctx context.Context, campaign *domain.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context) ([]*domain.Campaign, error)
}

type campaignService struct {
	campaignRepo repository.CampaignRepository
	logger       *zap.Logger
}

// NewCampaignService creates a new instance of CampaignService
func NewCampaignService(campaignRepo repository.CampaignRepository, logger *zap.Logger) CampaignService {
	return &campaignService{
		campaignRepo: campaignRepo,
		logger:       logger,
	}
}

// Create validates and persists a campaign with its tiers.
func (s *campaignService) Create(ctx context.Context, campaign *domain.Campaign) error {
	if err := validateCampaign(campaign); err != nil {
		return err
	}

	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	s.logger.Info("Campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("name", campaign.Name),
	)
	return nil
}

// Update validates and rewrites a campaign together with its tier set.
func (s *campaignService) Update(ctx context.Context, campaign *domain.Campaign) error {
	if err := validateCampaign(campaign); err != nil {
		return err
	}

	campaign.UpdatedAt = time.Now()

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return err
	}

	s.logger.Info("Campaign updated", zap.String("campaign_id", campaign.ID.String()))
	return nil
}

// Delete removes a campaign.
func (s *campaignService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Campaign deleted", zap.String("campaign_id", id.String()))
	return nil
}

// Get retrieves a single campaign.
func (s *campaignService) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return s.campaignRepo.FindByID(ctx, id)
}

// List retrieves all campaigns.
func (s *campaignService) List(ctx context.Context) ([]*domain.Campaign, error) {
	return s.campaignRepo.List(ctx)
}

func validateCampaign(campaign *domain.Campaign) error {
	switch campaign.Scope {
	case domain.CampaignScopeProduct:
		if campaign.ProductID == nil || campaign.BrandID != nil || campaign.CategoryID != nil {
			return ErrInvalidCampaignScope
		}
	case domain.CampaignScopeBrand:
		if campaign.BrandID == nil || campaign.ProductID != nil || campaign.CategoryID != nil {
			return ErrInvalidCampaignScope
		}
	case domain.CampaignScopeCategory:
		if campaign.CategoryID == nil || campaign.ProductID != nil || campaign.BrandID != nil {
			return ErrInvalidCampaignScope
		}
	default:
		return ErrInvalidCampaignScope
	}

	if campaign.EndsAt.Before(campaign.StartsAt) {
		return ErrInvalidWindow
	}

	if len(campaign.Tiers) == 0 {
		return ErrNoTiers
	}

	seen := map[int]bool{}
	for _, tier := range campaign.Tiers {
		if tier.MinQuantity <= 0 {
			return fmt.Errorf("%w: minimum quantity must be positive", ErrInvalidTierValue)
		}
		if seen[tier.MinQuantity] {
			return fmt.Errorf("%w: %d", ErrDuplicateTier, tier.MinQuantity)
		}
		seen[tier.MinQuantity] = true

		if tier.Value.IsNegative() {
			return ErrInvalidTierValue
		}
		if campaign.PromoType == domain.PromoTypePercentage && tier.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percentage above 100", ErrInvalidTierValue)
		}
	}

	return nil
}
