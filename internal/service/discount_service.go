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
	ErrInvalidPercent = errors.New("discount percent must be between 0 and 100")
	ErrDuplicateScope = errors.New("duplicate discount scope key")
)

// ScopedPercent is one brand- or category-scoped entry of the submitted
// discount configuration.
type ScopedPercent struct {
	RefID   uuid.UUID
	Percent decimal.Decimal
}

// DiscountConfig is the full wholesale discount configuration the admin
// screen submits; saving replaces whatever was configured before.
type DiscountConfig struct {
	GeneralPercent *decimal.Decimal
	Brands         []ScopedPercent
	Categories     []ScopedPercent
}

// DiscountService manages the wholesale discount set.
type DiscountService interface {
	List(ctx context.Context) ([]*domain.B2BDiscount, error)
	ReplaceAll(ctx context.Context, cfg DiscountConfig) error
}

type discountService struct {
	discountRepo repository.B2BDiscountRepository
	logger       *zap.Logger
}

// NewDiscountService creates a new instance of DiscountService
func NewDiscountService(discountRepo repository.B2BDiscountRepository, logger *zap.Logger) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		logger:       logger,
	}
}

// List returns the current discount set.
func (s *discountService) List(ctx context.Context) ([]*domain.B2BDiscount, error) {
	discounts, err := s.discountRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load discounts: %w", err)
	}
	return discounts, nil
}

// ReplaceAll validates the submitted configuration and swaps the full
// discount set in one transaction.
func (s *discountService) ReplaceAll(ctx context.Context, cfg DiscountConfig) error {
	rows, err := buildDiscountRows(cfg)
	if err != nil {
		return err
	}

	if err := s.discountRepo.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("failed to replace discounts: %w", err)
	}

	s.logger.Info("B2B discount configuration replaced", zap.Int("rows", len(rows)))
	return nil
}

func buildDiscountRows(cfg DiscountConfig) ([]*domain.B2BDiscount, error) {
	now := time.Now()
	rows := []*domain.B2BDiscount{}

	if cfg.GeneralPercent != nil {
		if err := checkPercent(*cfg.GeneralPercent); err != nil {
			return nil, err
		}
		rows = append(rows, &domain.B2BDiscount{
			ID:        uuid.New(),
			Scope:     domain.DiscountScopeGeneral,
			Percent:   *cfg.GeneralPercent,
			CreatedAt: now,
		})
	}

	seenBrands := map[uuid.UUID]bool{}
	for _, entry := range cfg.Brands {
		if err := checkPercent(entry.Percent); err != nil {
			return nil, err
		}
		if seenBrands[entry.RefID] {
			return nil, fmt.Errorf("%w: brand %s", ErrDuplicateScope, entry.RefID)
		}
		seenBrands[entry.RefID] = true
		brandID := entry.RefID
		rows = append(rows, &domain.B2BDiscount{
			ID:        uuid.New(),
			Scope:     domain.DiscountScopeBrand,
			BrandID:   &brandID,
			Percent:   entry.Percent,
			CreatedAt: now,
		})
	}

	seenCategories := map[uuid.UUID]bool{}
	for _, entry := range cfg.Categories {
		if err := checkPercent(entry.Percent); err != nil {
			return nil, err
		}
		if seenCategories[entry.RefID] {
			return nil, fmt.Errorf("%w: category %s", ErrDuplicateScope, entry.RefID)
		}
		seenCategories[entry.RefID] = true
		categoryID := entry.RefID
		rows = append(rows, &domain.B2BDiscount{
			ID:         uuid.New(),
			Scope:      domain.DiscountScopeCategory,
			CategoryID: &categoryID,
			Percent:    entry.Percent,
			CreatedAt:  now,
		})
	}

	return rows, nil
}

func checkPercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercent
	}
	return nil
}
