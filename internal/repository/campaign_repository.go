package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"klimapart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
)

// CampaignRepository defines access to promotional campaigns and their
// quantity tiers. Tiers are always loaded with their campaign.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	Update(ctx context.Context, campaign *domain.Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context) ([]*domain.Campaign, error)
	// FindApplicable returns campaigns whose scope covers the product and
	// whose window contains now with the active flag set. Effective status is
	// still recomputed by the caller; the query is a pre-filter.
	FindApplicable(ctx context.Context, product *domain.Product, now time.Time) ([]*domain.Campaign, error)
}

type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new instance of CampaignRepository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, promo_type, scope, product_id, brand_id, category_id, starts_at, ends_at, is_active, created_at, updated_at`

// Create inserts a campaign together with its tiers in one transaction.
func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO campaigns (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, campaignColumns)

	_, err = tx.ExecContext(
		ctx,
		query,
		campaign.ID,
		campaign.Name,
		campaign.PromoType,
		campaign.Scope,
		campaign.ProductID,
		campaign.BrandID,
		campaign.CategoryID,
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.IsActive,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	if err := insertTiers(ctx, tx, campaign); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign: %w", err)
	}

	return nil
}

// Update rewrites a campaign and replaces its tier set.
func (r *campaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE campaigns
		SET name = $2, promo_type = $3, scope = $4, product_id = $5, brand_id = $6,
		    category_id = $7, starts_at = $8, ends_at = $9, is_active = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		campaign.ID,
		campaign.Name,
		campaign.PromoType,
		campaign.Scope,
		campaign.ProductID,
		campaign.BrandID,
		campaign.CategoryID,
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.IsActive,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCampaignNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_tiers WHERE campaign_id = $1`, campaign.ID); err != nil {
		return fmt.Errorf("failed to clear campaign tiers: %w", err)
	}

	if err := insertTiers(ctx, tx, campaign); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign update: %w", err)
	}

	return nil
}

func insertTiers(ctx context.Context, tx *sql.Tx, campaign *domain.Campaign) error {
	query := `INSERT INTO campaign_tiers (id, campaign_id, min_quantity, value) VALUES ($1, $2, $3, $4)`

	for i := range campaign.Tiers {
		tier := &campaign.Tiers[i]
		if tier.ID == uuid.Nil {
			tier.ID = uuid.New()
		}
		tier.CampaignID = campaign.ID
		if _, err := tx.ExecContext(ctx, query, tier.ID, tier.CampaignID, tier.MinQuantity, tier.Value); err != nil {
			return fmt.Errorf("failed to insert campaign tier: %w", err)
		}
	}

	return nil
}

// Delete removes a campaign; tiers cascade.
func (r *campaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCampaignNotFound
	}

	return nil
}

// FindByID retrieves a campaign with its tiers.
func (r *campaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}

	if err := r.loadTiers(ctx, []*domain.Campaign{campaign}); err != nil {
		return nil, err
	}

	return campaign, nil
}

// List retrieves all campaigns with tiers, newest first.
func (r *campaignRepository) List(ctx context.Context) ([]*domain.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns ORDER BY created_at DESC`, campaignColumns)

	return r.queryCampaigns(ctx, query)
}

// FindApplicable pre-filters campaigns covering the product inside an active
// window.
func (r *campaignRepository) FindApplicable(ctx context.Context, product *domain.Product, now time.Time) ([]*domain.Campaign, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM campaigns
		WHERE is_active = TRUE
		  AND starts_at <= $4 AND ends_at >= $4
		  AND (
			(scope = 'PRODUCT' AND product_id = $1) OR
			(scope = 'BRAND' AND brand_id = $2) OR
			(scope = 'CATEGORY' AND category_id = $3)
		  )
	`, campaignColumns)

	return r.queryCampaigns(ctx, query, product.ID, product.BrandID, product.CategoryID, now)
}

func (r *campaignRepository) queryCampaigns(ctx context.Context, query string, args ...any) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*domain.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	if err := r.loadTiers(ctx, campaigns); err != nil {
		return nil, err
	}

	return campaigns, nil
}

func scanCampaign(row interface{ Scan(...any) error }) (*domain.Campaign, error) {
	campaign := &domain.Campaign{}
	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.PromoType,
		&campaign.Scope,
		&campaign.ProductID,
		&campaign.BrandID,
		&campaign.CategoryID,
		&campaign.StartsAt,
		&campaign.EndsAt,
		&campaign.IsActive,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepository) loadTiers(ctx context.Context, campaigns []*domain.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(campaigns))
	byID := make(map[uuid.UUID]*domain.Campaign, len(campaigns))
	for _, campaign := range campaigns {
		ids = append(ids, campaign.ID)
		byID[campaign.ID] = campaign
	}

	query := `
		SELECT id, campaign_id, min_quantity, value
		FROM campaign_tiers
		WHERE campaign_id = ANY($1)
		ORDER BY min_quantity
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load campaign tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tier := domain.CampaignTier{}
		if err := rows.Scan(&tier.ID, &tier.CampaignID, &tier.MinQuantity, &tier.Value); err != nil {
			return fmt.Errorf("failed to scan campaign tier: %w", err)
		}
		if campaign, ok := byID[tier.CampaignID]; ok {
			campaign.Tiers = append(campaign.Tiers, tier)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating campaign tiers: %w", err)
	}

	return nil
}
