package repository

import (
	"context"
	"database/sql"
	"fmt"

	"klimapart/internal/domain"
)

// B2BDiscountRepository defines access to the wholesale discount set. The
// admin screen replaces the whole set at once, so there is no row-level
// update; ReplaceAll runs delete + insert inside one transaction so that a
// crash mid-operation cannot leave an empty configuration.
type B2BDiscountRepository interface {
	All(ctx context.Context) ([]*domain.B2BDiscount, error)
	ReplaceAll(ctx context.Context, discounts []*domain.B2BDiscount) error
}

type b2bDiscountRepository struct {
	db *sql.DB
}

// NewB2BDiscountRepository creates a new instance of B2BDiscountRepository
func NewB2BDiscountRepository(db *sql.DB) B2BDiscountRepository {
	return &b2bDiscountRepository{db: db}
}

// All retrieves every discount row, oldest first so that resolution stays
// deterministic even against legacy data predating the uniqueness indexes.
func (r *b2bDiscountRepository) All(ctx context.Context) ([]*domain.B2BDiscount, error) {
	query := `
		SELECT id, scope, brand_id, category_id, percent, created_at
		FROM b2b_discounts
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list b2b discounts: %w", err)
	}
	defer rows.Close()

	discounts := []*domain.B2BDiscount{}
	for rows.Next() {
		discount := &domain.B2BDiscount{}
		err := rows.Scan(
			&discount.ID,
			&discount.Scope,
			&discount.BrandID,
			&discount.CategoryID,
			&discount.Percent,
			&discount.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan b2b discount: %w", err)
		}
		discounts = append(discounts, discount)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating b2b discounts: %w", err)
	}

	return discounts, nil
}

// ReplaceAll atomically swaps the full discount set.
func (r *b2bDiscountRepository) ReplaceAll(ctx context.Context, discounts []*domain.B2BDiscount) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM b2b_discounts`); err != nil {
		return fmt.Errorf("failed to clear b2b discounts: %w", err)
	}

	insertQuery := `
		INSERT INTO b2b_discounts (id, scope, brand_id, category_id, percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, discount := range discounts {
		_, err := tx.ExecContext(
			ctx,
			insertQuery,
			discount.ID,
			discount.Scope,
			discount.BrandID,
			discount.CategoryID,
			discount.Percent,
			discount.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert b2b discount: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit b2b discount replacement: %w", err)
	}

	return nil
}
