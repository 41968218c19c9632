package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"klimapart/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines read access to the catalog plus the cached
// settlement-price maintenance used by the currency recompute.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error)
	FindByCurrency(ctx context.Context, currency domain.Currency) ([]*domain.Product, error)
	UpdateCachedPrice(ctx context.Context, id uuid.UUID, priceTRY decimal.Decimal) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price_original, price_currency, price_try, b2b_price, brand_id, category_id, stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	var b2bPrice decimal.NullDecimal
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.PriceOriginal,
		&product.PriceCurrency,
		&product.PriceTRY,
		&b2bPrice,
		&product.BrandID,
		&product.CategoryID,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b2bPrice.Valid {
		product.B2BPrice = &b2bPrice.Decimal
	}
	return product, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByIDs retrieves several products at once for the batch quote endpoints.
// Missing IDs are simply absent from the result.
func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// FindByCurrency lists every product priced in the given source currency,
// the working set of the bulk settlement-price recompute.
func (r *productRepository) FindByCurrency(ctx context.Context, currency domain.Currency) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE price_currency = $1 ORDER BY created_at`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by currency: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// UpdateCachedPrice rewrites a single product's cached settlement price.
func (r *productRepository) UpdateCachedPrice(ctx context.Context, id uuid.UUID, priceTRY decimal.Decimal) error {
	query := `UPDATE products SET price_try = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, priceTRY)
	if err != nil {
		return fmt.Errorf("failed to update cached price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
