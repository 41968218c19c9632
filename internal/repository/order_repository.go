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
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines persistence for orders and their frozen lines.
type OrderRepository interface {
	// Create persists the order and all of its items as one transaction.
	Create(ctx context.Context, order *domain.Order) error
	// Delete is the compensating action after a failed gateway call; items
	// cascade with the order.
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByMerchantOID(ctx context.Context, merchantOID string) (*domain.Order, error)
	// SetPaymentOutcome moves the order to its terminal payment state. It is
	// a set-to-target write keyed by merchant_oid, safe under duplicate
	// callback delivery.
	SetPaymentOutcome(ctx context.Context, merchantOID string, status domain.OrderStatus, payStatus domain.PaymentStatus) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	// PurgeAbandoned deletes PENDING/PENDING debris older than the cutoff,
	// for an external cleanup job.
	PurgeAbandoned(ctx context.Context, olderThan time.Time) (int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, status, payment_status, merchant_oid, total, currency, shipping_text, notes, created_at, updated_at`

// Create persists the order header and its items in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO orders (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, orderColumns)

	_, err = tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.PayStatus,
		order.MerchantOID,
		order.Total,
		order.Currency,
		order.ShippingText,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		_, err := tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// Delete removes an order and its items.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// FindByID retrieves an order with its items.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	return r.findOne(ctx, query, id)
}

// FindByMerchantOID retrieves an order by its gateway correlation id.
func (r *orderRepository) FindByMerchantOID(ctx context.Context, merchantOID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE merchant_oid = $1`, orderColumns)
	return r.findOne(ctx, query, merchantOID)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.PayStatus,
		&order.MerchantOID,
		&order.Total,
		&order.Currency,
		&order.ShippingText,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	itemQuery := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, itemQuery, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := domain.OrderItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return order, nil
}

// SetPaymentOutcome writes the terminal payment state for the order matching
// the gateway correlation id.
func (r *orderRepository) SetPaymentOutcome(ctx context.Context, merchantOID string, status domain.OrderStatus, payStatus domain.PaymentStatus) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE merchant_oid = $1
	`

	result, err := r.db.ExecContext(ctx, query, merchantOID, status, payStatus)
	if err != nil {
		return fmt.Errorf("failed to set payment outcome: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UpdateStatus writes an administrator-driven fulfilment status change.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// PurgeAbandoned removes stale never-paid orders.
func (r *orderRepository) PurgeAbandoned(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM orders
		WHERE status = 'PENDING' AND payment_status = 'PENDING' AND created_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge abandoned orders: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
