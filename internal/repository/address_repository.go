package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"klimapart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAddressNotFound = errors.New("address not found")
)

// AddressRepository defines read access to the user's address book. Address
// CRUD lives outside this service; checkout only needs ownership-scoped
// lookup.
type AddressRepository interface {
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Address, error)
}

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository creates a new instance of AddressRepository
func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{db: db}
}

// FindByIDForUser retrieves an address only if it belongs to the given user.
// An address owned by someone else is indistinguishable from a missing one.
func (r *addressRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Address, error) {
	query := `
		SELECT id, user_id, title, full_name, phone, line1, line2, city, country, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	address := &domain.Address{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&address.ID,
		&address.UserID,
		&address.Title,
		&address.FullName,
		&address.Phone,
		&address.Line1,
		&address.Line2,
		&address.City,
		&address.Country,
		&address.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}

	return address, nil
}
