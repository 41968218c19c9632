package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment leg of an order's state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus is the payment leg of an order's state.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Order is created PENDING/PENDING at token issuance and moved to a terminal
// payment state exactly once by the gateway callback. Line prices are frozen
// at checkout and never recomputed.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderNumber string          `json:"order_number" db:"order_number"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Status      OrderStatus     `json:"status" db:"status"`
	PayStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	// MerchantOID is the correlation id shared with the payment gateway; the
	// asynchronous callback is matched to the order through it.
	MerchantOID  string          `json:"merchant_oid" db:"merchant_oid"`
	Total        decimal.Decimal `json:"total" db:"total"`
	Currency     Currency        `json:"currency" db:"currency"`
	ShippingText string          `json:"shipping_text" db:"shipping_text"`
	Notes        string          `json:"notes" db:"notes"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem is one frozen order line.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
}

// Address is a user-owned shipping address, snapshotted into the order as
// denormalized text at checkout.
type Address struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	Line1     string    `json:"line1" db:"line1"`
	Line2     string    `json:"line2" db:"line2"`
	City      string    `json:"city" db:"city"`
	Country   string    `json:"country" db:"country"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Snapshot renders the address as the denormalized text stored on the order.
func (a *Address) Snapshot() string {
	s := a.FullName + ", " + a.Line1
	if a.Line2 != "" {
		s += ", " + a.Line2
	}
	s += ", " + a.City + ", " + a.Country + ", " + a.Phone
	return s
}

// orderTransitions enumerates the legal fulfilment-status moves. The two
// callback transitions are applied by the payment callback; the rest are
// administrator-driven.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether moving from one fulfilment status to another
// is legal. A no-op transition (same status) is always allowed so that
// retried events stay idempotent.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
