package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPlaced    Status = "ORDER_PLACED"
	StatusPacked    Status = "PACKED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// valid reports whether s is a known status.
func (s Status) valid() bool {
	switch s {
	case StatusPlaced, StatusPacked, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// terminal reports whether no further transitions are allowed from s.
func (s Status) terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

var (
	// ErrEmptyCart is returned when placing an order with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAccessDenied is returned when a user requests an order they do not own.
	ErrAccessDenied = errors.New("access denied to this order")
	// ErrUnknownStatus is returned for a status outside the state machine.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrTerminalStatus is returned when transitioning out of DELIVERED or
	// CANCELLED.
	ErrTerminalStatus = errors.New("order is in a terminal status")
)

// Item is a single order line. It snapshots the product's name, image, and
// unit price at purchase time so later catalog changes never alter the
// historical order. Immutable after creation.
type Item struct {
	ID           int64
	ProductID    int64
	ProductName  string
	ProductImage string
	UnitPrice    decimal.Decimal
	Quantity     int
	TotalPrice   decimal.Decimal
}

// Order is a placed customer order. Monetary fields are fixed at placement
// time and never recomputed; only Status and its timestamps change
// afterwards. Invariant: TotalAmount == max(0, Subtotal - DiscountAmount +
// ShippingCharge).
type Order struct {
	ID              int64
	OrderNumber     string
	UserID          int64
	Items           []Item
	Status          Status
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingCharge  decimal.Decimal
	TotalAmount     decimal.Decimal
	CouponCode      string
	ShippingAddress string
	PaymentMethod   string
	PaymentStatus   string
	TrackingNumber  string
	Notes           string
	CreatedAt       time.Time
	PackedAt        *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
}

// ApplyStatus transitions the order to status at the given instant.
//
// Forward skips (e.g. ORDER_PLACED straight to DELIVERED) are permitted;
// CANCELLED is reachable from any non-terminal state. Each status timestamp
// is set only the first time its status is reached; re-applying a status is
// an idempotent no-op that never overwrites the recorded time.
func (o *Order) ApplyStatus(status Status, now time.Time) error {
	if !status.valid() {
		return ErrUnknownStatus
	}
	if o.Status.terminal() && status != o.Status {
		return ErrTerminalStatus
	}

	o.Status = status
	switch status {
	case StatusPacked:
		if o.PackedAt == nil {
			o.PackedAt = &now
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	}
	return nil
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order and its items as one atomic unit together
	// with the fulfillment side effects: every item's stock is conditionally
	// decremented and the owner's cart is cleared. On any failure nothing is
	// committed; an insufficient decrement surfaces as
	// *inventory.InsufficientStockError.
	Create(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]Order, error)

	// UpdateStatus persists the order's status and status timestamps. It
	// reports false without error when the stored row is already CANCELLED,
	// so a cancellation that lost a race commits nothing.
	UpdateStatus(ctx context.Context, o *Order) (bool, error)
}
