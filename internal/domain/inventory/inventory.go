// Package inventory defines the guard that keeps concurrent checkouts from
// overselling stock. Implementations must perform the decrement as a single
// conditional operation against the shared store ("decrement by N only if
// stock >= N"), never as a separate read-then-write pair.
package inventory

import (
	"context"
	"fmt"
)

// Reservation asks for quantity units of a single product.
type Reservation struct {
	ProductID   int64
	ProductName string
	Quantity    int
}

// InsufficientStockError reports the first product whose stock could not
// cover the requested quantity.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for: %s", e.ProductName)
}

// Guard reserves and releases stock atomically.
//
// Reserve is all-or-nothing across the given reservations: either every
// line's quantity is decremented, or none are. The first line with
// insufficient stock aborts the whole batch with InsufficientStockError.
// Release is the symmetric increment, used when a reservation is undone
// (e.g. order cancellation restock).
type Guard interface {
	Reserve(ctx context.Context, lines []Reservation) error
	Release(ctx context.Context, lines []Reservation) error
}
