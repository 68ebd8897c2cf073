package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	// MinQuantity and MaxQuantity bound a single cart line.
	MinQuantity = 1
	MaxQuantity = 50
)

var (
	// ErrLineNotFound is returned when a (user, product) cart line does not exist.
	ErrLineNotFound = errors.New("cart item not found")
	// ErrProductInactive is returned when adding a delisted product.
	ErrProductInactive = errors.New("product is no longer available")
	// ErrQuantityRange is returned when a requested quantity falls outside
	// the per-line bounds.
	ErrQuantityRange = errors.Errorf("quantity must be between %d and %d", MinQuantity, MaxQuantity)
)

// StockLimitError is returned when a cart write would exceed available stock.
type StockLimitError struct {
	Available int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("only %d units available in stock", e.Available)
}

// Line is a (user, product) cart entry, unique per pair.
//
// PriceSnapshot records the product's current price at the time the line was
// last written. It is informational: checkout always re-reads the live
// current price.
type Line struct {
	ID            int64
	UserID        int64
	ProductID     int64
	Quantity      int
	PriceSnapshot decimal.Decimal
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Line, error)
	Get(ctx context.Context, userID, productID int64) (*Line, error)
	// Upsert creates the line or replaces its quantity and price snapshot.
	Upsert(ctx context.Context, line *Line) error
	Delete(ctx context.Context, userID, productID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
