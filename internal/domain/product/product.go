package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
//
// BasePrice is the vendor-set list price and is never changed by this
// subsystem. CurrentPrice is derived from BasePrice by the pricing package
// and cached here. StockQuantity is mutated only through atomic conditional
// decrements (see internal/domain/inventory) and never goes negative.
type Product struct {
	ID                 int64
	Name               string
	Description        string
	BasePrice          decimal.Decimal
	CurrentPrice       decimal.Decimal
	StockQuantity      int
	DemandCount        int
	DiscountPercentage decimal.Decimal
	ImageURL           string
	SKU                string
	Active             bool
	Featured           bool
	CategoryID         int64
	CreatedAt          time.Time
}

// View records how many times a user has viewed a product. View recency
// feeds the recommendation heuristics.
type View struct {
	UserID       int64
	ProductID    int64
	CategoryID   int64
	ViewCount    int
	LastViewedAt time.Time
}

// Repository defines persistence operations for the product catalog.
//
// Catalog order is id ascending everywhere a list is returned; the
// suggestion heuristics depend on this order being deterministic.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	ListByCategoryExcluding(ctx context.Context, categoryID, excludedID int64) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID int64, limit int) ([]Product, error)
	ListTopByDemand(ctx context.Context, limit int) ([]Product, error)
	ListFeatured(ctx context.Context) ([]Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]Product, error)

	// IncrementDemand atomically bumps demand_count and returns the updated
	// row. Used on the product-detail read path before recomputing the price.
	IncrementDemand(ctx context.Context, id int64) (*Product, error)

	// UpdateCurrentPrice persists a freshly computed dynamic price.
	UpdateCurrentPrice(ctx context.Context, id int64, price decimal.Decimal) error
}

// ViewRepository persists per-user product view counters.
type ViewRepository interface {
	// RecordView creates or increments the (user, product) view row and
	// refreshes its last-viewed timestamp.
	RecordView(ctx context.Context, userID, productID int64) error
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]View, error)
}
