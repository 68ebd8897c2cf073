package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/market-engine/internal/domain/pricing"
)

// Service implements catalog reads, including the demand-reactive product
// detail path.
type Service struct {
	products Repository
	views    ViewRepository
}

// NewService creates a product Service.
func NewService(products Repository, views ViewRepository) *Service {
	return &Service{products: products, views: views}
}

// List returns the full catalog in catalog order.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.products.List(ctx)
}

// ListFeatured returns the featured selection.
func (s *Service) ListFeatured(ctx context.Context) ([]Product, error) {
	return s.products.ListFeatured(ctx)
}

// ListLowStock returns active products at or below the stock threshold.
func (s *Service) ListLowStock(ctx context.Context, threshold int) ([]Product, error) {
	return s.products.ListLowStock(ctx, threshold)
}

// GetDetail is the product-detail read path: it atomically increments the
// product's demand counter, recomputes the dynamic price from the updated
// counters, persists it, and records the viewer's product view. The price
// therefore drifts upward with interest over time.
//
// viewerID == 0 means an anonymous read: demand still accrues, but no view
// row is recorded.
func (s *Service) GetDetail(ctx context.Context, id, viewerID int64) (*Product, error) {
	p, err := s.products.IncrementDemand(ctx, id)
	if err != nil {
		return nil, err
	}

	price := pricing.Compute(pricing.Inputs{
		BasePrice:          p.BasePrice,
		DiscountPercentage: p.DiscountPercentage,
		StockQuantity:      p.StockQuantity,
		DemandCount:        p.DemandCount,
	})
	if !price.Equal(p.CurrentPrice) {
		if err := s.products.UpdateCurrentPrice(ctx, p.ID, price); err != nil {
			return nil, errors.Wrap(err, "persist current price")
		}
		p.CurrentPrice = price
	}

	if viewerID != 0 {
		// View history is a recommendation input, not critical state.
		if err := s.views.RecordView(ctx, viewerID, p.ID); err != nil {
			zctx.From(ctx).Warn("record product view",
				zap.Int64("product_id", p.ID),
				zap.Int64("user_id", viewerID),
				zap.Error(err),
			)
		}
	}

	return p, nil
}
