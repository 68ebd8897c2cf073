package suggest

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-engine/internal/domain/product"
)

const (
	// recommendationCap is the maximum length of a recommendation list.
	recommendationCap = 8
	recentViewLimit   = 5
	categoryLimit     = 3
	perCategoryLimit  = 4
	similarLimit      = 6
)

var bundleRatio = decimal.RequireFromString("0.90")

// Service computes suggestions from the catalog and view history.
type Service struct {
	products product.Repository
	views    product.ViewRepository
}

// NewService creates a suggestion Service.
func NewService(products product.Repository, views product.ViewRepository) *Service {
	return &Service{products: products, views: views}
}

// Alternatives proposes, for each cart item, the first active same-category
// product in catalog order whose current price is strictly lower than the
// original's. At most one alternative per item; items without a cheaper
// alternative produce nothing.
func (s *Service) Alternatives(ctx context.Context, items []CartItem) ([]Alternative, error) {
	suggestions := make([]Alternative, 0, len(items))
	for _, item := range items {
		original := item.Product

		candidates, err := s.products.ListByCategoryExcluding(ctx, original.CategoryID, original.ID)
		if err != nil {
			return nil, errors.Wrap(err, "list category candidates")
		}

		for _, alt := range candidates {
			if !alt.CurrentPrice.LessThan(original.CurrentPrice) {
				continue
			}
			suggestions = append(suggestions, Alternative{
				OriginalProductID:    original.ID,
				OriginalName:         original.Name,
				AlternativeProductID: alt.ID,
				AlternativeName:      alt.Name,
				AlternativeImage:     alt.ImageURL,
				OriginalPrice:        original.CurrentPrice,
				AlternativePrice:     alt.CurrentPrice,
				Savings:              original.CurrentPrice.Sub(alt.CurrentPrice),
			})
			break
		}
	}
	return suggestions, nil
}

// BundleOffer builds at most one bundle from the first cart item: the first
// other active product in its category, priced at 90% of the pair sum.
// It returns nil when the cart is empty or the category has no companion.
func (s *Service) BundleOffer(ctx context.Context, items []CartItem) (*Bundle, error) {
	if len(items) == 0 {
		return nil, nil
	}

	first := items[0].Product
	candidates, err := s.products.ListByCategoryExcluding(ctx, first.CategoryID, first.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list category candidates")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	companion := candidates[0]
	originalTotal := first.CurrentPrice.Add(companion.CurrentPrice)
	bundlePrice := originalTotal.Mul(bundleRatio).Round(2)

	return &Bundle{
		Name:          "Popular Bundle - Save 10%",
		ProductIDs:    []int64{first.ID, companion.ID},
		ProductNames:  []string{first.Name, companion.Name},
		OriginalTotal: originalTotal,
		BundlePrice:   bundlePrice,
		Savings:       originalTotal.Sub(bundlePrice),
	}, nil
}

// Recommendations builds up to 8 products for a user: up to 3 distinct
// categories from the 5 most recent views (in recency order) contribute up
// to 4 active products each; top-by-demand actives pad the remainder.
// Products are never repeated within the list.
func (s *Service) Recommendations(ctx context.Context, userID int64) ([]product.Product, error) {
	recent, err := s.views.ListRecentByUser(ctx, userID, recentViewLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list recent views")
	}

	seen := make(map[int64]struct{}, recommendationCap)
	recommendations := make([]product.Product, 0, recommendationCap)

	categories := distinctCategories(recent, categoryLimit)
	for _, categoryID := range categories {
		catProducts, err := s.products.ListByCategory(ctx, categoryID, perCategoryLimit)
		if err != nil {
			return nil, errors.Wrap(err, "list category products")
		}
		for _, p := range catProducts {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			recommendations = append(recommendations, p)
		}
	}

	if len(recommendations) < recommendationCap {
		topDemand, err := s.products.ListTopByDemand(ctx, recommendationCap)
		if err != nil {
			return nil, errors.Wrap(err, "list top demand products")
		}
		for _, p := range topDemand {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			recommendations = append(recommendations, p)
		}
	}

	if len(recommendations) > recommendationCap {
		recommendations = recommendations[:recommendationCap]
	}
	return recommendations, nil
}

// Similar returns up to 6 other active products from the same category, in
// catalog order.
func (s *Service) Similar(ctx context.Context, productID int64) ([]product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.products.ListByCategoryExcluding(ctx, p.CategoryID, p.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list category candidates")
	}
	if len(candidates) > similarLimit {
		candidates = candidates[:similarLimit]
	}
	return candidates, nil
}

// distinctCategories returns up to limit distinct category IDs from views,
// preserving recency order.
func distinctCategories(views []product.View, limit int) []int64 {
	seen := make(map[int64]struct{}, limit)
	categories := make([]int64, 0, limit)
	for _, v := range views {
		if _, ok := seen[v.CategoryID]; ok {
			continue
		}
		seen[v.CategoryID] = struct{}{}
		categories = append(categories, v.CategoryID)
		if len(categories) == limit {
			break
		}
	}
	return categories
}
