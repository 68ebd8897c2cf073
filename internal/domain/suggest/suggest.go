// Package suggest produces purchase-adjacent suggestions: cheaper
// alternatives for cart lines, a bundle offer, per-user recommendations, and
// similar products. All operations are read-only over the catalog and view
// history.
package suggest

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/market-engine/internal/domain/product"
)

// CartItem pairs a cart line's product with its quantity for suggestion
// purposes.
type CartItem struct {
	Product  product.Product
	Quantity int
}

// Alternative proposes a cheaper same-category product for a cart line.
type Alternative struct {
	OriginalProductID    int64
	OriginalName         string
	AlternativeProductID int64
	AlternativeName      string
	AlternativeImage     string
	OriginalPrice        decimal.Decimal
	AlternativePrice     decimal.Decimal
	Savings              decimal.Decimal
}

// Bundle proposes buying the first cart line's product together with a
// companion from the same category at a 10% discount on the pair.
type Bundle struct {
	Name          string
	ProductIDs    []int64
	ProductNames  []string
	OriginalTotal decimal.Decimal
	BundlePrice   decimal.Decimal
	Savings       decimal.Decimal
}
