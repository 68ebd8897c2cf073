package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/market-engine/internal/domain/product"
)

// ListProducts returns the whole catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

// ListFeaturedProducts returns the featured selection.
func (h *Handler) ListFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListFeatured(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

// ListLowStockProducts returns active products at or below the configured
// stock threshold, for restocking dashboards.
func (h *Handler) ListLowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListLowStock(r.Context(), h.lowStockThreshold)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

// GetProduct returns a product detail. This is the demand-reactive read
// path: it bumps the demand counter and may move the current price.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	viewerID, _ := userID(r) // anonymous views still count toward demand

	p, err := h.products.GetDetail(r.Context(), id, viewerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.metrics.recordProductView(r.Context())

	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, *p) })
}

// ListSimilarProducts returns up to 6 same-category products.
func (h *Handler) ListSimilarProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	products, err := h.suggestions.Similar(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

// ListRecommendations returns up to 8 products for the requesting user.
func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}

	products, err := h.suggestions.Recommendations(r.Context(), uid)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodeProduct(e, p)
		}
	})
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("basePrice", func(e *jx.Encoder) { e.Float64(p.BasePrice.InexactFloat64()) })
		e.Field("currentPrice", func(e *jx.Encoder) { e.Float64(p.CurrentPrice.InexactFloat64()) })
		e.Field("stockQuantity", func(e *jx.Encoder) { e.Int(p.StockQuantity) })
		e.Field("demandCount", func(e *jx.Encoder) { e.Int(p.DemandCount) })
		e.Field("discountPercentage", func(e *jx.Encoder) { e.Float64(p.DiscountPercentage.InexactFloat64()) })
		e.Field("imageUrl", func(e *jx.Encoder) { e.Str(p.ImageURL) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(p.Active) })
		e.Field("featured", func(e *jx.Encoder) { e.Bool(p.Featured) })
		e.Field("categoryId", func(e *jx.Encoder) { e.Int64(p.CategoryID) })
	})
}
