// Package api exposes the fulfillment core over a small JSON surface. The
// core owns no wire format; these handlers only decode requests, delegate to
// the domain services, and map domain errors to HTTP statuses.
package api

import (
	"net/http"
	"strconv"

	"github.com/xenking/market-engine/internal/domain/cart"
	"github.com/xenking/market-engine/internal/domain/order"
	"github.com/xenking/market-engine/internal/domain/product"
	"github.com/xenking/market-engine/internal/domain/suggest"
)

// userHeader carries the authenticated user ID, resolved upstream by the
// identity layer (out of scope here).
const userHeader = "X-User-ID"

// Handler serves the JSON API, delegating business logic to the domain
// services.
type Handler struct {
	products    *product.Service
	carts       *cart.Service
	orders      *order.Service
	suggestions *suggest.Service

	metrics           *Metrics
	lowStockThreshold int
}

// NewHandler constructs a Handler with the required domain services. metrics
// may be nil, which disables business-event counters.
func NewHandler(
	products *product.Service,
	carts *cart.Service,
	orders *order.Service,
	suggestions *suggest.Service,
	metrics *Metrics,
	lowStockThreshold int,
) *Handler {
	return &Handler{
		products:          products,
		carts:             carts,
		orders:            orders,
		suggestions:       suggestions,
		metrics:           metrics,
		lowStockThreshold: lowStockThreshold,
	}
}

// Register mounts all API routes on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/featured", h.ListFeaturedProducts)
	mux.HandleFunc("GET /api/products/low-stock", h.ListLowStockProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/similar", h.ListSimilarProducts)
	mux.HandleFunc("GET /api/recommendations", h.ListRecommendations)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{productId}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/{id}/status", h.UpdateOrderStatus)
}

// userID extracts the authenticated user from the request. The second return
// is false when the header is absent or malformed.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(userHeader), 10, 64)
	return id, err == nil && id > 0
}

// pathID parses the named int64 path segment.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}
