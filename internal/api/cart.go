package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/market-engine/internal/domain/cart"
	"github.com/xenking/market-engine/internal/domain/suggest"
)

type addCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart summary with suggestions attached.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}

	summary, err := h.carts.GetSummary(r.Context(), uid)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeCartSummary(e, summary) })
}

// AddCartItem adds a product to the user's cart.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.carts.AddItem(r.Context(), uid, req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, func(e *jx.Encoder) { encodeCartLine(e, line) })
}

// UpdateCartItem replaces the quantity of an existing cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}
	productID, ok := pathID(r, "productId")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.carts.UpdateItem(r.Context(), uid, productID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeCartLine(e, line) })
}

// RemoveCartItem deletes a single cart line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}
	productID, ok := pathID(r, "productId")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), uid, productID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart removes every line from the user's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}

	if err := h.carts.Clear(r.Context(), uid); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func encodeCartLine(e *jx.Encoder, line *cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(line.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Int64(line.ProductID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
		e.Field("priceSnapshot", func(e *jx.Encoder) { e.Float64(line.PriceSnapshot.InexactFloat64()) })
	})
}

func encodeCartSummary(e *jx.Encoder, s *cart.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range s.Items {
					encodeCartItem(e, item)
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { e.Float64(s.Subtotal.InexactFloat64()) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(s.ItemCount) })
		e.Field("alternativeSuggestions", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, alt := range s.Alternatives {
					encodeAlternative(e, alt)
				}
			})
		})
		e.Field("bundleSuggestion", func(e *jx.Encoder) {
			if s.Bundle == nil {
				e.Null()
				return
			}
			encodeBundle(e, s.Bundle)
		})
	})
}

func encodeCartItem(e *jx.Encoder, item cart.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(item.Line.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Int64(item.Line.ProductID) })
		e.Field("productName", func(e *jx.Encoder) { e.Str(item.ProductName) })
		e.Field("productImage", func(e *jx.Encoder) { e.Str(item.ProductImage) })
		e.Field("unitPrice", func(e *jx.Encoder) { e.Float64(item.UnitPrice.InexactFloat64()) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Line.Quantity) })
		e.Field("totalPrice", func(e *jx.Encoder) { e.Float64(item.TotalPrice.InexactFloat64()) })
		e.Field("availableStock", func(e *jx.Encoder) { e.Int(item.AvailableStock) })
		e.Field("stockWarning", func(e *jx.Encoder) { e.Bool(item.StockWarning) })
	})
}

func encodeAlternative(e *jx.Encoder, alt suggest.Alternative) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("originalProductId", func(e *jx.Encoder) { e.Int64(alt.OriginalProductID) })
		e.Field("originalProductName", func(e *jx.Encoder) { e.Str(alt.OriginalName) })
		e.Field("alternativeProductId", func(e *jx.Encoder) { e.Int64(alt.AlternativeProductID) })
		e.Field("alternativeProductName", func(e *jx.Encoder) { e.Str(alt.AlternativeName) })
		e.Field("alternativeImage", func(e *jx.Encoder) { e.Str(alt.AlternativeImage) })
		e.Field("originalPrice", func(e *jx.Encoder) { e.Float64(alt.OriginalPrice.InexactFloat64()) })
		e.Field("alternativePrice", func(e *jx.Encoder) { e.Float64(alt.AlternativePrice.InexactFloat64()) })
		e.Field("savings", func(e *jx.Encoder) { e.Float64(alt.Savings.InexactFloat64()) })
	})
}

func encodeBundle(e *jx.Encoder, b *suggest.Bundle) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("bundleName", func(e *jx.Encoder) { e.Str(b.Name) })
		e.Field("productIds", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, id := range b.ProductIDs {
					e.Int64(id)
				}
			})
		})
		e.Field("productNames", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, name := range b.ProductNames {
					e.Str(name)
				}
			})
		})
		e.Field("originalTotal", func(e *jx.Encoder) { e.Float64(b.OriginalTotal.InexactFloat64()) })
		e.Field("bundlePrice", func(e *jx.Encoder) { e.Float64(b.BundlePrice.InexactFloat64()) })
		e.Field("savings", func(e *jx.Encoder) { e.Float64(b.Savings.InexactFloat64()) })
	})
}
