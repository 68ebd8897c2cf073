package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/market-engine/internal/domain/order"
)

type placeOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
	CouponCode      string `json:"couponCode"`
	Notes           string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// PlaceOrder turns the user's cart into a confirmed order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:          uid,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.metrics.recordOrder(r.Context(), o)
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("order.number", o.OrderNumber),
	)

	respond(w, r, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ListOrders returns a page of the user's orders, most recent first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	orders, err := h.orders.ListOrders(r.Context(), uid, page, size)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range orders {
				encodeOrder(e, &orders[i])
			}
		})
	})
}

// GetOrder returns a single order, enforcing ownership.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "user identity required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id, uid)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// UpdateOrderStatus applies an administrative status transition.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
		e.Field("orderNumber", func(e *jx.Encoder) { e.Str(o.OrderNumber) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range o.Items {
					encodeOrderItem(e, item)
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { e.Float64(o.Subtotal.InexactFloat64()) })
		e.Field("discountAmount", func(e *jx.Encoder) { e.Float64(o.DiscountAmount.InexactFloat64()) })
		e.Field("shippingCharge", func(e *jx.Encoder) { e.Float64(o.ShippingCharge.InexactFloat64()) })
		e.Field("totalAmount", func(e *jx.Encoder) { e.Float64(o.TotalAmount.InexactFloat64()) })
		e.Field("couponCode", func(e *jx.Encoder) { e.Str(o.CouponCode) })
		e.Field("shippingAddress", func(e *jx.Encoder) { e.Str(o.ShippingAddress) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(o.PaymentMethod) })
		e.Field("paymentStatus", func(e *jx.Encoder) { e.Str(o.PaymentStatus) })
		e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(o.TrackingNumber) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
		e.Field("packedAt", func(e *jx.Encoder) { encodeTimePtr(e, o.PackedAt) })
		e.Field("shippedAt", func(e *jx.Encoder) { encodeTimePtr(e, o.ShippedAt) })
		e.Field("deliveredAt", func(e *jx.Encoder) { encodeTimePtr(e, o.DeliveredAt) })
	})
}

func encodeOrderItem(e *jx.Encoder, item order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(item.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Int64(item.ProductID) })
		e.Field("productName", func(e *jx.Encoder) { e.Str(item.ProductName) })
		e.Field("productImage", func(e *jx.Encoder) { e.Str(item.ProductImage) })
		e.Field("unitPrice", func(e *jx.Encoder) { e.Float64(item.UnitPrice.InexactFloat64()) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
		e.Field("totalPrice", func(e *jx.Encoder) { e.Float64(item.TotalPrice.InexactFloat64()) })
	})
}

func encodeTimePtr(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	e.Str(t.Format(time.RFC3339))
}
