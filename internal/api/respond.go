package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/market-engine/internal/domain/cart"
	"github.com/xenking/market-engine/internal/domain/coupon"
	"github.com/xenking/market-engine/internal/domain/inventory"
	"github.com/xenking/market-engine/internal/domain/order"
	"github.com/xenking/market-engine/internal/domain/product"
)

// respond writes a JSON body produced by encode with the given status.
func respond(w http.ResponseWriter, r *http.Request, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}

// respondError writes the canonical {"code": ..., "message": ...} error body.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// respondDomainError maps domain errors to HTTP statuses: not-found kinds to
// 404, access denial to 403, business-rule violations to 422, anything
// unrecognized to a logged 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
		return

	case errors.Is(err, order.ErrAccessDenied):
		respondError(w, r, http.StatusForbidden, err.Error())
		return

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrTerminalStatus),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, cart.ErrProductInactive),
		errors.Is(err, cart.ErrQuantityRange):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var (
		stockErr *inventory.InsufficientStockError
		minErr   *coupon.BelowMinimumError
		limitErr *cart.StockLimitError
	)
	if errors.As(err, &stockErr) || errors.As(err, &minErr) || errors.As(err, &limitErr) {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, r, http.StatusInternalServerError, "internal server error")
}
