package api

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/market-engine/internal/domain/order"
)

// Metrics holds the domain-level counters recorded by the handlers. Request
// latency and status codes are covered by the otelhttp wrapper; these track
// business events only.
type Metrics struct {
	ordersPlaced   metric.Int64Counter
	orderValue     metric.Float64Counter
	couponsApplied metric.Int64Counter
	productViews   metric.Int64Counter
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("market-engine/api")

	ordersPlaced, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders successfully placed"))
	if err != nil {
		return nil, errors.Wrap(err, "orders.placed counter")
	}
	orderValue, err := meter.Float64Counter("orders.value",
		metric.WithDescription("Total value of placed orders"))
	if err != nil {
		return nil, errors.Wrap(err, "orders.value counter")
	}
	couponsApplied, err := meter.Int64Counter("coupons.applied",
		metric.WithDescription("Coupons redeemed on placed orders"))
	if err != nil {
		return nil, errors.Wrap(err, "coupons.applied counter")
	}
	productViews, err := meter.Int64Counter("products.viewed",
		metric.WithDescription("Product detail views"))
	if err != nil {
		return nil, errors.Wrap(err, "products.viewed counter")
	}

	return &Metrics{
		ordersPlaced:   ordersPlaced,
		orderValue:     orderValue,
		couponsApplied: couponsApplied,
		productViews:   productViews,
	}, nil
}

func (m *Metrics) recordOrder(ctx context.Context, o *order.Order) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("coupon", o.CouponCode != ""))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderValue.Add(ctx, o.TotalAmount.InexactFloat64(), attrs)
	if o.CouponCode != "" {
		m.couponsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("coupon.code", o.CouponCode)))
	}
}

func (m *Metrics) recordProductView(ctx context.Context) {
	if m == nil {
		return
	}
	m.productViews.Add(ctx, 1)
}
