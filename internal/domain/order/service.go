package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/market-engine/internal/domain/cart"
	"github.com/xenking/market-engine/internal/domain/coupon"
	"github.com/xenking/market-engine/internal/domain/inventory"
	"github.com/xenking/market-engine/internal/domain/product"
)

const defaultPaymentMethod = "CARD"

var (
	freeShippingThreshold = decimal.NewFromInt(500)
	flatShippingCharge    = decimal.NewFromInt(50)
)

// PlaceOrderRequest holds the input for placing an order. The cart itself is
// read from the cart store, not passed by the caller.
type PlaceOrderRequest struct {
	UserID          int64
	ShippingAddress string
	PaymentMethod   string
	CouponCode      string
	Notes           string
}

// Service encapsulates order placement, lookup, and status updates.
type Service struct {
	carts    cart.Repository
	products product.Repository
	coupons  coupon.Validator
	usage    coupon.Repository
	orders   Repository
	stock    inventory.Guard
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	carts cart.Repository,
	products product.Repository,
	coupons coupon.Validator,
	usage coupon.Repository,
	orders Repository,
	stock inventory.Guard,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		usage:    usage,
		orders:   orders,
		stock:    stock,
		now:      time.Now,
	}
}

// PlaceOrder turns the user's cart into a confirmed order.
//
// Every validation step runs before the commit: empty-cart check, per-line
// stock precheck, subtotal from live current prices, coupon validation.
// A failure anywhere in that chain leaves no visible side effect: the cart
// is retained and stock untouched. The repository then commits stock
// decrement, order insert, and cart clearing as one atomic unit; the stock
// decrement is conditional there as well, so concurrent checkouts cannot
// jointly oversell. The coupon usage counter is incremented after the
// commit, best-effort: its failure is logged, never surfaced.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	lines, err := s.carts.ListByUser(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Validate stock and compute the subtotal from live current prices; the
	// cart's price snapshots are informational only.
	subtotal := decimal.Zero
	items := make([]Item, len(lines))
	for i, line := range lines {
		p, ok := productMap[line.ProductID]
		if !ok {
			return nil, product.ErrNotFound
		}
		if p.StockQuantity < line.Quantity {
			return nil, &inventory.InsufficientStockError{ProductName: p.Name}
		}

		lineTotal := p.CurrentPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items[i] = Item{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
			UnitPrice:    p.CurrentPrice,
			Quantity:     line.Quantity,
			TotalPrice:   lineTotal,
		}
		subtotal = subtotal.Add(lineTotal)
	}

	discount := decimal.Zero
	couponCode := strings.TrimSpace(req.CouponCode)
	if couponCode != "" {
		couponCode = coupon.Canonical(couponCode)
		discount, err = s.coupons.Validate(ctx, couponCode, subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
	}

	shipping := flatShippingCharge
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Sub(discount).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	o := &Order{
		OrderNumber:     newOrderNumber(),
		UserID:          req.UserID,
		Items:           items,
		Status:          StatusPlaced,
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		ShippingCharge:  shipping,
		TotalAmount:     total,
		CouponCode:      couponCode,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   paymentMethod,
		// Payment is simulated and never fails.
		PaymentStatus:  "COMPLETED",
		TrackingNumber: newTrackingNumber(),
		Notes:          req.Notes,
		CreatedAt:      s.now(),
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// The order is committed. Recording coupon usage is best-effort: a
	// failure here must not fail or roll back the order.
	if couponCode != "" {
		if err := s.usage.IncrementUsage(ctx, couponCode); err != nil {
			zctx.From(ctx).Error("record coupon usage",
				zap.String("coupon", couponCode),
				zap.String("order", o.OrderNumber),
				zap.Error(err),
			)
		}
	}

	return o, nil
}

// GetOrder returns a single order, enforcing ownership.
func (s *Service) GetOrder(ctx context.Context, id, userID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrAccessDenied
	}
	return o, nil
}

// ListOrders returns a page of the user's orders, most recent first.
func (s *Service) ListOrders(ctx context.Context, userID int64, page, size int) ([]Order, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	return s.orders.ListByUser(ctx, userID, page*size, size)
}

// UpdateStatus applies a status transition and persists it. Status updates
// are administrative and not ownership-checked. Cancelling an order returns
// its reserved stock.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := o.Status
	if err := o.ApplyStatus(status, s.now()); err != nil {
		return nil, err
	}
	updated, err := s.orders.UpdateStatus(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	if !updated {
		// The row turned CANCELLED between the read and the write.
		// Re-applying CANCELLED stays an idempotent no-op; any other
		// transition lost the race.
		if status == StatusCancelled && prev == StatusCancelled {
			return o, nil
		}
		return nil, ErrTerminalStatus
	}

	// The guarded write means at most one request ever commits the
	// transition into CANCELLED, so the restock runs exactly once.
	// Best-effort: the cancellation itself is already persisted.
	if o.Status == StatusCancelled && prev != StatusCancelled {
		if err := s.stock.Release(ctx, restockLines(o.Items)); err != nil {
			zctx.From(ctx).Error("restock cancelled order",
				zap.String("order", o.OrderNumber),
				zap.Error(err),
			)
		}
	}

	return o, nil
}

func restockLines(items []Item) []inventory.Reservation {
	lines := make([]inventory.Reservation, len(items))
	for i, item := range items {
		lines[i] = inventory.Reservation{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		}
	}
	return lines
}

// newOrderNumber returns a human-legible unique order number, e.g.
// MK-1A2B3C4D.
func newOrderNumber() string {
	return "MK-" + randomSuffix(8)
}

// newTrackingNumber returns a carrier-style tracking number, e.g.
// TRK-1A2B3C4D5E.
func newTrackingNumber() string {
	return "TRK-" + randomSuffix(10)
}

// randomSuffix returns n uppercase hex characters from a random UUID.
// 8+ characters keep the collision probability negligible.
func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(s[:n])
}
