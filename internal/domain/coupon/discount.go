package coupon

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Canonical returns the lookup/storage form of a coupon code: trimmed and
// uppercased.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply validates rule against the order amount at the given instant and
// computes the discount, rounded half-up to 2 decimal places.
//
// Validation fails fast, first violation wins: inactive, expired, usage
// limit exhausted, order amount below minimum.
func Apply(rule *Rule, orderAmount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !rule.Active {
		return decimal.Zero, ErrInactive
	}
	if rule.ExpiresAt != nil && rule.ExpiresAt.Before(now) {
		return decimal.Zero, ErrExpired
	}
	if rule.UsageLimit > 0 && rule.UsedCount >= rule.UsageLimit {
		return decimal.Zero, ErrUsageLimitReached
	}
	if orderAmount.LessThan(rule.MinOrder) {
		return decimal.Zero, &BelowMinimumError{Minimum: rule.MinOrder}
	}

	var discount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercentage:
		discount = orderAmount.Mul(rule.Value).Div(hundred)
		if rule.MaxDiscount != nil {
			discount = decimal.Min(discount, *rule.MaxDiscount)
		}
	case DiscountFlat:
		// A flat discount never exceeds the order amount.
		discount = decimal.Min(rule.Value, orderAmount)
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	return discount.Round(2), nil
}
