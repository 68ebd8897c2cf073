package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the order
	// amount, optionally capped by Rule.MaxDiscount.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFlat applies a fixed monetary discount capped at the order
	// amount.
	DiscountFlat DiscountType = "FLAT_AMOUNT"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon has been deactivated.
	ErrInactive = errors.New("coupon is inactive")
	// ErrExpired is returned when the coupon's expiry is in the past.
	ErrExpired = errors.New("coupon has expired")
	// ErrUsageLimitReached is returned when the coupon has exhausted its
	// allowed uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
)

// BelowMinimumError is returned when the order amount does not reach the
// coupon's minimum.
type BelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum order amount for this coupon is %s", e.Minimum.StringFixed(2))
}

// Rule defines a coupon's discount behaviour and eligibility constraints.
//
// UsageLimit == 0 means unlimited uses; a nil MaxDiscount means the
// percentage discount is uncapped; a nil ExpiresAt means the coupon never
// expires. UsedCount never exceeds UsageLimit when a limit is set; the
// repository increments it conditionally.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinOrder     decimal.Decimal
	MaxDiscount  *decimal.Decimal
	UsageLimit   int
	UsedCount    int
	ExpiresAt    *time.Time
	Active       bool
}

// Repository provides lookup and mutation of coupon rules. Implementations
// look codes up by their canonical form.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)

	// IncrementUsage atomically bumps the usage counter for a canonicalized
	// code. An unknown code is a no-op, not an error: the increment runs
	// post-commit as a best-effort counter update.
	IncrementUsage(ctx context.Context, code string) error

	Create(ctx context.Context, rule *Rule) error
}
