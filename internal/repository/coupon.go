package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-engine/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, discount_value, min_order_amount,
		max_discount_amount, usage_limit, used_count, expires_at, active
		FROM coupons WHERE code = $1`

	// The guard clause keeps used_count <= usage_limit even under concurrent
	// increments; an unknown code simply matches no row.
	incrementCouponUsageSQL = `UPDATE coupons SET used_count = used_count + 1
		WHERE code = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`

	insertCouponSQL = `INSERT INTO coupons (code, discount_type, discount_value, min_order_amount,
		max_discount_amount, usage_limit, used_count, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its canonical code. Returns
// coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanCouponRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &rule, nil
}

// IncrementUsage atomically increments the usage counter for the given
// canonical code. Unknown codes and exhausted limits match no row, which is
// intentionally not an error: this runs post-commit as a best-effort update.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	if _, err := r.pool.Exec(ctx, incrementCouponUsageSQL, code); err != nil {
		return fmt.Errorf("incrementing usage for coupon %q: %w", code, err)
	}
	return nil
}

// Create inserts a new coupon rule, canonicalizing its code.
func (r *CouponRepository) Create(ctx context.Context, rule *coupon.Rule) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		coupon.Canonical(rule.Code), string(rule.DiscountType), rule.Value, rule.MinOrder,
		rule.MaxDiscount, nullableLimit(rule.UsageLimit), rule.UsedCount, rule.ExpiresAt, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", rule.Code, err)
	}
	return nil
}

func nullableLimit(limit int) *int32 {
	if limit <= 0 {
		return nil
	}
	v := int32(limit)
	return &v
}

func scanCouponRule(row pgx.CollectableRow) (coupon.Rule, error) {
	var (
		rule         coupon.Rule
		discountType string
		maxDiscount  *decimal.Decimal
		usageLimit   *int32
		expiresAt    *time.Time
	)
	err := row.Scan(
		&rule.Code, &discountType, &rule.Value, &rule.MinOrder,
		&maxDiscount, &usageLimit, &rule.UsedCount, &expiresAt, &rule.Active,
	)
	rule.DiscountType = coupon.DiscountType(discountType)
	rule.MaxDiscount = maxDiscount
	rule.ExpiresAt = expiresAt
	if usageLimit != nil {
		rule.UsageLimit = int(*usageLimit)
	}
	return rule, err
}
