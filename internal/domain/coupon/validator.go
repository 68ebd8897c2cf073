package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a coupon code against an order amount and returns the
// computed discount. It never mutates the coupon: usage counting happens
// separately, after the order commits (see Repository.IncrementUsage).
type Validator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error)
}

// RepoValidator implements Validator by looking up coupon rules from a
// Repository and applying them via the Apply function.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate canonicalizes the code, looks up its rule, and applies it to the
// order amount. It returns ErrNotFound for unknown codes.
func (v *RepoValidator) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	rule, err := v.repo.FindByCode(ctx, Canonical(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	return Apply(rule, orderAmount, v.now())
}
