package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	rules      map[string]*Rule
	findErr    error
	lookups    []string
	increments []string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Rule, error) {
	m.lookups = append(m.lookups, code)
	if m.findErr != nil {
		return nil, m.findErr
	}
	rule, ok := m.rules[code]
	if !ok {
		return nil, ErrNotFound
	}
	return rule, nil
}

func (m *mockCouponRepo) IncrementUsage(_ context.Context, code string) error {
	m.increments = append(m.increments, code)
	return nil
}

func (m *mockCouponRepo) Create(_ context.Context, _ *Rule) error {
	return nil
}

func newValidator(repo *mockCouponRepo) *RepoValidator {
	v := NewRepoValidator(repo)
	v.now = func() time.Time { return testNow }
	return v
}

func TestValidate_Success(t *testing.T) {
	repo := &mockCouponRepo{rules: map[string]*Rule{
		"NEURO10": percentRule("10"),
	}}
	v := newValidator(repo)

	got, err := v.Validate(context.Background(), "NEURO10", amount("2500"))
	require.NoError(t, err)
	assert.True(t, amount("250.00").Equal(got), "got %s", got)
}

func TestValidate_CanonicalizesCode(t *testing.T) {
	repo := &mockCouponRepo{rules: map[string]*Rule{
		"NEURO10": percentRule("10"),
	}}
	v := newValidator(repo)

	_, err := v.Validate(context.Background(), "  neuro10 ", amount("2500"))
	require.NoError(t, err)
	assert.Equal(t, []string{"NEURO10"}, repo.lookups)
}

func TestValidate_NotFound(t *testing.T) {
	v := newValidator(&mockCouponRepo{rules: map[string]*Rule{}})

	_, err := v.Validate(context.Background(), "BOGUS", amount("2500"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_RepoError(t *testing.T) {
	v := newValidator(&mockCouponRepo{findErr: errors.New("db down")})

	_, err := v.Validate(context.Background(), "NEURO10", amount("2500"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup coupon")
}

func TestValidate_DoesNotIncrementUsage(t *testing.T) {
	repo := &mockCouponRepo{rules: map[string]*Rule{
		"NEURO10": percentRule("10"),
	}}
	v := newValidator(repo)

	_, err := v.Validate(context.Background(), "NEURO10", amount("2500"))
	require.NoError(t, err)
	assert.Empty(t, repo.increments)
}
