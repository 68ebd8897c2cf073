package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	byID         map[int64]Product
	priceUpdates map[int64]decimal.Decimal
}

func newMockRepo(products ...Product) *mockRepo {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockRepo{byID: byID, priceUpdates: make(map[int64]decimal.Decimal)}
}

func (m *mockRepo) List(_ context.Context) ([]Product, error) { return nil, nil }

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *mockRepo) GetByIDs(_ context.Context, _ []int64) ([]Product, error) { return nil, nil }

func (m *mockRepo) ListByCategoryExcluding(_ context.Context, _, _ int64) ([]Product, error) {
	return nil, nil
}

func (m *mockRepo) ListByCategory(_ context.Context, _ int64, _ int) ([]Product, error) {
	return nil, nil
}

func (m *mockRepo) ListTopByDemand(_ context.Context, _ int) ([]Product, error) { return nil, nil }

func (m *mockRepo) ListFeatured(_ context.Context) ([]Product, error) { return nil, nil }

func (m *mockRepo) ListLowStock(_ context.Context, _ int) ([]Product, error) { return nil, nil }

func (m *mockRepo) IncrementDemand(_ context.Context, id int64) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.DemandCount++
	m.byID[id] = p
	return &p, nil
}

func (m *mockRepo) UpdateCurrentPrice(_ context.Context, id int64, price decimal.Decimal) error {
	m.priceUpdates[id] = price
	return nil
}

type mockViewRepo struct {
	recorded  [][2]int64
	recordErr error
}

func (m *mockViewRepo) RecordView(_ context.Context, userID, productID int64) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.recorded = append(m.recorded, [2]int64{userID, productID})
	return nil
}

func (m *mockViewRepo) ListRecentByUser(_ context.Context, _ int64, _ int) ([]View, error) {
	return nil, nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Tests ---

func TestGetDetail_BumpsDemand(t *testing.T) {
	repo := newMockRepo(Product{
		ID:            1,
		Name:          "Widget",
		BasePrice:     money("1000"),
		CurrentPrice:  money("1000"),
		StockQuantity: 50,
		DemandCount:   10,
		Active:        true,
	})
	svc := NewService(repo, &mockViewRepo{})

	p, err := svc.GetDetail(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 11, p.DemandCount)
}

func TestGetDetail_RepricesOnScarcity(t *testing.T) {
	repo := newMockRepo(Product{
		ID:            1,
		Name:          "Widget",
		BasePrice:     money("1000"),
		CurrentPrice:  money("1000"),
		StockQuantity: 5,
		Active:        true,
	})
	svc := NewService(repo, &mockViewRepo{})

	p, err := svc.GetDetail(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.True(t, money("1075.00").Equal(p.CurrentPrice), "price %s", p.CurrentPrice)
	persisted, ok := repo.priceUpdates[1]
	require.True(t, ok, "price must be persisted")
	assert.True(t, money("1075.00").Equal(persisted))
}

func TestGetDetail_NoWriteWhenPriceUnchanged(t *testing.T) {
	repo := newMockRepo(Product{
		ID:            1,
		Name:          "Widget",
		BasePrice:     money("1000"),
		CurrentPrice:  money("1000"),
		StockQuantity: 50,
		Active:        true,
	})
	svc := NewService(repo, &mockViewRepo{})

	_, err := svc.GetDetail(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, repo.priceUpdates)
}

func TestGetDetail_RecordsViewForKnownUser(t *testing.T) {
	repo := newMockRepo(Product{
		ID: 1, BasePrice: money("100"), CurrentPrice: money("100"), StockQuantity: 50, Active: true,
	})
	views := &mockViewRepo{}
	svc := NewService(repo, views)

	_, err := svc.GetDetail(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{7, 1}}, views.recorded)
}

func TestGetDetail_AnonymousSkipsView(t *testing.T) {
	repo := newMockRepo(Product{
		ID: 1, BasePrice: money("100"), CurrentPrice: money("100"), StockQuantity: 50, Active: true,
	})
	views := &mockViewRepo{}
	svc := NewService(repo, views)

	_, err := svc.GetDetail(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, views.recorded)
}

func TestGetDetail_ViewFailureIsSwallowed(t *testing.T) {
	repo := newMockRepo(Product{
		ID: 1, BasePrice: money("100"), CurrentPrice: money("100"), StockQuantity: 50, Active: true,
	})
	svc := NewService(repo, &mockViewRepo{recordErr: errors.New("db down")})

	_, err := svc.GetDetail(context.Background(), 1, 7)
	require.NoError(t, err)
}

func TestGetDetail_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), &mockViewRepo{})

	_, err := svc.GetDetail(context.Background(), 42, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}
