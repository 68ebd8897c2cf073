package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/market-engine/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID       map[int64]product.Product
	byCategory map[int64][]product.Product
	topDemand  []product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListByCategoryExcluding(_ context.Context, categoryID, excludedID int64) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byCategory[categoryID] {
		if p.ID != excludedID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListByCategory(_ context.Context, categoryID int64, limit int) ([]product.Product, error) {
	out := m.byCategory[categoryID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepo) ListTopByDemand(_ context.Context, limit int) ([]product.Product, error) {
	out := m.topDemand
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepo) ListFeatured(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) ListLowStock(_ context.Context, _ int) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) IncrementDemand(_ context.Context, _ int64) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) UpdateCurrentPrice(_ context.Context, _ int64, _ decimal.Decimal) error {
	return nil
}

type mockViewRepo struct {
	views []product.View
}

func (m *mockViewRepo) RecordView(_ context.Context, _, _ int64) error { return nil }

func (m *mockViewRepo) ListRecentByUser(_ context.Context, _ int64, limit int) ([]product.View, error) {
	out := m.views
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Helpers ---

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func catalogProduct(id, categoryID int64, name string, currentPrice string) product.Product {
	return product.Product{
		ID:           id,
		Name:         name,
		CurrentPrice: money(currentPrice),
		Active:       true,
		CategoryID:   categoryID,
	}
}

func newCatalog(products ...product.Product) *mockProductRepo {
	byID := make(map[int64]product.Product, len(products))
	byCategory := make(map[int64][]product.Product)
	for _, p := range products {
		byID[p.ID] = p
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}
	return &mockProductRepo{byID: byID, byCategory: byCategory}
}

func view(productID, categoryID int64) product.View {
	return product.View{
		UserID:       7,
		ProductID:    productID,
		CategoryID:   categoryID,
		ViewCount:    1,
		LastViewedAt: time.Now(),
	}
}

// --- Tests ---

func TestAlternatives_FirstCheaperWins(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Widget", "100.00"),
		catalogProduct(2, 1, "Pricier Widget", "150.00"),
		catalogProduct(3, 1, "Budget Widget", "70.00"),
		catalogProduct(4, 1, "Cheapest Widget", "40.00"),
	)
	svc := NewService(catalog, &mockViewRepo{})

	alts, err := svc.Alternatives(context.Background(), []CartItem{
		{Product: catalog.byID[1], Quantity: 1},
	})
	require.NoError(t, err)

	// First cheaper in catalog order, not the globally cheapest.
	require.Len(t, alts, 1)
	assert.Equal(t, int64(3), alts[0].AlternativeProductID)
	assert.True(t, money("30.00").Equal(alts[0].Savings), "savings %s", alts[0].Savings)
}

func TestAlternatives_NoneCheaper(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Budget Widget", "40.00"),
		catalogProduct(2, 1, "Widget", "100.00"),
	)
	svc := NewService(catalog, &mockViewRepo{})

	alts, err := svc.Alternatives(context.Background(), []CartItem{
		{Product: catalog.byID[1], Quantity: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, alts)
}

func TestAlternatives_EqualPriceNotSuggested(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Widget", "100.00"),
		catalogProduct(2, 1, "Twin Widget", "100.00"),
	)
	svc := NewService(catalog, &mockViewRepo{})

	alts, err := svc.Alternatives(context.Background(), []CartItem{
		{Product: catalog.byID[1], Quantity: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, alts)
}

func TestBundleOffer(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Widget", "1000.00"),
		catalogProduct(2, 1, "Gadget", "500.00"),
	)
	svc := NewService(catalog, &mockViewRepo{})

	bundle, err := svc.BundleOffer(context.Background(), []CartItem{
		{Product: catalog.byID[1], Quantity: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, bundle)
	assert.Equal(t, "Popular Bundle - Save 10%", bundle.Name)
	assert.Equal(t, []int64{1, 2}, bundle.ProductIDs)
	assert.True(t, money("1500.00").Equal(bundle.OriginalTotal))
	assert.True(t, money("1350.00").Equal(bundle.BundlePrice), "price %s", bundle.BundlePrice)
	assert.True(t, money("150.00").Equal(bundle.Savings), "savings %s", bundle.Savings)
}

func TestBundleOffer_EmptyCart(t *testing.T) {
	svc := NewService(newCatalog(), &mockViewRepo{})

	bundle, err := svc.BundleOffer(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, bundle)
}

func TestBundleOffer_NoCompanion(t *testing.T) {
	catalog := newCatalog(catalogProduct(1, 1, "Widget", "1000.00"))
	svc := NewService(catalog, &mockViewRepo{})

	bundle, err := svc.BundleOffer(context.Background(), []CartItem{
		{Product: catalog.byID[1], Quantity: 1},
	})
	require.NoError(t, err)
	assert.Nil(t, bundle)
}

func TestRecommendations_FromViewedCategories(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Phone", "100"),
		catalogProduct(2, 1, "Laptop", "200"),
		catalogProduct(3, 2, "Jacket", "50"),
		catalogProduct(4, 3, "Shoes", "80"),
	)
	views := &mockViewRepo{views: []product.View{
		view(1, 1),
		view(3, 2),
	}}
	svc := NewService(catalog, views)

	got, err := svc.Recommendations(context.Background(), 7)
	require.NoError(t, err)

	// Category 1 contributes both products, category 2 its one, and the
	// empty top-demand list pads nothing.
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, int64(3), got[2].ID)
}

func TestRecommendations_PadsWithTopDemand(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Phone", "100"),
		catalogProduct(4, 3, "Shoes", "80"),
		catalogProduct(5, 3, "Ball", "20"),
	)
	catalog.topDemand = []product.Product{
		catalog.byID[1], // already recommended, must not repeat
		catalog.byID[4],
		catalog.byID[5],
	}
	views := &mockViewRepo{views: []product.View{view(1, 1)}}
	svc := NewService(catalog, views)

	got, err := svc.Recommendations(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, int64(5), got[2].ID)
}

func TestRecommendations_CappedAtEight(t *testing.T) {
	products := make([]product.Product, 0, 12)
	for i := int64(1); i <= 4; i++ {
		products = append(products, catalogProduct(i, 1, "A", "10"))
	}
	for i := int64(5); i <= 8; i++ {
		products = append(products, catalogProduct(i, 2, "B", "10"))
	}
	for i := int64(9); i <= 12; i++ {
		products = append(products, catalogProduct(i, 3, "C", "10"))
	}
	catalog := newCatalog(products...)
	catalog.topDemand = products

	views := &mockViewRepo{views: []product.View{
		view(1, 1), view(5, 2), view(9, 3),
	}}
	svc := NewService(catalog, views)

	got, err := svc.Recommendations(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestRecommendations_ColdStart(t *testing.T) {
	catalog := newCatalog(
		catalogProduct(1, 1, "Phone", "100"),
		catalogProduct(2, 1, "Laptop", "200"),
	)
	catalog.topDemand = []product.Product{catalog.byID[2], catalog.byID[1]}
	svc := NewService(catalog, &mockViewRepo{})

	got, err := svc.Recommendations(context.Background(), 7)
	require.NoError(t, err)

	// No view history falls back to pure top-demand order.
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestSimilar(t *testing.T) {
	products := []product.Product{catalogProduct(1, 1, "Widget", "100")}
	for i := int64(2); i <= 9; i++ {
		products = append(products, catalogProduct(i, 1, "Widget Variant", "90"))
	}
	catalog := newCatalog(products...)
	svc := NewService(catalog, &mockViewRepo{})

	got, err := svc.Similar(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, got, 6)
	for _, p := range got {
		assert.NotEqual(t, int64(1), p.ID)
	}
}

func TestSimilar_UnknownProduct(t *testing.T) {
	svc := NewService(newCatalog(), &mockViewRepo{})

	_, err := svc.Similar(context.Background(), 42)
	assert.ErrorIs(t, err, product.ErrNotFound)
}
