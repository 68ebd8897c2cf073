package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_BaseOnly(t *testing.T) {
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 50})
	assert.True(t, price("1000").Equal(got), "got %s", got)
}

func TestCompute_Markdown(t *testing.T) {
	got := Compute(Inputs{
		BasePrice:          price("1000"),
		DiscountPercentage: price("20"),
		StockQuantity:      50,
	})
	assert.True(t, price("800").Equal(got), "got %s", got)
}

func TestCompute_ScarcitySurge(t *testing.T) {
	// factor = 1 + 0.15 * (1 - 5/10) = 1.075
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 5})
	assert.True(t, price("1075.00").Equal(got), "got %s", got)
}

func TestCompute_ScarcityMaxPremium(t *testing.T) {
	// stock=1: factor = 1 + 0.15 * 0.9 = 1.135
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 1})
	assert.True(t, price("1135.00").Equal(got), "got %s", got)
}

func TestCompute_NoScarcityAtZeroStock(t *testing.T) {
	// Sold out is not scarce; no surge applies.
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 0})
	assert.True(t, price("1000").Equal(got), "got %s", got)
}

func TestCompute_NoScarcityAtThreshold(t *testing.T) {
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 10})
	assert.True(t, price("1000").Equal(got), "got %s", got)
}

func TestCompute_DemandSurge(t *testing.T) {
	// demand=300: factor = 1 + 200/2000 = 1.10
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 50, DemandCount: 300})
	assert.True(t, price("1100.00").Equal(got), "got %s", got)
}

func TestCompute_DemandSurgeCapped(t *testing.T) {
	// demand=5000 would give factor 3.45; capped at 1.10.
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 50, DemandCount: 5000})
	assert.True(t, price("1100.00").Equal(got), "got %s", got)
}

func TestCompute_NoDemandSurgeAtThreshold(t *testing.T) {
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 50, DemandCount: 100})
	assert.True(t, price("1000").Equal(got), "got %s", got)
}

func TestCompute_SurgesStack(t *testing.T) {
	// scarcity first: 1000 * 1.075 = 1075.00
	// then demand:    1075 * 1.05  = 1128.75
	got := Compute(Inputs{BasePrice: price("1000"), StockQuantity: 5, DemandCount: 200})
	assert.True(t, price("1128.75").Equal(got), "got %s", got)
}

func TestCompute_Floor(t *testing.T) {
	// 60% markdown lands at 400, below the 500 floor.
	got := Compute(Inputs{
		BasePrice:          price("1000"),
		DiscountPercentage: price("60"),
		StockQuantity:      50,
	})
	assert.True(t, price("500").Equal(got), "got %s", got)
}

func TestCompute_FloorUsesBasePriceNotMarkdown(t *testing.T) {
	// Surges lift the heavily marked-down price but it may still sit on
	// the floor: 100 * 0.3 = 30, surged 30*1.135 = 34.05, floor = 50.
	got := Compute(Inputs{
		BasePrice:          price("100"),
		DiscountPercentage: price("70"),
		StockQuantity:      1,
	})
	assert.True(t, price("50").Equal(got), "got %s", got)
}

func TestCompute_Idempotent(t *testing.T) {
	in := Inputs{
		BasePrice:          price("249.99"),
		DiscountPercentage: price("12.5"),
		StockQuantity:      3,
		DemandCount:        1234,
	}
	first := Compute(in)
	second := Compute(in)
	assert.True(t, first.Equal(second))
}

func TestCompute_RoundingHalfUp(t *testing.T) {
	// 99.99 * 1.075 = 107.48925 -> 107.49
	got := Compute(Inputs{BasePrice: price("99.99"), StockQuantity: 5})
	assert.True(t, price("107.49").Equal(got), "got %s", got)
}
