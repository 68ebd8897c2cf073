// Package pricing implements the dynamic price computation for catalog
// products: vendor markdown, scarcity surge, demand surge, and the price
// floor. Compute is pure; callers cache the result on the product's current
// price.
package pricing

import "github.com/shopspring/decimal"

const (
	// scarcityThreshold is the stock level below which the scarcity surge
	// kicks in.
	scarcityThreshold = 10
	// demandThreshold is the demand count above which the demand surge
	// kicks in.
	demandThreshold = 100
)

var (
	hundred          = decimal.NewFromInt(100)
	one              = decimal.NewFromInt(1)
	scarcityPremium  = decimal.RequireFromString("0.15")
	maxDemandFactor  = decimal.RequireFromString("1.10")
	demandSlope      = decimal.NewFromInt(2000)
	floorRatio       = decimal.RequireFromString("0.5")
	scarcityCapacity = decimal.NewFromInt(scarcityThreshold)
)

// Inputs are the product attributes the effective price derives from.
type Inputs struct {
	BasePrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	StockQuantity      int
	DemandCount        int
}

// Compute returns the effective sale price for the given inputs.
//
// Steps, in order, rounding half-up to 2 decimal places after each surge:
//  1. start from the base price
//  2. apply the vendor markdown (discount percentage)
//  3. scarcity surge: 0 < stock < 10 adds up to a 15% premium
//  4. demand surge: demand > 100 adds up to a 10% premium
//  5. floor the result at 50% of the base price
//
// Compute has no side effects and is idempotent on unchanged inputs.
func Compute(in Inputs) decimal.Decimal {
	price := in.BasePrice

	if in.DiscountPercentage.IsPositive() {
		markdown := price.Mul(in.DiscountPercentage).Div(hundred)
		price = price.Sub(markdown)
	}

	if in.StockQuantity > 0 && in.StockQuantity < scarcityThreshold {
		// factor = 1 + 0.15 * (1 - stock/10)
		stock := decimal.NewFromInt(int64(in.StockQuantity))
		factor := one.Add(scarcityPremium.Mul(one.Sub(stock.Div(scarcityCapacity))))
		price = price.Mul(factor).Round(2)
	}

	if in.DemandCount > demandThreshold {
		// factor = min(1.10, 1 + (demand - 100) / 2000)
		over := decimal.NewFromInt(int64(in.DemandCount - demandThreshold))
		factor := decimal.Min(maxDemandFactor, one.Add(over.Div(demandSlope)))
		price = price.Mul(factor).Round(2)
	}

	floor := in.BasePrice.Mul(floorRatio)
	return decimal.Max(price, floor)
}
