// Package margin inverts a landed cost into a selling price for a margin
// or markup target.
//
// MARGIN targets profit as a share of selling price, so the inversion is
// price = cost / (1 - m) with a singularity at m = 1. MARKUP targets
// profit as a share of cost: price = cost * (1 + m), no singularity.
package margin

import (
	"github.com/shopspring/decimal"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

var one = decimal.NewFromInt(1)

// SellingPrice inverts landedCost into a selling price. In MARGIN mode a
// value >= 1 is rejected before the division is attempted: at exactly 1
// the formula divides by zero, above 1 it yields a negative price. MARKUP
// accepts any value; a negative markup is a discount and is left to
// caller policy.
func SellingPrice(landedCost decimal.Decimal, mode types.MarginMode, value decimal.Decimal) (decimal.Decimal, error) {
	switch mode {
	case types.ModeMargin:
		if value.GreaterThanOrEqual(one) {
			return decimal.Decimal{}, errors.InvalidMargin(value.String())
		}
		return landedCost.Div(one.Sub(value)), nil
	case types.ModeMarkup:
		return landedCost.Mul(one.Add(value)), nil
	default:
		return decimal.Decimal{}, errors.Configf("unknown margin mode %q", mode)
	}
}

// Actual recomputes the achieved margin after rounding,
// (sellingPrice - landedCost) / sellingPrice. This is the value reported
// as marginPct; it differs from the requested target once rounding has
// moved the price. A zero selling price reports a zero margin.
func Actual(sellingPrice, landedCost decimal.Decimal) decimal.Decimal {
	if sellingPrice.IsZero() {
		return decimal.Zero
	}
	return sellingPrice.Sub(landedCost).Div(sellingPrice)
}
