// Package fees sums a set of fee rules into a total plus an itemized list.
// Fees are computed independently; no fee depends on another fee's output.
package fees

import (
	"github.com/shopspring/decimal"

	"landed-cost/core/types"
)

// Aggregate applies each fee rule to an item and returns the total with
// the itemized lines preserved verbatim for the audit breakdown.
//
//	FIXED     value
//	PER_KG    value * weightKg
//	PER_UNIT  value * units
//	PCT       value * customsValue
func Aggregate(rules []types.Fee, customsValue, weightKg decimal.Decimal, units int64) (decimal.Decimal, []types.AppliedFee) {
	total := decimal.Zero
	applied := make([]types.AppliedFee, 0, len(rules))

	for _, fee := range rules {
		var amount decimal.Decimal
		switch fee.Method {
		case types.FeeFixed:
			amount = fee.Value
		case types.FeePerKg:
			amount = fee.Value.Mul(weightKg)
		case types.FeePerUnit:
			amount = fee.Value.Mul(decimal.NewFromInt(units))
		case types.FeePct:
			amount = fee.Value.Mul(customsValue)
		default:
			amount = decimal.Zero
		}

		total = total.Add(amount)
		applied = append(applied, types.AppliedFee{
			ID:     fee.ID,
			Name:   fee.Name,
			Method: fee.Method,
			Value:  fee.Value,
			Amount: amount,
		})
	}

	return total, applied
}
