// Package costmodel evaluates freight and insurance per-unit costs from
// tagged cost-model descriptions. Both evaluators are pure functions.
package costmodel

import (
	"github.com/shopspring/decimal"

	"landed-cost/core/types"
)

// Freight returns the per-unit freight cost for an item.
//
//	PER_KG    weightKg * value
//	PER_UNIT  value
//	PER_ORDER value / units
//	FIXED     value
//
// An unrecognized type evaluates to zero; RunConfig.Validate rejects
// unknown tags before a run reaches this point.
func Freight(m types.FreightModel, weightKg decimal.Decimal, units int64) decimal.Decimal {
	switch m.Type {
	case types.FreightPerKg:
		return weightKg.Mul(m.Value)
	case types.FreightPerUnit:
		return m.Value
	case types.FreightPerOrder:
		if units <= 0 {
			return decimal.Zero
		}
		return m.Value.Div(decimal.NewFromInt(units))
	case types.FreightFixed:
		return m.Value
	default:
		return decimal.Zero
	}
}

// Insurance returns the per-unit insurance cost for an item. baseValue is
// the purchase price already converted to the destination currency.
//
//	PCT_OF_VALUE / PCT  baseValue * value
//	FIXED               value
//	PER_KG              weightKg * value
//	PER_UNIT            value
//
// Value for percentage types is a fraction (0.003 = 0.3%). Unrecognized
// types evaluate to zero, as with Freight.
func Insurance(m types.InsuranceModel, baseValue, weightKg decimal.Decimal, units int64) decimal.Decimal {
	switch m.Type {
	case types.InsurancePctOfValue, types.InsurancePct:
		return baseValue.Mul(m.Value)
	case types.InsuranceFixed:
		return m.Value
	case types.InsurancePerKg:
		return weightKg.Mul(m.Value)
	case types.InsurancePerUnit:
		return m.Value
	default:
		return decimal.Zero
	}
}
