// Package rounding applies a selling-price rounding policy.
package rounding

import (
	"github.com/shopspring/decimal"

	"landed-cost/core/types"
)

// Apply rounds a price per the policy. A nil policy is a no-op.
//
//	ENDINGS  floor(price) + value; value is a fractional ending (0.99
//	         turns 5.365 into 5.99). Only sensible for 0 <= value < 1;
//	         out-of-range values are accepted without validation.
//	NEAREST  round(price / value) * value
//	UP       ceil(price)
//	DOWN     floor(price)
//
// An unrecognized mode leaves the price unchanged.
func Apply(price decimal.Decimal, policy *types.RoundingPolicy) decimal.Decimal {
	if policy == nil || policy.Mode == "" {
		return price
	}

	switch policy.Mode {
	case types.RoundEndings:
		return price.Floor().Add(policy.Value)
	case types.RoundNearest:
		if policy.Value.IsZero() {
			return price
		}
		return price.Div(policy.Value).Round(0).Mul(policy.Value)
	case types.RoundUp:
		return price.Ceil()
	case types.RoundDown:
		return price.Floor()
	default:
		return price
	}
}
