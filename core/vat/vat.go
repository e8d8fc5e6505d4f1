// Package vat selects the monetary base VAT is computed against.
package vat

import (
	"github.com/shopspring/decimal"

	"landed-cost/core/types"
)

// BaseAmount returns the sum the VAT rate applies to. An unknown tag
// defaults to CIF.
func BaseAmount(base types.VatBase, customsValue, duty, fees decimal.Decimal) decimal.Decimal {
	switch base {
	case types.VatBaseCIF:
		return customsValue
	case types.VatBaseCIFPlusDuty:
		return customsValue.Add(duty)
	case types.VatBaseCIFPlusDutyFees:
		return customsValue.Add(duty).Add(fees)
	default:
		return customsValue
	}
}
