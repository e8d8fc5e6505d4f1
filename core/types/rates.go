// Package types defines the plain data records exchanged between the
// pricing engine and its collaborators: rate records, import items, run
// configuration, and run results. Records are immutable once handed to a
// run; nothing in this package touches a store.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Country is a destination jurisdiction
type Country string

const (
	CountryUK Country = "UK"
	CountryUS Country = "US"
	CountryEU Country = "EU"
)

// String returns the string representation
func (c Country) String() string {
	return string(c)
}

// ParseCountry validates a destination jurisdiction tag
func ParseCountry(s string) (Country, bool) {
	switch Country(s) {
	case CountryUK, CountryUS, CountryEU:
		return Country(s), true
	}
	return "", false
}

// VatBase identifies the monetary base VAT is computed against
type VatBase string

const (
	// VatBaseCIF taxes the customs value only
	VatBaseCIF VatBase = "CIF"

	// VatBaseCIFPlusDuty taxes customs value plus duty
	VatBaseCIFPlusDuty VatBase = "CIF_PLUS_DUTY"

	// VatBaseCIFPlusDutyFees taxes customs value plus duty plus fees
	VatBaseCIFPlusDutyFees VatBase = "CIF_PLUS_DUTY_FEES"
)

// ParseVatBase validates a VAT-base tag
func ParseVatBase(s string) (VatBase, bool) {
	switch VatBase(s) {
	case VatBaseCIF, VatBaseCIFPlusDuty, VatBaseCIFPlusDutyFees:
		return VatBase(s), true
	}
	return "", false
}

// FeeMethod is how a fee amount is derived from an item
type FeeMethod string

const (
	FeeFixed   FeeMethod = "FIXED"
	FeePerKg   FeeMethod = "PER_KG"
	FeePerUnit FeeMethod = "PER_UNIT"
	FeePct     FeeMethod = "PCT"
)

// ParseFeeMethod validates a fee method tag
func ParseFeeMethod(s string) (FeeMethod, bool) {
	switch FeeMethod(s) {
	case FeeFixed, FeePerKg, FeePerUnit, FeePct:
		return FeeMethod(s), true
	}
	return "", false
}

// FxRate is an exchange-rate record: PKR conversion factors to each
// destination currency as of a given date.
type FxRate struct {
	// ID uniquely identifies this record
	ID string `json:"id"`

	// AsOfDate is the date the factors were observed
	AsOfDate time.Time `json:"asOfDate"`

	// PkrToGbp converts PKR to GBP (UK destination)
	PkrToGbp decimal.Decimal `json:"pkrToGbp"`

	// PkrToUsd converts PKR to USD (US destination)
	PkrToUsd decimal.Decimal `json:"pkrToUsd"`

	// PkrToEur converts PKR to EUR (EU destination)
	PkrToEur decimal.Decimal `json:"pkrToEur"`
}

// FactorFor returns the conversion factor for a destination
func (r *FxRate) FactorFor(dest Country) (decimal.Decimal, bool) {
	switch dest {
	case CountryUK:
		return r.PkrToGbp, true
	case CountryUS:
		return r.PkrToUsd, true
	case CountryEU:
		return r.PkrToEur, true
	}
	return decimal.Decimal{}, false
}

// DutyRate is an effective-dated duty rate scoped by country and HS code
type DutyRate struct {
	// ID uniquely identifies this record
	ID string `json:"id"`

	// Country is the destination jurisdiction
	Country Country `json:"country"`

	// HsCode is the Harmonized System code the rate applies to
	HsCode string `json:"hsCode"`

	// RatePercent is the duty rate as a fraction (0.035 = 3.5%)
	RatePercent decimal.Decimal `json:"ratePercent"`

	// EffectiveFrom is when the rate takes effect
	EffectiveFrom time.Time `json:"effectiveFrom"`

	// EffectiveTo bounds the validity window; nil means open-ended
	EffectiveTo *time.Time `json:"effectiveTo,omitempty"`
}

// VatRate is an effective-dated VAT rate scoped by country and base
type VatRate struct {
	// ID uniquely identifies this record
	ID string `json:"id"`

	// Country is the destination jurisdiction
	Country Country `json:"country"`

	// Base is the monetary base the rate applies to
	Base VatBase `json:"base"`

	// RatePercent is the VAT rate as a fraction (0.20 = 20%)
	RatePercent decimal.Decimal `json:"ratePercent"`

	// EffectiveFrom is when the rate takes effect
	EffectiveFrom time.Time `json:"effectiveFrom"`

	// EffectiveTo bounds the validity window; nil means open-ended
	EffectiveTo *time.Time `json:"effectiveTo,omitempty"`
}

// Fee is a per-country fee rule
type Fee struct {
	// ID uniquely identifies this record
	ID string `json:"id"`

	// Country is the destination jurisdiction
	Country Country `json:"country"`

	// Name is the human-readable fee name
	Name string `json:"name"`

	// Method is how the amount is derived
	Method FeeMethod `json:"method"`

	// Value is the fee value; a fraction for PCT, an amount otherwise
	Value decimal.Decimal `json:"value"`
}
