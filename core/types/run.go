// Package types - run configuration
package types

import (
	"time"

	"github.com/shopspring/decimal"

	"landed-cost/internal/errors"
)

// MarginMode selects how the pricing target is expressed
type MarginMode string

const (
	// ModeMargin targets profit as a share of selling price
	ModeMargin MarginMode = "MARGIN"

	// ModeMarkup targets profit as a share of cost
	ModeMarkup MarginMode = "MARKUP"
)

// ParseMarginMode validates a margin mode tag
func ParseMarginMode(s string) (MarginMode, bool) {
	switch MarginMode(s) {
	case ModeMargin, ModeMarkup:
		return MarginMode(s), true
	}
	return "", false
}

// FreightType is a freight cost-model tag
type FreightType string

const (
	FreightPerKg    FreightType = "PER_KG"
	FreightPerUnit  FreightType = "PER_UNIT"
	FreightPerOrder FreightType = "PER_ORDER"
	FreightFixed    FreightType = "FIXED"
)

// ParseFreightType validates a freight model tag
func ParseFreightType(s string) (FreightType, bool) {
	switch FreightType(s) {
	case FreightPerKg, FreightPerUnit, FreightPerOrder, FreightFixed:
		return FreightType(s), true
	}
	return "", false
}

// InsuranceType is an insurance cost-model tag
type InsuranceType string

const (
	InsurancePctOfValue InsuranceType = "PCT_OF_VALUE"

	// InsurancePct is a legacy alias of PCT_OF_VALUE
	InsurancePct InsuranceType = "PCT"

	InsuranceFixed   InsuranceType = "FIXED"
	InsurancePerKg   InsuranceType = "PER_KG"
	InsurancePerUnit InsuranceType = "PER_UNIT"
)

// ParseInsuranceType validates an insurance model tag
func ParseInsuranceType(s string) (InsuranceType, bool) {
	switch InsuranceType(s) {
	case InsurancePctOfValue, InsurancePct, InsuranceFixed, InsurancePerKg, InsurancePerUnit:
		return InsuranceType(s), true
	}
	return "", false
}

// RoundingMode is a selling-price rounding tag
type RoundingMode string

const (
	// RoundEndings floors the price and appends a fractional ending (x.99)
	RoundEndings RoundingMode = "ENDINGS"

	// RoundNearest snaps to the nearest multiple of the policy value
	RoundNearest RoundingMode = "NEAREST"

	// RoundUp rounds up to a whole number
	RoundUp RoundingMode = "UP"

	// RoundDown rounds down to a whole number
	RoundDown RoundingMode = "DOWN"
)

// ParseRoundingMode validates a rounding mode tag
func ParseRoundingMode(s string) (RoundingMode, bool) {
	switch RoundingMode(s) {
	case RoundEndings, RoundNearest, RoundUp, RoundDown:
		return RoundingMode(s), true
	}
	return "", false
}

// FreightModel is a tagged freight cost description
type FreightModel struct {
	Type  FreightType     `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// InsuranceModel is a tagged insurance cost description.
// Value for percentage types is a fraction (0.003 = 0.3%).
type InsuranceModel struct {
	Type  InsuranceType   `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// RoundingPolicy is a tagged selling-price rounding description.
// A nil policy means no rounding.
type RoundingPolicy struct {
	Mode  RoundingMode    `json:"mode"`
	Value decimal.Decimal `json:"value"`
}

// FxDateLatest is the sentinel as-of date meaning "most recent record"
const FxDateLatest = "latest"

// RunConfig is the per-run configuration. One RunConfig applies uniformly
// to every item in a run and is never mutated by the engine.
type RunConfig struct {
	// Destination is the destination jurisdiction
	Destination Country `json:"destination"`

	// Incoterm is informational only (echoed into breakdowns)
	Incoterm string `json:"incoterm,omitempty"`

	// FxDate is the FX as-of date, "2006-01-02", or "latest"
	FxDate string `json:"fxDate"`

	// MarginMode selects MARGIN or MARKUP pricing
	MarginMode MarginMode `json:"marginMode"`

	// MarginValue is the margin or markup target as a fraction
	MarginValue decimal.Decimal `json:"marginValue"`

	// FreightModel is the freight cost model
	FreightModel FreightModel `json:"freightModel"`

	// InsuranceModel is the insurance cost model
	InsuranceModel InsuranceModel `json:"insuranceModel"`

	// FeeOverrides, when present for the destination, fully replaces the
	// fee lookup for the run
	FeeOverrides map[Country][]Fee `json:"feesOverrides,omitempty"`

	// VatBase is the base the VAT rate is resolved against
	// (defaults to CIF_PLUS_DUTY)
	VatBase VatBase `json:"vatBase,omitempty"`

	// Rounding is the selling-price rounding policy; nil means none
	Rounding *RoundingPolicy `json:"rounding,omitempty"`
}

// FxAsOf returns the parsed FX as-of date, or latest=true for the sentinel.
// An empty FxDate means latest.
func (c *RunConfig) FxAsOf() (asOf time.Time, latest bool, err error) {
	if c.FxDate == "" || c.FxDate == FxDateLatest {
		return time.Time{}, true, nil
	}
	asOf, err = ParseDate(c.FxDate)
	if err != nil {
		return time.Time{}, false, errors.Configf("invalid fx date %q", c.FxDate)
	}
	return asOf, false, nil
}

// Validate rejects unknown enumerated tags and non-invertible margin
// targets before any rate is resolved. Unknown tags are a configuration
// error here rather than a silent zero downstream.
func (c *RunConfig) Validate() error {
	if _, ok := ParseCountry(string(c.Destination)); !ok {
		return errors.Configf("unknown destination %q", c.Destination)
	}
	if _, ok := ParseMarginMode(string(c.MarginMode)); !ok {
		return errors.Configf("unknown margin mode %q", c.MarginMode)
	}
	if c.MarginMode == ModeMargin && c.MarginValue.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.InvalidMargin(c.MarginValue.String())
	}
	if _, ok := ParseFreightType(string(c.FreightModel.Type)); !ok {
		return errors.Configf("unknown freight model type %q", c.FreightModel.Type)
	}
	if _, ok := ParseInsuranceType(string(c.InsuranceModel.Type)); !ok {
		return errors.Configf("unknown insurance model type %q", c.InsuranceModel.Type)
	}
	if c.VatBase != "" {
		if _, ok := ParseVatBase(string(c.VatBase)); !ok {
			return errors.Configf("unknown VAT base %q", c.VatBase)
		}
	}
	if c.Rounding != nil {
		if _, ok := ParseRoundingMode(string(c.Rounding.Mode)); !ok {
			return errors.Configf("unknown rounding mode %q", c.Rounding.Mode)
		}
	}
	if _, _, err := c.FxAsOf(); err != nil {
		return err
	}
	return nil
}

// ResolveVatBase returns the VAT base to resolve rates against
func (c *RunConfig) ResolveVatBase() VatBase {
	if c.VatBase == "" {
		return VatBaseCIFPlusDuty
	}
	return c.VatBase
}

// ParseDate parses a date in "2006-01-02" or RFC 3339 form
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
