// Package types - pricing results, breakdowns, and run snapshots
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownInputs echoes the raw item and config inputs of a calculation
type BreakdownInputs struct {
	SKU         string          `json:"sku"`
	HsCode      string          `json:"hsCode"`
	BasePkr     decimal.Decimal `json:"basePkr"`
	WeightKg    decimal.Decimal `json:"weightKg"`
	VolumeM3    decimal.Decimal `json:"volumeM3"`
	Units       int64           `json:"units"`
	Destination Country         `json:"destination"`
	Incoterm    string          `json:"incoterm"`
	MarginMode  MarginMode      `json:"marginMode"`
	MarginValue decimal.Decimal `json:"marginValue"`
}

// FxRateUsed records the FX rate applied to an item
type FxRateUsed struct {
	ID       string          `json:"id"`
	AsOfDate time.Time       `json:"asOfDate"`
	Rate     decimal.Decimal `json:"rate"`
}

// DutyRateUsed records the duty rate applied to an item; a nil value in
// the breakdown means no duty rate was resolved and duty was zero.
type DutyRateUsed struct {
	ID          string          `json:"id"`
	HsCode      string          `json:"hsCode"`
	RatePercent decimal.Decimal `json:"ratePercent"`
}

// VatRateUsed records the VAT rate applied to an item; a nil value in the
// breakdown means no VAT rate was resolved and tax was zero.
type VatRateUsed struct {
	ID          string          `json:"id"`
	Base        VatBase         `json:"base"`
	RatePercent decimal.Decimal `json:"ratePercent"`
}

// AppliedFee is one fee line of a calculation, preserved verbatim for audit
type AppliedFee struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Method FeeMethod       `json:"method"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// BreakdownRates records every rate that fed a calculation
type BreakdownRates struct {
	FxRate   FxRateUsed    `json:"fxRate"`
	DutyRate *DutyRateUsed `json:"dutyRate"`
	VatRate  *VatRateUsed  `json:"vatRate"`
	Fees     []AppliedFee  `json:"fees"`
}

// Calculations holds every intermediate and final number of the pipeline,
// sufficient to regenerate the result without re-querying rates.
type Calculations struct {
	Base             decimal.Decimal `json:"base"`
	FreightPerUnit   decimal.Decimal `json:"freightPerUnit"`
	InsurancePerUnit decimal.Decimal `json:"insurancePerUnit"`
	CustomsValue     decimal.Decimal `json:"customsValue"`
	Duty             decimal.Decimal `json:"duty"`
	TotalFees        decimal.Decimal `json:"totalFees"`
	VatBaseAmount    decimal.Decimal `json:"vatBaseAmount"`
	Tax              decimal.Decimal `json:"tax"`
	LandedCost       decimal.Decimal `json:"landedCost"`
	SellingPrice     decimal.Decimal `json:"sellingPrice"`
	MarginPct        decimal.Decimal `json:"marginPct"`
}

// BreakdownModels records the cost-model configs used
type BreakdownModels struct {
	FreightModel   FreightModel    `json:"freightModel"`
	InsuranceModel InsuranceModel  `json:"insuranceModel"`
	Rounding       *RoundingPolicy `json:"rounding"`
}

// Breakdown is the per-item audit record. The four-way grouping
// (inputs/rates/calculations/models) is the contract external consumers
// depend on.
type Breakdown struct {
	Inputs       BreakdownInputs `json:"inputs"`
	Rates        BreakdownRates  `json:"rates"`
	Calculations Calculations    `json:"calculations"`
	Models       BreakdownModels `json:"models"`
}

// PricingResult is the per-item output of a run
type PricingResult struct {
	// ImportItemID links back to the priced item
	ImportItemID string `json:"importItemId"`

	// BasePkr is the per-unit purchase price in source currency
	BasePkr decimal.Decimal `json:"basePkr"`

	// SellingPrice is the rounded target selling price per unit
	SellingPrice decimal.Decimal `json:"sellingPrice"`

	// LandedCost is the per-unit landed cost
	LandedCost decimal.Decimal `json:"landedCost"`

	// MarginPct is the actual margin after rounding,
	// (sellingPrice - landedCost) / sellingPrice
	MarginPct decimal.Decimal `json:"marginPct"`

	// Breakdown is the full audit record
	Breakdown Breakdown `json:"breakdownJson"`
}

// RateSnapshot captures the exact rate and fee records a run resolved,
// with their ids and effective dates. Stored alongside results so a later
// rate change cannot silently alter a historical run.
type RateSnapshot struct {
	// FxRate is the single FX record used for the run
	FxRate FxRate `json:"fxRate"`

	// DutyRates holds one resolved record per distinct HS code, sorted by
	// HS code for deterministic export
	DutyRates []DutyRate `json:"dutyRates"`

	// VatRate is the resolved VAT record, nil if none covered the run
	VatRate *VatRate `json:"vatRate"`

	// Fees are the fee rules in effect for the run
	Fees []Fee `json:"fees"`

	// ContentHash is the SHA-256 of the canonical snapshot JSON, for
	// verifying an exported snapshot against a replayed run
	ContentHash string `json:"contentHash,omitempty"`
}

// ComputeHash returns the SHA-256 hex digest of the snapshot content,
// excluding the hash field itself.
func (s *RateSnapshot) ComputeHash() string {
	shadow := *s
	shadow.ContentHash = ""
	data, _ := json.Marshal(shadow)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Seal computes and stores the content hash
func (s *RateSnapshot) Seal() {
	s.ContentHash = s.ComputeHash()
}

// Verify checks snapshot integrity against its stored hash
func (s *RateSnapshot) Verify() bool {
	return s.ContentHash == s.ComputeHash()
}

// RunTotals aggregates a run. The average margin is computed from the
// aggregated sums, not by averaging per-item percentages.
type RunTotals struct {
	// Items is the number of item lines priced
	Items int `json:"items"`

	// Units is the total unit count across items
	Units int64 `json:"units"`

	// Base is the sum of per-unit bases in destination currency
	Base decimal.Decimal `json:"base"`

	// LandedCost is the sum of per-unit landed costs
	LandedCost decimal.Decimal `json:"landedCost"`

	// SellingPrice is the sum of per-unit selling prices
	SellingPrice decimal.Decimal `json:"sellingPrice"`

	// AvgMarginPct is (ΣsellingPrice - ΣlandedCost) / ΣsellingPrice
	AvgMarginPct decimal.Decimal `json:"avgMarginPct"`
}

// RunResult is the complete output of a pricing run
type RunResult struct {
	// RunID uniquely identifies the run
	RunID string `json:"runId"`

	// CreatedAt is when the run executed
	CreatedAt time.Time `json:"createdAt"`

	// Config echoes the run configuration
	Config RunConfig `json:"config"`

	// Results holds one PricingResult per item, in input order
	Results []PricingResult `json:"results"`

	// SnapshotRates is the reproducibility contract: every resolved
	// rate/fee record with id and effective date
	SnapshotRates RateSnapshot `json:"snapshotRates"`

	// Totals are the run-level aggregates
	Totals RunTotals `json:"totals"`
}
