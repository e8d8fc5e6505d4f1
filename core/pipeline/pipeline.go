// Package pipeline composes the cost pipeline for a single item and
// assembles its audit breakdown.
//
// Per item, in fixed order: convert the purchase price to the destination
// currency, evaluate freight and insurance, form the customs value, apply
// duty, aggregate fees, select the VAT base, apply VAT, sum the landed
// cost, invert the margin target, round, and recompute the achieved
// margin. Duty and VAT gaps contribute zero and record a null rate in the
// breakdown; the pipeline itself never touches a store.
package pipeline

import (
	"github.com/shopspring/decimal"

	"landed-cost/core/costmodel"
	"landed-cost/core/fees"
	"landed-cost/core/margin"
	"landed-cost/core/rounding"
	"landed-cost/core/types"
	"landed-cost/core/vat"
	"landed-cost/internal/errors"
)

// RateBundle is the shared, immutable rate set resolved once per run.
// Duty is keyed by HS code; absent keys mean no duty record resolved.
type RateBundle struct {
	// Fx is the FX record for the run; never nil
	Fx *types.FxRate

	// Duty maps HS code to the resolved duty record
	Duty map[string]*types.DutyRate

	// Vat is the resolved VAT record, nil when none covered the run
	Vat *types.VatRate

	// Fees are the fee rules in effect
	Fees []types.Fee
}

// PriceItem runs the cost pipeline for one item and returns its result
// with the full breakdown.
func PriceItem(item types.ImportItem, cfg types.RunConfig, bundle RateBundle) (types.PricingResult, error) {
	product := item.Product

	fxFactor, ok := bundle.Fx.FactorFor(cfg.Destination)
	if !ok {
		return types.PricingResult{}, errors.Configf("no FX factor for destination %q", cfg.Destination).
			WithContext("item", item.ID)
	}

	// Purchase price in destination currency
	base := item.PurchasePricePkr.Mul(fxFactor)

	freightPerUnit := costmodel.Freight(cfg.FreightModel, product.WeightKg, item.Units)
	insurancePerUnit := costmodel.Insurance(cfg.InsuranceModel, base, product.WeightKg, item.Units)

	customsValue := base.Add(freightPerUnit).Add(insurancePerUnit)

	duty := decimal.Zero
	var dutyUsed *types.DutyRateUsed
	if rec := bundle.Duty[product.HsCode]; rec != nil {
		duty = customsValue.Mul(rec.RatePercent)
		dutyUsed = &types.DutyRateUsed{
			ID:          rec.ID,
			HsCode:      rec.HsCode,
			RatePercent: rec.RatePercent,
		}
	}

	totalFees, appliedFees := fees.Aggregate(bundle.Fees, customsValue, product.WeightKg, item.Units)

	vatBase := types.VatBaseCIF
	if bundle.Vat != nil {
		vatBase = bundle.Vat.Base
	}
	vatBaseAmount := vat.BaseAmount(vatBase, customsValue, duty, totalFees)

	tax := decimal.Zero
	var vatUsed *types.VatRateUsed
	if bundle.Vat != nil {
		tax = vatBaseAmount.Mul(bundle.Vat.RatePercent)
		vatUsed = &types.VatRateUsed{
			ID:          bundle.Vat.ID,
			Base:        bundle.Vat.Base,
			RatePercent: bundle.Vat.RatePercent,
		}
	}

	landedCost := customsValue.Add(duty).Add(totalFees).Add(tax)

	sellingPrice, err := margin.SellingPrice(landedCost, cfg.MarginMode, cfg.MarginValue)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return types.PricingResult{}, e.WithContext("item", item.ID)
		}
		return types.PricingResult{}, err
	}

	sellingPrice = rounding.Apply(sellingPrice, cfg.Rounding)

	marginPct := margin.Actual(sellingPrice, landedCost)

	breakdown := types.Breakdown{
		Inputs: types.BreakdownInputs{
			SKU:         product.SKU,
			HsCode:      product.HsCode,
			BasePkr:     item.PurchasePricePkr,
			WeightKg:    product.WeightKg,
			VolumeM3:    product.VolumeM3,
			Units:       item.Units,
			Destination: cfg.Destination,
			Incoterm:    cfg.Incoterm,
			MarginMode:  cfg.MarginMode,
			MarginValue: cfg.MarginValue,
		},
		Rates: types.BreakdownRates{
			FxRate: types.FxRateUsed{
				ID:       bundle.Fx.ID,
				AsOfDate: bundle.Fx.AsOfDate,
				Rate:     fxFactor,
			},
			DutyRate: dutyUsed,
			VatRate:  vatUsed,
			Fees:     appliedFees,
		},
		Calculations: types.Calculations{
			Base:             base,
			FreightPerUnit:   freightPerUnit,
			InsurancePerUnit: insurancePerUnit,
			CustomsValue:     customsValue,
			Duty:             duty,
			TotalFees:        totalFees,
			VatBaseAmount:    vatBaseAmount,
			Tax:              tax,
			LandedCost:       landedCost,
			SellingPrice:     sellingPrice,
			MarginPct:        marginPct,
		},
		Models: types.BreakdownModels{
			FreightModel:   cfg.FreightModel,
			InsuranceModel: cfg.InsuranceModel,
			Rounding:       cfg.Rounding,
		},
	}

	return types.PricingResult{
		ImportItemID: item.ID,
		BasePkr:      item.PurchasePricePkr,
		SellingPrice: sellingPrice,
		LandedCost:   landedCost,
		MarginPct:    marginPct,
		Breakdown:    breakdown,
	}, nil
}
