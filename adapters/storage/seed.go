package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"landed-cost/core/types"
)

// SeedStats counts records written by a seed pass
type SeedStats struct {
	FxRates   int
	DutyRates int
	VatRates  int
	Fees      int
}

// Total returns the overall record count
func (s SeedStats) Total() int {
	return s.FxRates + s.DutyRates + s.VatRates + s.Fees
}

func seedDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Seed loads the canonical UK/US/EU rate schedule for leather goods.
// Every write is an upsert, so reseeding an existing database is safe.
func (s *Store) Seed(ctx context.Context) (SeedStats, error) {
	stats := SeedStats{}

	fxRates := []types.FxRate{
		{AsOfDate: seedDate(2025, 1, 1), PkrToGbp: d("0.0028"), PkrToUsd: d("0.0036"), PkrToEur: d("0.0033")},
		{AsOfDate: seedDate(2024, 12, 1), PkrToGbp: d("0.0027"), PkrToUsd: d("0.0035"), PkrToEur: d("0.0032")},
	}
	for _, r := range fxRates {
		if _, err := s.InsertFxRate(ctx, r); err != nil {
			return stats, err
		}
		stats.FxRates++
	}

	from2024 := seedDate(2024, 1, 1)
	dutyRates := []types.DutyRate{
		// 420231: wallets and purses with outer surface of leather
		{Country: types.CountryUK, HsCode: "420231", RatePercent: d("0.035"), EffectiveFrom: from2024},
		{Country: types.CountryUS, HsCode: "420231", RatePercent: d("0.055"), EffectiveFrom: from2024},
		{Country: types.CountryEU, HsCode: "420231", RatePercent: d("0.045"), EffectiveFrom: from2024},
		// 420232: pocket and handbag articles
		{Country: types.CountryUK, HsCode: "420232", RatePercent: d("0.035"), EffectiveFrom: from2024},
		{Country: types.CountryUS, HsCode: "420232", RatePercent: d("0.055"), EffectiveFrom: from2024},
		{Country: types.CountryEU, HsCode: "420232", RatePercent: d("0.045"), EffectiveFrom: from2024},
		// 420221: handbags with outer surface of leather
		{Country: types.CountryUK, HsCode: "420221", RatePercent: d("0.035"), EffectiveFrom: from2024},
		{Country: types.CountryUS, HsCode: "420221", RatePercent: d("0.06"), EffectiveFrom: from2024},
		{Country: types.CountryEU, HsCode: "420221", RatePercent: d("0.045"), EffectiveFrom: from2024},
		// 420222: handbags with outer surface of plastic sheeting or textile
		{Country: types.CountryUK, HsCode: "420222", RatePercent: d("0.025"), EffectiveFrom: from2024},
		{Country: types.CountryUS, HsCode: "420222", RatePercent: d("0.045"), EffectiveFrom: from2024},
		{Country: types.CountryEU, HsCode: "420222", RatePercent: d("0.035"), EffectiveFrom: from2024},
		// 420310: leather apparel
		{Country: types.CountryUK, HsCode: "420310", RatePercent: d("0.08"), EffectiveFrom: from2024},
		{Country: types.CountryUS, HsCode: "420310", RatePercent: d("0.125"), EffectiveFrom: from2024},
		{Country: types.CountryEU, HsCode: "420310", RatePercent: d("0.04"), EffectiveFrom: from2024},
	}
	for _, r := range dutyRates {
		if _, err := s.InsertDutyRate(ctx, r); err != nil {
			return stats, err
		}
		stats.DutyRates++
	}

	vatRates := []types.VatRate{
		{Country: types.CountryUK, Base: types.VatBaseCIFPlusDuty, RatePercent: d("0.20"), EffectiveFrom: from2024},
		// No federal VAT in the US; state sales tax is out of scope
		{Country: types.CountryUS, Base: types.VatBaseCIFPlusDuty, RatePercent: d("0.00"), EffectiveFrom: from2024},
		// EU standard rate modeled on Germany's 19%
		{Country: types.CountryEU, Base: types.VatBaseCIFPlusDuty, RatePercent: d("0.19"), EffectiveFrom: from2024},
	}
	for _, r := range vatRates {
		if _, err := s.InsertVatRate(ctx, r); err != nil {
			return stats, err
		}
		stats.VatRates++
	}

	feeRules := []types.Fee{
		{Country: types.CountryUK, Name: "Customs Clearance", Method: types.FeeFixed, Value: d("15")},
		{Country: types.CountryUK, Name: "Handling Fee", Method: types.FeePerUnit, Value: d("0.50")},
		{Country: types.CountryUS, Name: "Merchandise Processing Fee (MPF)", Method: types.FeePct, Value: d("0.00344")},
		{Country: types.CountryUS, Name: "Harbor Maintenance Fee (HMF)", Method: types.FeePct, Value: d("0.00125")},
		{Country: types.CountryUS, Name: "Customs Broker Fee", Method: types.FeeFixed, Value: d("75")},
		{Country: types.CountryEU, Name: "Customs Clearance", Method: types.FeeFixed, Value: d("20")},
		{Country: types.CountryEU, Name: "EORI Processing", Method: types.FeePct, Value: d("0.005")},
		{Country: types.CountryEU, Name: "Import Processing Fee", Method: types.FeeFixed, Value: d("12")},
	}
	for _, f := range feeRules {
		if _, err := s.InsertFee(ctx, f); err != nil {
			return stats, err
		}
		stats.Fees++
	}

	return stats, nil
}
