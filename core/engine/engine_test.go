package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"landed-cost/core/rates"
	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// seededStore mirrors the canonical UK/US/EU rate schedule used by the
// rate seeding fixtures.
func seededStore(t *testing.T) *rates.MemoryStore {
	t.Helper()
	store := rates.NewMemoryStore()
	store.AddFxRate(types.FxRate{
		ID: "fx-2025-01", AsOfDate: date(t, "2025-01-01"),
		PkrToGbp: dec("0.0028"), PkrToUsd: dec("0.0036"), PkrToEur: dec("0.0033"),
	})
	store.AddFxRate(types.FxRate{
		ID: "fx-2024-12", AsOfDate: date(t, "2024-12-01"),
		PkrToGbp: dec("0.0027"), PkrToUsd: dec("0.0035"), PkrToEur: dec("0.0032"),
	})
	store.AddDutyRate(types.DutyRate{
		ID: "duty-uk-420231", Country: types.CountryUK, HsCode: "420231",
		RatePercent: dec("0.035"), EffectiveFrom: date(t, "2024-01-01"),
	})
	store.AddVatRate(types.VatRate{
		ID: "vat-uk", Country: types.CountryUK, Base: types.VatBaseCIFPlusDuty,
		RatePercent: dec("0.20"), EffectiveFrom: date(t, "2024-01-01"),
	})
	store.AddFee(types.Fee{ID: "fee-uk-clearance", Country: types.CountryUK, Name: "Customs Clearance", Method: types.FeeFixed, Value: dec("15")})
	store.AddFee(types.Fee{ID: "fee-uk-handling", Country: types.CountryUK, Name: "Handling Fee", Method: types.FeePerUnit, Value: dec("0.50")})
	return store
}

func walletItem() types.ImportItem {
	return types.ImportItem{
		ID: "item-1",
		Product: types.Product{
			SKU: "FNV-1001", Name: "Leather Wallet - Premium", HsCode: "420231",
			WeightKg: dec("0.30"), VolumeM3: dec("0.0015"),
		},
		PurchasePricePkr: dec("1100"),
		Units:            100,
	}
}

func ukConfig() types.RunConfig {
	return types.RunConfig{
		Destination:    types.CountryUK,
		Incoterm:       "CIF",
		FxDate:         "2025-01-01",
		MarginMode:     types.ModeMargin,
		MarginValue:    dec("0.35"),
		FreightModel:   types.FreightModel{Type: types.FreightPerKg, Value: dec("3.6")},
		InsuranceModel: types.InsuranceModel{Type: types.InsurancePctOfValue, Value: dec("0.003")},
		Rounding:       &types.RoundingPolicy{Mode: types.RoundEndings, Value: dec("0.99")},
	}
}

// TestRunGoldenUKScenario prices the canonical leather-wallet line for the
// UK and checks every reported number.
func TestRunGoldenUKScenario(t *testing.T) {
	o := New(rates.NewResolver(seededStore(t)))

	run, err := o.Run(context.Background(), []types.ImportItem{walletItem()}, ukConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(run.Results))
	}

	calc := run.Results[0].Breakdown.Calculations
	exact := map[string][2]decimal.Decimal{
		"base":         {calc.Base, dec("3.08")},
		"freight":      {calc.FreightPerUnit, dec("1.08")},
		"insurance":    {calc.InsurancePerUnit, dec("0.00924")},
		"customsValue": {calc.CustomsValue, dec("4.16924")},
		"duty":         {calc.Duty, dec("0.14592340")},
		"totalFees":    {calc.TotalFees, dec("65")},
		"vatBase":      {calc.VatBaseAmount, dec("4.31516340")},
		"tax":          {calc.Tax, dec("0.86303268")},
		"landedCost":   {calc.LandedCost, dec("70.17819608")},
		"sellingPrice": {calc.SellingPrice, dec("107.99")},
	}
	for name, pair := range exact {
		if !pair[0].Equal(pair[1]) {
			t.Errorf("%s: expected %s, got %s", name, pair[1], pair[0])
		}
	}

	wantMargin := dec("107.99").Sub(dec("70.17819608")).Div(dec("107.99"))
	if !calc.MarginPct.Equal(wantMargin) {
		t.Errorf("marginPct: expected %s, got %s", wantMargin, calc.MarginPct)
	}
}

// TestRunSnapshotCapturesResolvedRecords verifies the snapshot holds the
// exact records used, sealed with a verifiable content hash.
func TestRunSnapshotCapturesResolvedRecords(t *testing.T) {
	o := New(rates.NewResolver(seededStore(t)))

	run, err := o.Run(context.Background(), []types.ImportItem{walletItem()}, ukConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := run.SnapshotRates
	if snap.FxRate.ID != "fx-2025-01" {
		t.Errorf("snapshot fx: expected fx-2025-01, got %s", snap.FxRate.ID)
	}
	if len(snap.DutyRates) != 1 || snap.DutyRates[0].ID != "duty-uk-420231" {
		t.Errorf("snapshot duty rates: %+v", snap.DutyRates)
	}
	if snap.VatRate == nil || snap.VatRate.ID != "vat-uk" {
		t.Errorf("snapshot vat rate: %+v", snap.VatRate)
	}
	if len(snap.Fees) != 2 {
		t.Errorf("snapshot fees: expected 2, got %d", len(snap.Fees))
	}
	if snap.ContentHash == "" || !snap.Verify() {
		t.Error("snapshot must be sealed with a verifiable content hash")
	}

	tampered := snap
	tampered.FxRate.PkrToGbp = dec("0.0030")
	if tampered.Verify() {
		t.Error("tampered snapshot must fail verification")
	}
}

// TestRunLatestFxSentinel verifies "latest" picks the newest FX record
// without a date filter.
func TestRunLatestFxSentinel(t *testing.T) {
	o := New(rates.NewResolver(seededStore(t)))
	cfg := ukConfig()
	cfg.FxDate = types.FxDateLatest

	run, err := o.Run(context.Background(), []types.ImportItem{walletItem()}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.SnapshotRates.FxRate.ID != "fx-2025-01" {
		t.Fatalf("expected latest fx record, got %s", run.SnapshotRates.FxRate.ID)
	}
}

// TestRunDutyGapIsLocal verifies a missing duty record degrades only the
// affected item while the run succeeds.
func TestRunDutyGapIsLocal(t *testing.T) {
	o := New(rates.NewResolver(seededStore(t)))

	uncovered := walletItem()
	uncovered.ID = "item-2"
	uncovered.Product.SKU = "FNV-2002"
	uncovered.Product.HsCode = "999999"

	run, err := o.Run(context.Background(), []types.ImportItem{walletItem(), uncovered}, ukConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}

	covered, gap := run.Results[0], run.Results[1]
	if covered.Breakdown.Rates.DutyRate == nil {
		t.Error("covered item must carry its duty rate")
	}
	if gap.Breakdown.Rates.DutyRate != nil || !gap.Breakdown.Calculations.Duty.IsZero() {
		t.Errorf("uncovered item must degrade to zero duty: %+v", gap.Breakdown.Rates.DutyRate)
	}
	if len(run.SnapshotRates.DutyRates) != 1 {
		t.Errorf("snapshot must only hold resolved duty records, got %d", len(run.SnapshotRates.DutyRates))
	}
}

// TestRunPreservesItemOrder verifies parallel pricing returns results in
// input order.
func TestRunPreservesItemOrder(t *testing.T) {
	o := New(rates.NewResolver(seededStore(t)), WithWorkers(8))

	var items []types.ImportItem
	for i := 0; i < 20; i++ {
		item := walletItem()
		item.ID = string(rune('a' + i))
		item.PurchasePricePkr = decimal.NewFromInt(int64(1000 + i))
		items = append(items, item)
	}

	run, err := o.Run(context.Background(), items, ukConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range run.Results {
		if r.ImportItemID != items[i].ID {
			t.Fatalf("result %d: expected item %s, got %s", i, items[i].ID, r.ImportItemID)
		}
	}
}

// TestRunTotalsFromSums verifies run totals and that the average margin
// comes from the aggregated sums.
func TestRunTotalsFromSums(t *testing.T) {
	o := New(rates.NewResolver(seededStore(t)))

	second := walletItem()
	second.ID = "item-2"
	second.PurchasePricePkr = dec("2200")

	run, err := o.Run(context.Background(), []types.ImportItem{walletItem(), second}, ukConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	totals := run.Totals
	if totals.Items != 2 || totals.Units != 200 {
		t.Errorf("expected 2 items / 200 units, got %d / %d", totals.Items, totals.Units)
	}

	sumLc := run.Results[0].LandedCost.Add(run.Results[1].LandedCost)
	sumSp := run.Results[0].SellingPrice.Add(run.Results[1].SellingPrice)
	if !totals.LandedCost.Equal(sumLc) || !totals.SellingPrice.Equal(sumSp) {
		t.Errorf("totals must equal the per-item sums")
	}
	want := sumSp.Sub(sumLc).Div(sumSp)
	if !totals.AvgMarginPct.Equal(want) {
		t.Errorf("avg margin must come from sums: expected %s, got %s", want, totals.AvgMarginPct)
	}
}

// TestRunFatalErrors verifies the fatal error taxonomy.
func TestRunFatalErrors(t *testing.T) {
	ctx := context.Background()

	// Empty item set, checked before any resolution
	o := New(rates.NewResolver(rates.NewMemoryStore()))
	_, err := o.Run(ctx, nil, ukConfig())
	if !errors.IsType(err, errors.TypeEmptyItemSet) {
		t.Errorf("expected EMPTY_ITEM_SET, got %v", err)
	}

	// Missing FX aborts the run
	_, err = o.Run(ctx, []types.ImportItem{walletItem()}, ukConfig())
	if !errors.IsType(err, errors.TypeRateNotFound) {
		t.Errorf("expected RATE_NOT_FOUND, got %v", err)
	}

	// Unknown model tags are a config error before resolution
	cfg := ukConfig()
	cfg.FreightModel.Type = "TELEPORT"
	_, err = New(rates.NewResolver(seededStore(t))).Run(ctx, []types.ImportItem{walletItem()}, cfg)
	if !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected CONFIG_ERROR, got %v", err)
	}

	// Margin at the singularity is rejected run-wide
	cfg = ukConfig()
	cfg.MarginValue = dec("1.5")
	_, err = New(rates.NewResolver(seededStore(t))).Run(ctx, []types.ImportItem{walletItem()}, cfg)
	if !errors.IsType(err, errors.TypeInvalidMargin) {
		t.Errorf("expected INVALID_MARGIN, got %v", err)
	}
}
