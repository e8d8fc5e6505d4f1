package rates

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TestDutyResolutionPicksActiveWindow verifies the temporal selection rule
// for two open-ended records with different effective dates.
func TestDutyResolutionPicksActiveWindow(t *testing.T) {
	store := NewMemoryStore()
	store.AddDutyRate(types.DutyRate{
		ID: "duty-2024", Country: types.CountryUK, HsCode: "420231",
		RatePercent: dec("0.035"), EffectiveFrom: date(t, "2024-01-01"),
	})
	store.AddDutyRate(types.DutyRate{
		ID: "duty-2025", Country: types.CountryUK, HsCode: "420231",
		RatePercent: dec("0.040"), EffectiveFrom: date(t, "2025-01-01"),
	})
	r := NewResolver(store)
	ctx := context.Background()

	got, err := r.ResolveDuty(ctx, "420231", types.CountryUK, date(t, "2024-06-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "duty-2024" {
		t.Fatalf("at 2024-06-01 expected duty-2024, got %+v", got)
	}

	got, err = r.ResolveDuty(ctx, "420231", types.CountryUK, date(t, "2025-06-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != "duty-2025" {
		t.Fatalf("at 2025-06-01 expected duty-2025, got %+v", got)
	}

	got, err = r.ResolveDuty(ctx, "420231", types.CountryUK, date(t, "2023-01-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("before any window expected nil record, got %+v", got)
	}
}

// TestDutyResolutionHonorsEffectiveTo verifies a bounded window stops
// matching after its end date.
func TestDutyResolutionHonorsEffectiveTo(t *testing.T) {
	to := date(t, "2024-06-30")
	store := NewMemoryStore()
	store.AddDutyRate(types.DutyRate{
		ID: "duty-h1", Country: types.CountryEU, HsCode: "420310",
		RatePercent: dec("0.04"), EffectiveFrom: date(t, "2024-01-01"), EffectiveTo: &to,
	})
	r := NewResolver(store)
	ctx := context.Background()

	got, err := r.ResolveDuty(ctx, "420310", types.CountryEU, date(t, "2024-06-30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("window end date is inclusive, expected a record")
	}

	got, err = r.ResolveDuty(ctx, "420310", types.CountryEU, date(t, "2024-07-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("after window end expected nil record, got %+v", got)
	}
}

// TestDutyResolutionTieBreakIsDeterministic verifies that records sharing
// an effective date resolve identically regardless of store order.
func TestDutyResolutionTieBreakIsDeterministic(t *testing.T) {
	a := types.DutyRate{
		ID: "duty-a", Country: types.CountryUS, HsCode: "420221",
		RatePercent: dec("0.06"), EffectiveFrom: date(t, "2024-01-01"),
	}
	b := types.DutyRate{
		ID: "duty-b", Country: types.CountryUS, HsCode: "420221",
		RatePercent: dec("0.05"), EffectiveFrom: date(t, "2024-01-01"),
	}
	ctx := context.Background()

	for _, order := range [][]types.DutyRate{{a, b}, {b, a}} {
		store := NewMemoryStore()
		for _, rec := range order {
			store.AddDutyRate(rec)
		}
		got, err := NewResolver(store).ResolveDuty(ctx, "420221", types.CountryUS, date(t, "2024-06-01"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != "duty-b" {
			t.Fatalf("tie-break must pick the greatest ID, got %+v", got)
		}
	}
}

// TestFxResolutionAsOfDate verifies the FX lookup ignores records dated
// after the as-of date.
func TestFxResolutionAsOfDate(t *testing.T) {
	store := NewMemoryStore()
	store.AddFxRate(types.FxRate{ID: "fx-dec", AsOfDate: date(t, "2024-12-01"), PkrToGbp: dec("0.0027")})
	store.AddFxRate(types.FxRate{ID: "fx-jan", AsOfDate: date(t, "2025-01-01"), PkrToGbp: dec("0.0028")})
	r := NewResolver(store)

	got, err := r.ResolveFx(context.Background(), date(t, "2024-12-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "fx-dec" {
		t.Fatalf("expected fx-dec, got %s", got.ID)
	}
}

// TestFxResolutionLatestSentinel verifies the latest lookup applies no
// date filter.
func TestFxResolutionLatestSentinel(t *testing.T) {
	store := NewMemoryStore()
	store.AddFxRate(types.FxRate{ID: "fx-dec", AsOfDate: date(t, "2024-12-01")})
	store.AddFxRate(types.FxRate{ID: "fx-jan", AsOfDate: date(t, "2025-01-01")})
	r := NewResolver(store)

	got, err := r.ResolveLatestFx(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "fx-jan" {
		t.Fatalf("expected fx-jan, got %s", got.ID)
	}
}

// TestFxResolutionMissingIsFatal verifies a missing FX rate surfaces as
// RATE_NOT_FOUND rather than a nil record.
func TestFxResolutionMissingIsFatal(t *testing.T) {
	r := NewResolver(NewMemoryStore())

	_, err := r.ResolveFx(context.Background(), date(t, "2025-01-01"))
	if err == nil {
		t.Fatal("expected an error for empty FX table")
	}
	if !errors.IsType(err, errors.TypeRateNotFound) {
		t.Fatalf("expected RATE_NOT_FOUND, got %v", err)
	}

	_, err = r.ResolveLatestFx(context.Background())
	if !errors.IsType(err, errors.TypeRateNotFound) {
		t.Fatalf("expected RATE_NOT_FOUND for latest, got %v", err)
	}
}

// TestFeeOverridesReplaceLookup verifies an override entry for the country
// fully replaces the store lookup.
func TestFeeOverridesReplaceLookup(t *testing.T) {
	store := NewMemoryStore()
	store.AddFee(types.Fee{ID: "fee-db", Country: types.CountryUK, Name: "Customs Clearance", Method: types.FeeFixed, Value: dec("15")})
	r := NewResolver(store)
	ctx := context.Background()

	overrides := map[types.Country][]types.Fee{
		types.CountryUK: {
			{ID: "fee-ovr", Country: types.CountryUK, Name: "Flat Fee", Method: types.FeeFixed, Value: dec("2")},
		},
	}
	got, err := r.ResolveFees(ctx, types.CountryUK, overrides)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "fee-ovr" {
		t.Fatalf("override must replace lookup, got %+v", got)
	}

	// Overrides for another country leave the lookup untouched
	got, err = r.ResolveFees(ctx, types.CountryUK, map[types.Country][]types.Fee{types.CountryUS: {}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "fee-db" {
		t.Fatalf("expected store fee, got %+v", got)
	}
}

// TestFeeLookupEmptyYieldsEmptySet verifies no fee rows is a valid,
// zero-valued result rather than an error.
func TestFeeLookupEmptyYieldsEmptySet(t *testing.T) {
	r := NewResolver(NewMemoryStore())
	got, err := r.ResolveFees(context.Background(), types.CountryEU, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil fee set, got %#v", got)
	}
}
