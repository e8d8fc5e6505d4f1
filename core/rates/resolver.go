// Package rates - temporal rate resolution
package rates

import (
	"context"
	"fmt"
	"time"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

// Resolver selects the single active record per scope and date.
//
// Selection rule, all rate kinds: among records with effectiveFrom <= date
// and (effectiveTo absent or effectiveTo >= date), pick the greatest
// effectiveFrom. Remaining ties break on the greatest record ID so that
// resolution is deterministic regardless of store ordering.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over a record store
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveFx returns the FX record as of a date. Failure is fatal for the
// whole run.
func (r *Resolver) ResolveFx(ctx context.Context, asOf time.Time) (*types.FxRate, error) {
	records, err := r.store.FxRates(ctx)
	if err != nil {
		return nil, errors.Storage("fx rate lookup failed", err)
	}

	var best *types.FxRate
	for i := range records {
		rec := &records[i]
		if rec.AsOfDate.After(asOf) {
			continue
		}
		if best == nil || rec.AsOfDate.After(best.AsOfDate) ||
			(rec.AsOfDate.Equal(best.AsOfDate) && rec.ID > best.ID) {
			best = rec
		}
	}
	if best == nil {
		return nil, errors.RateNotFound("fx", asOf.Format("2006-01-02"))
	}
	out := *best
	return &out, nil
}

// ResolveLatestFx returns the FX record with the greatest as-of date,
// implementing the "latest" sentinel.
func (r *Resolver) ResolveLatestFx(ctx context.Context) (*types.FxRate, error) {
	records, err := r.store.FxRates(ctx)
	if err != nil {
		return nil, errors.Storage("fx rate lookup failed", err)
	}

	var best *types.FxRate
	for i := range records {
		rec := &records[i]
		if best == nil || rec.AsOfDate.After(best.AsOfDate) ||
			(rec.AsOfDate.Equal(best.AsOfDate) && rec.ID > best.ID) {
			best = rec
		}
	}
	if best == nil {
		return nil, errors.RateNotFound("fx", "latest")
	}
	out := *best
	return &out, nil
}

// ResolveDuty returns the active duty record for an HS code, or nil when
// no record covers the date. A gap is not an error: the item degrades to
// zero duty with a null dutyRateUsed in its breakdown.
func (r *Resolver) ResolveDuty(ctx context.Context, hsCode string, country types.Country, date time.Time) (*types.DutyRate, error) {
	records, err := r.store.DutyRates(ctx, country, hsCode)
	if err != nil {
		return nil, errors.Storage(fmt.Sprintf("duty rate lookup failed for %s/%s", country, hsCode), err)
	}

	var best *types.DutyRate
	for i := range records {
		rec := &records[i]
		if !activeAt(rec.EffectiveFrom, rec.EffectiveTo, date) {
			continue
		}
		if best == nil || rec.EffectiveFrom.After(best.EffectiveFrom) ||
			(rec.EffectiveFrom.Equal(best.EffectiveFrom) && rec.ID > best.ID) {
			best = rec
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

// ResolveVat returns the active VAT record for a country and base, or nil
// when no record covers the date. As with duty, a gap is non-fatal.
func (r *Resolver) ResolveVat(ctx context.Context, country types.Country, base types.VatBase, date time.Time) (*types.VatRate, error) {
	records, err := r.store.VatRates(ctx, country, base)
	if err != nil {
		return nil, errors.Storage(fmt.Sprintf("vat rate lookup failed for %s/%s", country, base), err)
	}

	var best *types.VatRate
	for i := range records {
		rec := &records[i]
		if !activeAt(rec.EffectiveFrom, rec.EffectiveTo, date) {
			continue
		}
		if best == nil || rec.EffectiveFrom.After(best.EffectiveFrom) ||
			(rec.EffectiveFrom.Equal(best.EffectiveFrom) && rec.ID > best.ID) {
			best = rec
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

// ResolveFees returns the fee rules for a country. An override entry for
// the country fully replaces the lookup; no rows yields an empty set.
func (r *Resolver) ResolveFees(ctx context.Context, country types.Country, overrides map[types.Country][]types.Fee) ([]types.Fee, error) {
	if overrides != nil {
		if fees, ok := overrides[country]; ok {
			out := make([]types.Fee, len(fees))
			copy(out, fees)
			return out, nil
		}
	}

	fees, err := r.store.Fees(ctx, country)
	if err != nil {
		return nil, errors.Storage(fmt.Sprintf("fee lookup failed for %s", country), err)
	}
	if fees == nil {
		fees = []types.Fee{}
	}
	return fees, nil
}

// activeAt reports whether a validity window covers a date
func activeAt(from time.Time, to *time.Time, date time.Time) bool {
	if from.After(date) {
		return false
	}
	if to != nil && to.Before(date) {
		return false
	}
	return true
}
