// Package rates - in-memory store
package rates

import (
	"context"

	"landed-cost/core/types"
)

// MemoryStore is an in-memory Store. It backs run files that carry their
// own rate records and keeps the resolver trivially testable.
type MemoryStore struct {
	fx   []types.FxRate
	duty []types.DutyRate
	vat  []types.VatRate
	fees []types.Fee
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddFxRate adds an FX record
func (s *MemoryStore) AddFxRate(r types.FxRate) {
	s.fx = append(s.fx, r)
}

// AddDutyRate adds a duty record
func (s *MemoryStore) AddDutyRate(r types.DutyRate) {
	s.duty = append(s.duty, r)
}

// AddVatRate adds a VAT record
func (s *MemoryStore) AddVatRate(r types.VatRate) {
	s.vat = append(s.vat, r)
}

// AddFee adds a fee rule
func (s *MemoryStore) AddFee(f types.Fee) {
	s.fees = append(s.fees, f)
}

// FxRates returns all FX records
func (s *MemoryStore) FxRates(ctx context.Context) ([]types.FxRate, error) {
	out := make([]types.FxRate, len(s.fx))
	copy(out, s.fx)
	return out, nil
}

// DutyRates returns duty records matching the scope
func (s *MemoryStore) DutyRates(ctx context.Context, country types.Country, hsCode string) ([]types.DutyRate, error) {
	var out []types.DutyRate
	for _, r := range s.duty {
		if r.Country == country && r.HsCode == hsCode {
			out = append(out, r)
		}
	}
	return out, nil
}

// VatRates returns VAT records matching the scope
func (s *MemoryStore) VatRates(ctx context.Context, country types.Country, base types.VatBase) ([]types.VatRate, error) {
	var out []types.VatRate
	for _, r := range s.vat {
		if r.Country == country && r.Base == base {
			out = append(out, r)
		}
	}
	return out, nil
}

// Fees returns fee rules for a country
func (s *MemoryStore) Fees(ctx context.Context, country types.Country) ([]types.Fee, error) {
	var out []types.Fee
	for _, f := range s.fees {
		if f.Country == country {
			out = append(out, f)
		}
	}
	return out, nil
}
