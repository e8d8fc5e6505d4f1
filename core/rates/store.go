// Package rates resolves the single valid FX/duty/VAT/fee record set for
// a run date and destination. The store capability only answers
// kind-plus-scope queries; the temporal selection lives here.
package rates

import (
	"context"

	"landed-cost/core/types"
)

// Store is the record-store capability the resolver is constructed with.
// Implementations answer "all records of a kind matching a scope" and
// nothing more; retries on transient failures are their responsibility.
type Store interface {
	// FxRates returns all FX records
	FxRates(ctx context.Context) ([]types.FxRate, error)

	// DutyRates returns all duty records for a country and HS code
	DutyRates(ctx context.Context, country types.Country, hsCode string) ([]types.DutyRate, error)

	// VatRates returns all VAT records for a country and base
	VatRates(ctx context.Context, country types.Country, base types.VatBase) ([]types.VatRate, error)

	// Fees returns all fee rules for a country
	Fees(ctx context.Context, country types.Country) ([]types.Fee, error)
}
