package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
)

// Store answers the resolver's record queries from SQLite and provides
// the write side used by seeding, the FX feed, and the CLI.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Dates are persisted as RFC 3339 text, decimals as their exact string
// form; both round-trip without loss.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func encodeOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func decodeOptionalTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := decodeTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// FxRates returns all FX records
func (s *Store) FxRates(ctx context.Context) ([]types.FxRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, as_of_date, pkr_to_gbp, pkr_to_usd, pkr_to_eur
		FROM fx_rates ORDER BY as_of_date`)
	if err != nil {
		return nil, errors.Storage("query fx rates", err)
	}
	defer rows.Close()

	var out []types.FxRate
	for rows.Next() {
		var (
			r             types.FxRate
			asOf          string
			gbp, usd, eur string
		)
		if err := rows.Scan(&r.ID, &asOf, &gbp, &usd, &eur); err != nil {
			return nil, errors.Storage("scan fx rate", err)
		}
		if r.AsOfDate, err = decodeTime(asOf); err != nil {
			return nil, errors.Storage("decode fx as-of date", err)
		}
		if r.PkrToGbp, err = decimal.NewFromString(gbp); err != nil {
			return nil, errors.Storage("decode pkr_to_gbp", err)
		}
		if r.PkrToUsd, err = decimal.NewFromString(usd); err != nil {
			return nil, errors.Storage("decode pkr_to_usd", err)
		}
		if r.PkrToEur, err = decimal.NewFromString(eur); err != nil {
			return nil, errors.Storage("decode pkr_to_eur", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate fx rates", err)
	}
	return out, nil
}

// DutyRates returns all duty records for a country and HS code
func (s *Store) DutyRates(ctx context.Context, country types.Country, hsCode string) ([]types.DutyRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, hs_code, rate_percent, effective_from, effective_to
		FROM duty_rates WHERE country = ? AND hs_code = ?
		ORDER BY effective_from`, string(country), hsCode)
	if err != nil {
		return nil, errors.Storage("query duty rates", err)
	}
	defer rows.Close()
	return scanDutyRates(rows)
}

// ListDutyRates returns every duty record
func (s *Store) ListDutyRates(ctx context.Context) ([]types.DutyRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, hs_code, rate_percent, effective_from, effective_to
		FROM duty_rates ORDER BY country, hs_code, effective_from`)
	if err != nil {
		return nil, errors.Storage("query duty rates", err)
	}
	defer rows.Close()
	return scanDutyRates(rows)
}

func scanDutyRates(rows *sql.Rows) ([]types.DutyRate, error) {
	var out []types.DutyRate
	for rows.Next() {
		var (
			r       types.DutyRate
			country string
			rate    string
			from    string
			to      sql.NullString
		)
		if err := rows.Scan(&r.ID, &country, &r.HsCode, &rate, &from, &to); err != nil {
			return nil, errors.Storage("scan duty rate", err)
		}
		r.Country = types.Country(country)
		var err error
		if r.RatePercent, err = decimal.NewFromString(rate); err != nil {
			return nil, errors.Storage("decode duty rate_percent", err)
		}
		if r.EffectiveFrom, err = decodeTime(from); err != nil {
			return nil, errors.Storage("decode duty effective_from", err)
		}
		if r.EffectiveTo, err = decodeOptionalTime(to); err != nil {
			return nil, errors.Storage("decode duty effective_to", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate duty rates", err)
	}
	return out, nil
}

// VatRates returns all VAT records for a country and base
func (s *Store) VatRates(ctx context.Context, country types.Country, base types.VatBase) ([]types.VatRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, base, rate_percent, effective_from, effective_to
		FROM vat_rates WHERE country = ? AND base = ?
		ORDER BY effective_from`, string(country), string(base))
	if err != nil {
		return nil, errors.Storage("query vat rates", err)
	}
	defer rows.Close()
	return scanVatRates(rows)
}

// ListVatRates returns every VAT record
func (s *Store) ListVatRates(ctx context.Context) ([]types.VatRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, base, rate_percent, effective_from, effective_to
		FROM vat_rates ORDER BY country, base, effective_from`)
	if err != nil {
		return nil, errors.Storage("query vat rates", err)
	}
	defer rows.Close()
	return scanVatRates(rows)
}

func scanVatRates(rows *sql.Rows) ([]types.VatRate, error) {
	var out []types.VatRate
	for rows.Next() {
		var (
			r             types.VatRate
			country, base string
			rate          string
			from          string
			to            sql.NullString
		)
		if err := rows.Scan(&r.ID, &country, &base, &rate, &from, &to); err != nil {
			return nil, errors.Storage("scan vat rate", err)
		}
		r.Country = types.Country(country)
		r.Base = types.VatBase(base)
		var err error
		if r.RatePercent, err = decimal.NewFromString(rate); err != nil {
			return nil, errors.Storage("decode vat rate_percent", err)
		}
		if r.EffectiveFrom, err = decodeTime(from); err != nil {
			return nil, errors.Storage("decode vat effective_from", err)
		}
		if r.EffectiveTo, err = decodeOptionalTime(to); err != nil {
			return nil, errors.Storage("decode vat effective_to", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate vat rates", err)
	}
	return out, nil
}

// Fees returns all fee rules for a country
func (s *Store) Fees(ctx context.Context, country types.Country) ([]types.Fee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, name, method, value
		FROM fees WHERE country = ? ORDER BY name`, string(country))
	if err != nil {
		return nil, errors.Storage("query fees", err)
	}
	defer rows.Close()
	return scanFees(rows)
}

// ListFees returns every fee rule
func (s *Store) ListFees(ctx context.Context) ([]types.Fee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, country, name, method, value
		FROM fees ORDER BY country, name`)
	if err != nil {
		return nil, errors.Storage("query fees", err)
	}
	defer rows.Close()
	return scanFees(rows)
}

func scanFees(rows *sql.Rows) ([]types.Fee, error) {
	var out []types.Fee
	for rows.Next() {
		var (
			f               types.Fee
			country, method string
			value           string
		)
		if err := rows.Scan(&f.ID, &country, &f.Name, &method, &value); err != nil {
			return nil, errors.Storage("scan fee", err)
		}
		f.Country = types.Country(country)
		f.Method = types.FeeMethod(method)
		var err error
		if f.Value, err = decimal.NewFromString(value); err != nil {
			return nil, errors.Storage("decode fee value", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterate fees", err)
	}
	return out, nil
}

// InsertFxRate upserts an FX record keyed by its as-of date. A record
// without an ID gets one assigned; the assigned ID is returned.
func (s *Store) InsertFxRate(ctx context.Context, r types.FxRate) (string, error) {
	id := ensureID(r.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fx_rates (id, as_of_date, pkr_to_gbp, pkr_to_usd, pkr_to_eur)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (as_of_date) DO UPDATE SET
			pkr_to_gbp = excluded.pkr_to_gbp,
			pkr_to_usd = excluded.pkr_to_usd,
			pkr_to_eur = excluded.pkr_to_eur`,
		id, encodeTime(r.AsOfDate), r.PkrToGbp.String(), r.PkrToUsd.String(), r.PkrToEur.String())
	if err != nil {
		return "", errors.Storage("insert fx rate", err)
	}
	return id, nil
}

// InsertDutyRate upserts a duty record keyed by country, HS code, and
// effective-from date.
func (s *Store) InsertDutyRate(ctx context.Context, r types.DutyRate) (string, error) {
	id := ensureID(r.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO duty_rates (id, country, hs_code, rate_percent, effective_from, effective_to)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (country, hs_code, effective_from) DO UPDATE SET
			rate_percent = excluded.rate_percent,
			effective_to = excluded.effective_to`,
		id, string(r.Country), r.HsCode, r.RatePercent.String(),
		encodeTime(r.EffectiveFrom), encodeOptionalTime(r.EffectiveTo))
	if err != nil {
		return "", errors.Storage("insert duty rate", err)
	}
	return id, nil
}

// InsertVatRate upserts a VAT record keyed by country, base, and
// effective-from date.
func (s *Store) InsertVatRate(ctx context.Context, r types.VatRate) (string, error) {
	id := ensureID(r.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vat_rates (id, country, base, rate_percent, effective_from, effective_to)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (country, base, effective_from) DO UPDATE SET
			rate_percent = excluded.rate_percent,
			effective_to = excluded.effective_to`,
		id, string(r.Country), string(r.Base), r.RatePercent.String(),
		encodeTime(r.EffectiveFrom), encodeOptionalTime(r.EffectiveTo))
	if err != nil {
		return "", errors.Storage("insert vat rate", err)
	}
	return id, nil
}

// InsertFee upserts a fee rule keyed by country and name
func (s *Store) InsertFee(ctx context.Context, f types.Fee) (string, error) {
	id := ensureID(f.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fees (id, country, name, method, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (country, name) DO UPDATE SET
			method = excluded.method,
			value = excluded.value`,
		id, string(f.Country), f.Name, string(f.Method), f.Value.String())
	if err != nil {
		return "", errors.Storage("insert fee", err)
	}
	return id, nil
}
