package fx

import (
	"context"
	"time"

	"go.uber.org/zap"

	"landed-cost/core/types"
	"landed-cost/internal/errors"
	"landed-cost/internal/logging"
)

// DefaultMaxAge is how old a stored FX record may be before the feed is
// consulted
const DefaultMaxAge = 24 * time.Hour

// FxStore is the slice of the rate store the service needs
type FxStore interface {
	FxRates(ctx context.Context) ([]types.FxRate, error)
	InsertFxRate(ctx context.Context, r types.FxRate) (string, error)
}

// Service keeps stored FX records fresh against the feed. A stored record
// younger than maxAge is served as-is; otherwise the feed is called and
// the result persisted. Feed failures fall back to the newest stored
// record so runs keep working offline.
type Service struct {
	client *Client
	store  FxStore
	maxAge time.Duration
	now    func() time.Time
}

// NewService creates a freshness service. A non-positive maxAge selects
// DefaultMaxAge.
func NewService(client *Client, store FxStore, maxAge time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{
		client: client,
		store:  store,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Current returns an FX record fresh enough for pricing
func (s *Service) Current(ctx context.Context) (*types.FxRate, error) {
	newest, err := s.newestStored(ctx)
	if err != nil {
		return nil, err
	}
	if newest != nil && s.now().UTC().Sub(newest.AsOfDate) <= s.maxAge {
		return newest, nil
	}

	fetched, err := s.Refresh(ctx)
	if err != nil {
		if newest != nil {
			logging.Warn("fx feed unavailable, using newest stored record",
				zap.String("as_of", newest.AsOfDate.Format("2006-01-02")),
				zap.Error(err))
			return newest, nil
		}
		return nil, err
	}
	return fetched, nil
}

// Refresh fetches the feed and persists the result. Records for an
// already-stored as-of date update in place.
func (s *Service) Refresh(ctx context.Context) (*types.FxRate, error) {
	rec, err := s.client.Latest(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.store.InsertFxRate(ctx, *rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	logging.Info("fx rates refreshed",
		zap.String("as_of", rec.AsOfDate.Format("2006-01-02")),
		zap.String("pkr_to_gbp", rec.PkrToGbp.String()))
	return rec, nil
}

func (s *Service) newestStored(ctx context.Context) (*types.FxRate, error) {
	records, err := s.store.FxRates(ctx)
	if err != nil {
		return nil, errors.Storage("load stored fx rates", err)
	}
	var newest *types.FxRate
	for i := range records {
		if newest == nil || records[i].AsOfDate.After(newest.AsOfDate) {
			newest = &records[i]
		}
	}
	return newest, nil
}
