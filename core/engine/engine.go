// Package engine orchestrates a pricing run: resolve the rate bundle
// once, price every item against it, aggregate totals, and seal the rate
// snapshot that makes the run reproducible.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"landed-cost/core/pipeline"
	"landed-cost/core/rates"
	"landed-cost/core/types"
	"landed-cost/internal/errors"
	"landed-cost/internal/logging"
)

// DefaultWorkers is the per-run item fan-out limit
const DefaultWorkers = 4

// Orchestrator executes pricing runs against a rate resolver. It holds no
// mutable state between runs.
type Orchestrator struct {
	resolver *rates.Resolver
	workers  int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithWorkers sets the item fan-out limit
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// New creates an orchestrator
func New(resolver *rates.Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes a pricing run. The config is validated first, the rate
// bundle is resolved once, and every item is priced against that shared,
// immutable bundle. Items are processed in parallel; results keep input
// order. Only an empty item set, invalid config, or FX resolution failure
// aborts the run; duty/VAT gaps degrade per item.
func (o *Orchestrator) Run(ctx context.Context, items []types.ImportItem, cfg types.RunConfig) (*types.RunResult, error) {
	if len(items) == 0 {
		return nil, errors.EmptyItemSet()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logging.With(
		zap.String("run_id", runID),
		zap.String("destination", string(cfg.Destination)),
	)
	log.Info("pricing run started", zap.Int("items", len(items)))

	bundle, snapshot, rateDate, err := o.resolveBundle(ctx, items, cfg)
	if err != nil {
		return nil, err
	}
	for hsCode, rec := range bundle.Duty {
		if rec == nil {
			log.Warn("no duty rate in effect, duty will be zero",
				zap.String("hs_code", hsCode),
				zap.String("date", rateDate.Format("2006-01-02")))
		}
	}
	if bundle.Vat == nil {
		log.Warn("no VAT rate in effect, tax will be zero",
			zap.String("base", string(cfg.ResolveVatBase())))
	}

	results := make([]types.PricingResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range items {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := pipeline.PriceItem(items[i], cfg, *bundle)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := aggregate(results)
	log.Info("pricing run completed",
		zap.String("total_selling_price", totals.SellingPrice.String()),
		zap.String("avg_margin_pct", totals.AvgMarginPct.String()))

	return &types.RunResult{
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		Config:        cfg,
		Results:       results,
		SnapshotRates: *snapshot,
		Totals:        totals,
	}, nil
}

// resolveBundle resolves FX once, duty per distinct HS code, one VAT rate
// and one fee set for the whole run, and builds the sealed snapshot.
func (o *Orchestrator) resolveBundle(ctx context.Context, items []types.ImportItem, cfg types.RunConfig) (*pipeline.RateBundle, *types.RateSnapshot, time.Time, error) {
	asOf, latest, err := cfg.FxAsOf()
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	var fx *types.FxRate
	if latest {
		fx, err = o.resolver.ResolveLatestFx(ctx)
	} else {
		fx, err = o.resolver.ResolveFx(ctx, asOf)
	}
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	// Duty/VAT windows are evaluated at the FX as-of date; for a latest
	// run that is the resolved record's own date.
	rateDate := asOf
	if latest {
		rateDate = fx.AsOfDate
	}

	duty := make(map[string]*types.DutyRate)
	for _, item := range items {
		hsCode := item.Product.HsCode
		if _, seen := duty[hsCode]; seen {
			continue
		}
		rec, err := o.resolver.ResolveDuty(ctx, hsCode, cfg.Destination, rateDate)
		if err != nil {
			return nil, nil, time.Time{}, err
		}
		duty[hsCode] = rec
	}

	vatRec, err := o.resolver.ResolveVat(ctx, cfg.Destination, cfg.ResolveVatBase(), rateDate)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	feeRules, err := o.resolver.ResolveFees(ctx, cfg.Destination, cfg.FeeOverrides)
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	bundle := &pipeline.RateBundle{
		Fx:   fx,
		Duty: duty,
		Vat:  vatRec,
		Fees: feeRules,
	}

	snapshot := &types.RateSnapshot{
		FxRate:  *fx,
		VatRate: vatRec,
		Fees:    feeRules,
	}
	for _, rec := range duty {
		if rec != nil {
			snapshot.DutyRates = append(snapshot.DutyRates, *rec)
		}
	}
	sort.Slice(snapshot.DutyRates, func(i, j int) bool {
		return snapshot.DutyRates[i].HsCode < snapshot.DutyRates[j].HsCode
	})
	snapshot.Seal()

	return bundle, snapshot, rateDate, nil
}

// aggregate computes run totals from per-item results. The run-level
// margin comes from the aggregated sums, not from averaging percentages.
func aggregate(results []types.PricingResult) types.RunTotals {
	totals := types.RunTotals{Items: len(results)}
	for _, r := range results {
		totals.Units += r.Breakdown.Inputs.Units
		totals.Base = totals.Base.Add(r.Breakdown.Calculations.Base)
		totals.LandedCost = totals.LandedCost.Add(r.LandedCost)
		totals.SellingPrice = totals.SellingPrice.Add(r.SellingPrice)
	}
	if !totals.SellingPrice.IsZero() {
		totals.AvgMarginPct = totals.SellingPrice.Sub(totals.LandedCost).Div(totals.SellingPrice)
	} else {
		totals.AvgMarginPct = decimal.Zero
	}
	return totals
}
