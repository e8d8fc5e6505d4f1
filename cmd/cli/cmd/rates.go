// Package cmd - rates commands
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"landed-cost/adapters/fx"
	"landed-cost/adapters/storage"
	"landed-cost/internal/config"
)

var hundred = decimal.NewFromInt(100)

// ratesCmd groups rate database maintenance
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage the rate database",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var ratesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the canonical UK/US/EU rate schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB()

		stats, err := store.Seed(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d records: %d fx, %d duty, %d vat, %d fees\n",
			stats.Total(), stats.FxRates, stats.DutyRates, stats.VatRates, stats.Fees)
		return nil
	},
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rate records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeDB, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB()

		fxRates, err := store.FxRates(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("FX rates (%d)\n", len(fxRates))
		for _, r := range fxRates {
			fmt.Printf("  %-12s  GBP %-10s USD %-10s EUR %-10s\n",
				r.AsOfDate.Format("2006-01-02"), r.PkrToGbp, r.PkrToUsd, r.PkrToEur)
		}

		duty, err := store.ListDutyRates(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Duty rates (%d)\n", len(duty))
		for _, r := range duty {
			window := r.EffectiveFrom.Format("2006-01-02") + " .."
			if r.EffectiveTo != nil {
				window += " " + r.EffectiveTo.Format("2006-01-02")
			}
			fmt.Printf("  %-3s %-8s %7s%%  %s\n",
				r.Country, r.HsCode, r.RatePercent.Mul(hundred), window)
		}

		vat, err := store.ListVatRates(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("VAT rates (%d)\n", len(vat))
		for _, r := range vat {
			fmt.Printf("  %-3s %-20s %7s%%  %s ..\n",
				r.Country, r.Base, r.RatePercent.Mul(hundred), r.EffectiveFrom.Format("2006-01-02"))
		}

		fees, err := store.ListFees(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Fees (%d)\n", len(fees))
		for _, f := range fees {
			fmt.Printf("  %-3s %-36s %-9s %s\n", f.Country, f.Name, f.Method, f.Value)
		}
		return nil
	},
}

var ratesUpdateFxCmd = &cobra.Command{
	Use:   "update-fx",
	Short: "Fetch current FX rates from the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if cfg.FxFeed.APIKey == "" {
			return fmt.Errorf("fx feed api key not configured; set fx_feed.api_key in %s", defaultConfigPath())
		}

		store, closeDB, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB()

		client := fx.NewClient(cfg.FxFeed.APIKey, cfg.FxFeed.BaseURL)
		maxAge := time.Duration(cfg.FxFeed.MaxAgeHours) * time.Hour
		rec, err := fx.NewService(client, store, maxAge).Refresh(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("FX rates as of %s: GBP %s, USD %s, EUR %s\n",
			rec.AsOfDate.Format("2006-01-02"), rec.PkrToGbp, rec.PkrToUsd, rec.PkrToEur)
		return nil
	},
}

func init() {
	ratesCmd.PersistentFlags().StringVar(&dbPath, "db", "", "rate database path (default from config)")
	ratesCmd.AddCommand(ratesSeedCmd)
	ratesCmd.AddCommand(ratesListCmd)
	ratesCmd.AddCommand(ratesUpdateFxCmd)
}

// openStore opens the rate database, running migrations on first use
func openStore() (*storage.Store, func(), error) {
	path := dbPath
	if path == "" {
		path = config.Get().Database.Path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return storage.NewStore(db), func() { db.Close() }, nil
}
