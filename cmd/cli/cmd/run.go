// Package cmd - run command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"landed-cost/adapters/ratefile"
	"landed-cost/core/engine"
	"landed-cost/core/rates"
	"landed-cost/core/types"
	"landed-cost/internal/config"
	"landed-cost/internal/logging"
)

var (
	outputFormat string
	dbPath       string
	runWorkers   int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [runfile]",
	Short: "Price the items in a run file",
	Long: `Execute a pricing run described by an HCL run file.

A run file names the destination, FX date, margin target, and cost
models, plus the items to price. Rates come from the local database
unless the file carries its own fx_rate/duty_rate/vat_rate/fee blocks,
in which case the run is fully self-contained.

Examples:
  landed-cost run shipment.hcl
  landed-cost run --format json shipment.hcl > run.json
  landed-cost run --workers 8 shipment.hcl`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "rate database path (default from config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "item parallelism (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	startTime := time.Now()

	path := args[0]
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("run file does not exist: %s", path)
	}

	doc, err := ratefile.Load(path)
	if err != nil {
		return err
	}

	var store rates.Store
	if doc.Rates != nil {
		store = doc.Rates
	} else {
		sqlStore, closeDB, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB()
		store = sqlStore
	}

	workers := runWorkers
	if workers <= 0 {
		workers = config.Get().Run.Workers
	}

	orch := engine.New(rates.NewResolver(store), engine.WithWorkers(workers))
	result, err := orch.Run(ctx, doc.Items, doc.Config)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(data))
	default:
		printRun(result, time.Since(startTime))
	}

	logging.Sync()
	return nil
}

func printRun(result *types.RunResult, elapsed time.Duration) {
	fmt.Println("┌──────────────────────────────────────────────────────────────────────────┐")
	fmt.Println("│                           PRICING RUN SUMMARY                            │")
	fmt.Println("├──────────────────────────────────────────────────────────────────────────┤")
	fmt.Printf("│ Run %-36s  %-10s  fx %-17s │\n",
		result.RunID, result.Config.Destination, result.Config.FxDate)
	fmt.Println("├──────────────────────────────────────────────────────────────────────────┤")
	fmt.Printf("│ %-22s %15s %15s %15s │\n", "ITEM", "LANDED COST", "SELLING PRICE", "MARGIN")
	for _, r := range result.Results {
		fmt.Printf("│ %-22s %15s %15s %14s%% │\n",
			truncate(r.Breakdown.Inputs.SKU, 22),
			r.LandedCost.StringFixed(2),
			r.SellingPrice.StringFixed(2),
			r.MarginPct.Mul(hundred).StringFixed(2))
	}
	fmt.Println("├──────────────────────────────────────────────────────────────────────────┤")
	fmt.Printf("│ %-22s %15s %15s %14s%% │\n",
		fmt.Sprintf("TOTAL (%d items)", result.Totals.Items),
		result.Totals.LandedCost.StringFixed(2),
		result.Totals.SellingPrice.StringFixed(2),
		result.Totals.AvgMarginPct.Mul(hundred).StringFixed(2))
	fmt.Println("└──────────────────────────────────────────────────────────────────────────┘")

	fmt.Printf("\nRates snapshot %s\n", result.SnapshotRates.ContentHash)
	fmt.Printf("Run completed in %s\n", elapsed.Round(time.Millisecond))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
