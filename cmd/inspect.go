package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rightscope/rightscope/internal/metrics"
	"github.com/rightscope/rightscope/internal/model"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Gather and dump raw usage history",
	Long: `Discovers workloads, gathers their per-pod usage history, and dumps it
as JSON. Useful for debugging what the metrics backend returns. The
output can be fed to 'rightscope recommend --history-file'.`,
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.String("period", "", `history lookback, e.g. "14d"`)
	f.String("timeframe", "", `sampling granularity, e.g. "30m"`)
	f.String("output-file", "", "write output to file")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if p, _ := cmd.Flags().GetString("period"); p != "" {
		cfg.History.Period = p
	}
	if t, _ := cmd.Flags().GetString("timeframe"); t != "" {
		cfg.History.Timeframe = t
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	e, err := resolveEnv(ctx)
	if err != nil {
		return err
	}
	if e.cleanup != nil {
		defer e.cleanup()
	}

	workloads, err := e.workloads(ctx)
	if err != nil {
		return fmt.Errorf("discovering workloads: %w", err)
	}

	period, err := cfg.History.PeriodDuration()
	if err != nil {
		return err
	}
	timeframe, err := cfg.History.TimeframeDuration()
	if err != nil {
		return err
	}
	tr := model.NewTimeRange(period, timeframe)

	entries := make([]metrics.StaticEntry, 0, len(workloads))
	for _, w := range workloads {
		entry := metrics.StaticEntry{
			Workload: w,
			Samples:  make(map[model.ResourceType]map[string][]decimal.Decimal),
		}
		for _, resource := range model.ResourceTypes {
			hist, err := e.gatherer.Gather(ctx, w, resource, tr)
			if err != nil {
				return fmt.Errorf("gathering %s history for %s: %w", resource, w, err)
			}
			entry.Samples[resource] = hist.Map()
		}
		entries = append(entries, entry)
	}

	out := os.Stdout
	if outFile, _ := cmd.Flags().GetString("output-file"); outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Workloads []metrics.StaticEntry `json:"workloads"`
	}{Workloads: entries})
}
