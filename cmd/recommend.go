package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rightscope/rightscope/internal/orchestrator"
	"github.com/rightscope/rightscope/internal/strategy"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Gather usage history and recommend resource requests",
	Long: `Discovers workloads, gathers their historical CPU and memory usage from
the metrics backend, and prints recommended resource requests per
container.

With --history-file, recorded history from 'rightscope inspect' is used
instead of a live backend.`,
	RunE: runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.String("period", "", `history lookback, e.g. "14d"`)
	f.String("timeframe", "", `sampling granularity, e.g. "30m"`)
	f.Float64("cpu-percentile", 0, "CPU usage percentile for the request (0.0-1.0)")
	f.Float64("memory-buffer", 0, "multiplier applied to peak memory usage")
	f.String("output", "", "output format: table, json")
	f.String("output-file", "", "write output to file")
	f.String("history-file", "", "recorded history JSON instead of a live backend")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Apply flag overrides
	if p, _ := cmd.Flags().GetString("period"); p != "" {
		cfg.History.Period = p
	}
	if t, _ := cmd.Flags().GetString("timeframe"); t != "" {
		cfg.History.Timeframe = t
	}
	if p, _ := cmd.Flags().GetFloat64("cpu-percentile"); cmd.Flags().Changed("cpu-percentile") {
		cfg.Strategy.CPUPercentile = p
	}
	if b, _ := cmd.Flags().GetFloat64("memory-buffer"); cmd.Flags().Changed("memory-buffer") {
		cfg.Strategy.MemoryBuffer = b
	}
	if f, _ := cmd.Flags().GetString("output"); f != "" {
		cfg.Output.Format = f
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	strat, err := strategy.New(cfg.Strategy.Name, cfg.Strategy.CPUPercentile, cfg.Strategy.MemoryBuffer)
	if err != nil {
		return err
	}

	var e *env
	if historyFile, _ := cmd.Flags().GetString("history-file"); historyFile != "" {
		e = resolveStaticEnv(historyFile)
	} else {
		e, err = resolveEnv(ctx)
		if err != nil {
			return err
		}
	}
	if e.cleanup != nil {
		defer e.cleanup()
	}

	// Handle output file
	w := os.Stdout
	if outFile, _ := cmd.Flags().GetString("output-file"); outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	orch := orchestrator.New(e.gatherer, e.workloads, strat, cfg)
	orch.Writer = w

	_, err = orch.Recommend(ctx)
	return err
}
