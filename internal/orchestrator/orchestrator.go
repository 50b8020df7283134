package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rightscope/rightscope/internal/config"
	"github.com/rightscope/rightscope/internal/metrics"
	"github.com/rightscope/rightscope/internal/model"
	"github.com/rightscope/rightscope/internal/report"
	"github.com/rightscope/rightscope/internal/strategy"
)

// WorkloadLister supplies the workloads to analyze. Backed by the Kubernetes
// API in normal runs and by static files or fixtures otherwise.
type WorkloadLister func(ctx context.Context) ([]model.Workload, error)

// Orchestrator coordinates the end-to-end recommendation pipeline.
type Orchestrator struct {
	Gatherer  metrics.Gatherer
	Workloads WorkloadLister
	Strategy  strategy.Strategy
	Config    config.Config
	Writer    io.Writer
}

// New creates an orchestrator with the given dependencies.
func New(gatherer metrics.Gatherer, workloads WorkloadLister, strat strategy.Strategy, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		Gatherer:  gatherer,
		Workloads: workloads,
		Strategy:  strat,
		Config:    cfg,
		Writer:    os.Stdout,
	}
}

// Recommend runs the full pipeline: discover workloads → gather usage history
// → apply the strategy → report.
func (o *Orchestrator) Recommend(ctx context.Context) ([]model.Recommendation, error) {
	cfg := o.Config

	workloads, err := o.Workloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering workloads: %w", err)
	}
	if len(workloads) == 0 {
		return nil, fmt.Errorf("no workloads found in scope")
	}

	period, err := cfg.History.PeriodDuration()
	if err != nil {
		return nil, err
	}
	timeframe, err := cfg.History.TimeframeDuration()
	if err != nil {
		return nil, err
	}
	tr := model.NewTimeRange(period, timeframe)

	_, _ = fmt.Fprintf(o.Writer, "Gathering %s of usage history for %d workloads...\n",
		cfg.History.Period, len(workloads))

	recs := make([]model.Recommendation, 0, len(workloads))
	for _, w := range workloads {
		histories, err := o.gatherAll(ctx, w, tr)
		if err != nil {
			return nil, fmt.Errorf("gathering history for %s: %w", w, err)
		}
		recs = append(recs, o.Strategy.Recommend(w, histories[model.ResourceCPU], histories[model.ResourceMemory]))
	}

	reporter := report.NewReporter(cfg.Output.Format, o.Writer)
	meta := report.Meta{
		ClusterName: cfg.Cluster.Name,
		GatheredAt:  time.Now(),
		Period:      cfg.History.Period,
		Timeframe:   cfg.History.Timeframe,
		Strategy:    o.Strategy.Name(),
		Workloads:   len(workloads),
	}
	if err := reporter.Report(ctx, recs, meta); err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	return recs, nil
}

// gatherAll fetches every resource's history for one workload concurrently.
// The gatherer's connection pool provides the backpressure, so two resources
// in flight at once is safe regardless of pod count.
func (o *Orchestrator) gatherAll(ctx context.Context, w model.Workload, tr model.TimeRange) (map[model.ResourceType]*model.History, error) {
	results := make([]*model.History, len(model.ResourceTypes))
	grp, gctx := errgroup.WithContext(ctx)
	for i, resource := range model.ResourceTypes {
		grp.Go(func() error {
			h, err := o.Gatherer.Gather(gctx, w, resource, tr)
			if err != nil {
				return err
			}
			results[i] = h
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	histories := make(map[model.ResourceType]*model.History, len(model.ResourceTypes))
	for i, resource := range model.ResourceTypes {
		histories[resource] = results[i]
	}
	return histories, nil
}
