package strategy

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rightscope/rightscope/internal/model"
)

// Strategy turns gathered usage histories into a per-workload recommendation.
// Strategies are pure: they never touch the network, only the sample data.
type Strategy interface {
	Name() string
	Recommend(workload model.Workload, cpu, memory *model.History) model.Recommendation
}

// New constructs the named strategy from its tuning knobs.
func New(name string, cpuPercentile, memoryBuffer float64) (Strategy, error) {
	switch name {
	case "simple":
		return NewSimple(cpuPercentile, memoryBuffer), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// percentile returns the value at the given fraction (0..1] of the sorted
// samples. Empty input returns zero.
func percentile(samples []decimal.Decimal, p float64) decimal.Decimal {
	if len(samples) == 0 {
		return decimal.Zero
	}
	sorted := append([]decimal.Decimal(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})

	idx := int(float64(len(sorted))*p+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// stats summarizes a sample population.
func stats(samples []decimal.Decimal) model.ResourceStats {
	s := model.ResourceStats{
		Samples: len(samples),
		Min:     decimal.Zero,
		Max:     decimal.Zero,
		Mean:    decimal.Zero,
	}
	if len(samples) == 0 {
		return s
	}

	s.Min = samples[0]
	s.Max = samples[0]
	sum := decimal.Zero
	for _, v := range samples {
		if v.Cmp(s.Min) < 0 {
			s.Min = v
		}
		if v.Cmp(s.Max) > 0 {
			s.Max = v
		}
		sum = sum.Add(v)
	}
	s.Mean = sum.Div(decimal.NewFromInt(int64(len(samples))))
	return s
}
