package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rightscope/rightscope/internal/model"
)

// Simple recommends the CPU request at a configured usage percentile and the
// memory request at the observed maximum times a safety buffer. Replicas are
// treated as one population: any replica may see the workload's peak.
type Simple struct {
	CPUPercentile float64 // e.g. 0.99
	MemoryBuffer  float64 // e.g. 1.15 for +15%
}

// NewSimple creates the simple strategy with the given tuning.
func NewSimple(cpuPercentile, memoryBuffer float64) *Simple {
	return &Simple{
		CPUPercentile: cpuPercentile,
		MemoryBuffer:  memoryBuffer,
	}
}

func (s *Simple) Name() string { return "simple" }

// Recommend computes resource requests for one workload from its gathered
// CPU and memory histories.
func (s *Simple) Recommend(workload model.Workload, cpu, memory *model.History) model.Recommendation {
	cpuSamples := cpu.All()
	memSamples := memory.All()

	cpuStats := stats(cpuSamples)
	memStats := stats(memSamples)

	buffer := decimal.NewFromFloat(s.MemoryBuffer)

	rec := model.Recommendation{
		Workload: workload,
		CPU: model.ResourceRecommendation{
			Resource: model.ResourceCPU,
			Request:  percentile(cpuSamples, s.CPUPercentile),
			Stats:    cpuStats,
		},
		Memory: model.ResourceRecommendation{
			Resource: model.ResourceMemory,
			Request:  memStats.Max.Mul(buffer),
			Stats:    memStats,
		},
		NoData: len(cpuSamples) == 0 && len(memSamples) == 0,
	}

	for _, pod := range workload.Pods {
		cpuVals, _ := cpu.Samples(pod)
		memVals, _ := memory.Samples(pod)
		if len(cpuVals) == 0 && len(memVals) == 0 {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("pod %s has no recorded usage", pod))
		}
	}

	return rec
}
