package model

import "github.com/shopspring/decimal"

// ResourceStats summarizes the gathered samples for one resource of one
// workload.
type ResourceStats struct {
	Samples int             `json:"samples"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
	Mean    decimal.Decimal `json:"mean"`
}

// ResourceRecommendation is the strategy output for a single resource.
type ResourceRecommendation struct {
	Resource ResourceType    `json:"resource"`
	Request  decimal.Decimal `json:"request"`
	Stats    ResourceStats   `json:"stats"`
}

// Recommendation is the final per-workload output presented to the user.
type Recommendation struct {
	Workload Workload               `json:"workload"`
	CPU      ResourceRecommendation `json:"cpu"`
	Memory   ResourceRecommendation `json:"memory"`

	// Set when the workload had no usable samples for either resource.
	NoData bool `json:"no_data,omitempty"`

	// Human-readable notes, e.g. pods with empty histories.
	Warnings []string `json:"warnings,omitempty"`
}

// CPUMillis renders the CPU request in millicores, rounded up.
func (r Recommendation) CPUMillis() int64 {
	return r.CPU.Request.Mul(decimal.NewFromInt(1000)).Ceil().IntPart()
}

// MemoryMiB renders the memory request in MiB, rounded up.
func (r Recommendation) MemoryMiB() int64 {
	return r.Memory.Request.Div(decimal.NewFromInt(1024 * 1024)).Ceil().IntPart()
}
