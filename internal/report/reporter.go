package report

import (
	"context"
	"io"
	"time"

	"github.com/rightscope/rightscope/internal/model"
)

// Reporter formats and writes recommendations to an output destination.
type Reporter interface {
	Report(ctx context.Context, recs []model.Recommendation, meta Meta) error
}

// Meta contains contextual metadata for the report.
type Meta struct {
	ClusterName string    `json:"cluster_name,omitempty"`
	GatheredAt  time.Time `json:"gathered_at"`
	Period      string    `json:"period"`
	Timeframe   string    `json:"timeframe"`
	Strategy    string    `json:"strategy"`
	Workloads   int       `json:"workloads"`
}

// NewReporter creates a reporter for the given format writing to w.
func NewReporter(format string, w io.Writer) Reporter {
	switch format {
	case "json":
		return &JSONReporter{w: w}
	default:
		return &TableReporter{w: w}
	}
}
