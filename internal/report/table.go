package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rightscope/rightscope/internal/model"
)

// TableReporter outputs recommendations as a formatted terminal table.
type TableReporter struct {
	w io.Writer
}

func (r *TableReporter) Report(ctx context.Context, recs []model.Recommendation, meta Meta) error {
	fmt.Fprintf(r.w, "\n")
	fmt.Fprintf(r.w, "Rightscope Recommendations\n")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 60))
	if meta.ClusterName != "" {
		fmt.Fprintf(r.w, "Cluster:    %s\n", meta.ClusterName)
	}
	fmt.Fprintf(r.w, "Workloads:  %d\n", meta.Workloads)
	fmt.Fprintf(r.w, "History:    %s at %s resolution\n", meta.Period, meta.Timeframe)
	fmt.Fprintf(r.w, "Strategy:   %s\n", meta.Strategy)
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("=", 60))

	if len(recs) == 0 {
		fmt.Fprintf(r.w, "No recommendations available.\n")
		return nil
	}

	fmt.Fprintf(r.w, "%-45s %-16s %4s %10s %12s %s\n",
		"Workload", "Container", "Pods", "CPU (m)", "Memory (MiB)", "Notes")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 100))

	for _, rec := range recs {
		name := rec.Workload.String()
		if len(name) > 45 {
			name = name[:42] + "..."
		}

		if rec.NoData {
			fmt.Fprintf(r.w, "%-45s %-16s %4d %10s %12s no usage data\n",
				name, rec.Workload.Container, len(rec.Workload.Pods), "-", "-")
			continue
		}

		notes := ""
		if n := len(rec.Warnings); n > 0 {
			notes = fmt.Sprintf("%d warning(s)", n)
		}

		fmt.Fprintf(r.w, "%-45s %-16s %4d %10d %12d %s\n",
			name,
			rec.Workload.Container,
			len(rec.Workload.Pods),
			rec.CPUMillis(),
			rec.MemoryMiB(),
			notes,
		)
	}

	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 100))
	return nil
}
