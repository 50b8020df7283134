package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/rightscope/rightscope/internal/model"
)

// StaticGatherer serves usage history from a JSON file instead of a live
// backend. Used for testing, offline analysis, and CI pipelines.
type StaticGatherer struct {
	filePath string
	entries  []StaticEntry
}

// StaticEntry is one workload's recorded history in a static file.
type StaticEntry struct {
	Workload model.Workload                                    `json:"workload"`
	Samples  map[model.ResourceType]map[string][]decimal.Decimal `json:"samples"`
}

// NewStaticGatherer creates a gatherer reading from a JSON file.
func NewStaticGatherer(filePath string) *StaticGatherer {
	return &StaticGatherer{filePath: filePath}
}

// NewStaticGathererFromEntries creates a gatherer from in-memory entries.
func NewStaticGathererFromEntries(entries []StaticEntry) *StaticGatherer {
	return &StaticGatherer{entries: entries}
}

// Workloads returns the workloads recorded in the file, loading it on first
// use.
func (s *StaticGatherer) Workloads() ([]model.Workload, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]model.Workload, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Workload
	}
	return out, nil
}

// Gather implements Gatherer against the recorded data. Pods with no recorded
// samples get an empty sequence, same as the live gatherer.
func (s *StaticGatherer) Gather(
	ctx context.Context,
	workload model.Workload,
	resource model.ResourceType,
	_ model.TimeRange,
) (*model.History, error) {
	if _, ok := queryTemplates[resource]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceType, resource)
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	hist := model.NewHistory(workload.Pods)
	for _, e := range s.entries {
		// Match the full identity: one owner produces one entry per
		// container, and a Deployment and StatefulSet may share a name.
		if e.Workload.Kind != workload.Kind ||
			e.Workload.Namespace != workload.Namespace ||
			e.Workload.Name != workload.Name ||
			e.Workload.Container != workload.Container {
			continue
		}
		for pod, samples := range e.Samples[resource] {
			hist.Set(pod, samples)
		}
		break
	}
	return hist, nil
}

func (s *StaticGatherer) load() error {
	if s.entries != nil {
		return nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("reading static history file: %w", err)
	}

	var file struct {
		Workloads []StaticEntry `json:"workloads"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing static history file: %w", err)
	}
	if len(file.Workloads) == 0 {
		return fmt.Errorf("static history file %s contains no workloads", s.filePath)
	}

	s.entries = file.Workloads
	return nil
}
