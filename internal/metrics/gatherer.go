package metrics

import (
	"context"
	"errors"

	"github.com/rightscope/rightscope/internal/model"
)

var (
	// ErrBackendNotFound means no metrics backend URL could be resolved, or
	// the resolved endpoint failed its liveness check at construction.
	ErrBackendNotFound = errors.New("metrics backend not found")

	// ErrInvalidResourceType means a caller asked for a resource kind no
	// query template exists for. This is a caller defect, not a runtime
	// condition.
	ErrInvalidResourceType = errors.New("unsupported resource type")
)

// Gatherer retrieves historical usage samples for a workload's pods.
type Gatherer interface {
	// Gather returns an ordered pod → samples mapping for one resource over
	// the given time range. Every pod of the workload appears in the result,
	// with an empty sequence when the backend had no data for it. A single
	// failing per-pod query fails the whole call.
	Gather(ctx context.Context, workload model.Workload, resource model.ResourceType, tr model.TimeRange) (*model.History, error)
}
