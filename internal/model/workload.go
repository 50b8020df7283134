package model

import "fmt"

// ResourceType identifies a container resource dimension with historical
// usage data in the metrics backend.
type ResourceType string

const (
	ResourceCPU    ResourceType = "cpu"
	ResourceMemory ResourceType = "memory"
)

// ResourceTypes lists every supported resource in a stable order.
var ResourceTypes = []ResourceType{ResourceCPU, ResourceMemory}

// ParseResourceType converts a user-supplied string into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	switch ResourceType(s) {
	case ResourceCPU:
		return ResourceCPU, nil
	case ResourceMemory:
		return ResourceMemory, nil
	default:
		return "", fmt.Errorf("unknown resource type %q (expected cpu or memory)", s)
	}
}

// Unit returns the unit the backend reports samples in for this resource.
func (r ResourceType) Unit() string {
	if r == ResourceCPU {
		return "cores"
	}
	return "bytes"
}

// Workload represents one application unit whose pod replicas share a
// container of interest. The pod list is ordered; gathered histories are
// aligned to it positionally.
type Workload struct {
	Kind      string   `json:"kind"` // Deployment, StatefulSet, DaemonSet
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	Container string   `json:"container"`
	Pods      []string `json:"pods"`
}

// String returns the workload's fully qualified name.
func (w Workload) String() string {
	return fmt.Sprintf("%s %s/%s", w.Kind, w.Namespace, w.Name)
}
