package metrics

import (
	"fmt"

	"github.com/rightscope/rightscope/internal/model"
)

// PromQL query templates for per-pod resource usage history.
//
// One template per resource type; adding a resource means adding an entry
// here, not branching at call sites. The queries follow standard
// Prometheus + cAdvisor metric names.

type queryTemplate func(namespace, pod, container string) string

var queryTemplates = map[model.ResourceType]queryTemplate{
	model.ResourceCPU:    cpuUsageQuery,
	model.ResourceMemory: memoryWorkingSetQuery,
}

// BuildQuery returns the PromQL range-query expression for one pod's usage of
// the given resource. Unknown resource types fail with ErrInvalidResourceType.
func BuildQuery(resource model.ResourceType, namespace, pod, container string) (string, error) {
	tmpl, ok := queryTemplates[resource]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, resource)
	}
	return tmpl(namespace, pod, container), nil
}

// cpuUsageQuery returns per-second CPU usage of the container, summed across
// restarts. Result is in cores.
func cpuUsageQuery(namespace, pod, container string) string {
	return fmt.Sprintf(
		`sum(rate(container_cpu_usage_seconds_total{container="%s", namespace="%s", pod="%s"}[5m]))`,
		container, namespace, pod,
	)
}

// memoryWorkingSetQuery returns working-set memory of the container in bytes.
// The image!="" filter drops the pause container and other infra series.
func memoryWorkingSetQuery(namespace, pod, container string) string {
	return fmt.Sprintf(
		`sum(container_memory_working_set_bytes{image!="", namespace="%s", pod="%s", container="%s"})`,
		namespace, pod, container,
	)
}
