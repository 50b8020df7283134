package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// DiscoveryResult holds the discovered metrics endpoint.
type DiscoveryResult struct {
	URL         string
	ServiceName string
	Namespace   string
	Port        int32
}

// DiscoveryOptions configures the service discovery search.
type DiscoveryOptions struct {
	// Namespace limits the search; empty = all namespaces.
	Namespace string
	// Selectors is the ordered list of label selectors to probe. Earlier
	// entries win, which lets callers prefer one backend deployment
	// convention over another. Empty = DefaultSelectors.
	Selectors []string
}

// DefaultSelectors covers the common ways a Prometheus-compatible backend is
// labelled across helm charts and operators.
var DefaultSelectors = []string{
	"app=kube-prometheus-stack-prometheus",
	"app=prometheus,component=server",
	"app=prometheus-server",
	"app=prometheus-operator-prometheus",
	"app=prometheus-prometheus",
	"app.kubernetes.io/name=prometheus",
	"app.kubernetes.io/name=thanos-query",
	"app=thanos-query",
}

// Discover searches the cluster for a metrics backend Service, trying each
// label selector in order and returning the first match with a usable port.
// No match — including the cluster denying access to Services — returns
// (nil, nil): not found is a normal outcome here, the caller decides whether
// a missing backend is fatal.
func Discover(ctx context.Context, client kubernetes.Interface, opts DiscoveryOptions) (*DiscoveryResult, error) {
	selectors := opts.Selectors
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}

	for _, selector := range selectors {
		svcList, err := client.CoreV1().Services(opts.Namespace).List(ctx, metav1.ListOptions{
			LabelSelector: selector,
		})
		if err != nil {
			if apierrors.IsForbidden(err) || apierrors.IsUnauthorized(err) {
				continue
			}
			return nil, fmt.Errorf("listing services for selector %q: %w", selector, err)
		}
		if len(svcList.Items) == 0 {
			continue
		}

		svc := svcList.Items[0]
		port := extractPort(svc)
		if port == 0 {
			continue
		}

		return &DiscoveryResult{
			URL:         fmt.Sprintf("http://%s.%s.svc:%d", svc.Name, svc.Namespace, port),
			ServiceName: svc.Name,
			Namespace:   svc.Namespace,
			Port:        port,
		}, nil
	}

	return nil, nil
}

// extractPort returns the best port from a Service, preferring well-known port names.
func extractPort(svc corev1.Service) int32 {
	preferredNames := map[string]bool{
		"http":     true,
		"web":      true,
		"http-web": true,
	}

	// First pass: look for a preferred port name
	for _, p := range svc.Spec.Ports {
		if preferredNames[p.Name] {
			return p.Port
		}
	}

	// Second pass: first TCP port
	for _, p := range svc.Spec.Ports {
		if p.Protocol == corev1.ProtocolTCP || p.Protocol == "" {
			return p.Port
		}
	}

	return 0
}
