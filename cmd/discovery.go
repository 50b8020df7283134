package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rightscope/rightscope/internal/kube"
	"github.com/rightscope/rightscope/internal/metrics"
	"github.com/rightscope/rightscope/internal/model"
	"github.com/rightscope/rightscope/internal/orchestrator"
)

// env is the wiring every online command shares: a connected gatherer and a
// workload lister backed by the cluster.
type env struct {
	gatherer  metrics.Gatherer
	workloads orchestrator.WorkloadLister
	cleanup   func()
}

// resolveEnv connects to the cluster and the metrics backend.
//
// The backend URL comes from --prometheus-url when set, otherwise from
// service discovery against the cluster. When running outside the cluster,
// discovery is followed by an automatic port-forward tunnel, since the
// service DNS name won't resolve from a laptop. The auth header is the
// configured one when set, else the kubeconfig's bearer token (outside the
// cluster only), else nothing.
func resolveEnv(ctx context.Context) (*env, error) {
	client, restConfig, kubeContext, inCluster, err := kube.NewClient(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.Context)
	if err != nil {
		return nil, fmt.Errorf("connecting to Kubernetes: %w", err)
	}

	if cfg.Cluster.Name == "" && kubeContext != "" {
		cfg.Cluster.Name = kubeContext
	}

	url := cfg.Prometheus.URL
	var cleanup func()

	if url == "" {
		result, err := kube.Discover(ctx, client, kube.DiscoveryOptions{
			Namespace: cfg.Kubernetes.DiscoveryNamespace,
			Selectors: cfg.Kubernetes.DiscoverySelectors,
		})
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, fmt.Errorf("%w: no backend service discovered; use --prometheus-url", metrics.ErrBackendNotFound)
		}

		slog.Debug("discovered metrics backend",
			"url", result.URL, "service", result.Namespace+"/"+result.ServiceName)

		url = result.URL
		if !inCluster {
			session, err := kube.PortForwardToService(ctx, restConfig, client, result.ServiceName, result.Namespace, result.Port)
			if err != nil {
				return nil, fmt.Errorf("starting port-forward: %w", err)
			}
			url = fmt.Sprintf("http://127.0.0.1:%d", session.LocalPort)
			cleanup = session.Close

			slog.Debug("port-forwarding to backend", "pod", session.PodName, "url", url)
		}
	}

	authHeader := cfg.Prometheus.AuthHeader
	if authHeader == "" && !inCluster {
		authHeader = kube.BearerAuthHeader(restConfig)
	}

	gatherer, err := metrics.NewPrometheusGatherer(ctx, metrics.PrometheusOptions{
		URL:        url,
		AuthHeader: authHeader,
		SSLEnabled: cfg.Prometheus.SSLEnabled,
		Retries:    cfg.Prometheus.Retries,
	})
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, err
	}

	workloads := func(ctx context.Context) ([]model.Workload, error) {
		return kube.ListWorkloads(ctx, client, kube.WorkloadOptions{
			Namespace:         cfg.Kubernetes.Namespace,
			ExcludeNamespaces: cfg.Kubernetes.ExcludeNamespaces,
		})
	}

	return &env{gatherer: gatherer, workloads: workloads, cleanup: cleanup}, nil
}

// resolveStaticEnv wires the pipeline to a recorded history file instead of a
// live cluster.
func resolveStaticEnv(historyFile string) *env {
	static := metrics.NewStaticGatherer(historyFile)
	return &env{
		gatherer: static,
		workloads: func(context.Context) ([]model.Workload, error) {
			return static.Workloads()
		},
	}
}
