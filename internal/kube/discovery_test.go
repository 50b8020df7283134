package kube

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func svc(name, namespace string, labels map[string]string, ports []corev1.ServicePort) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Ports: ports,
		},
	}
}

func tcpPort(name string, port int32) corev1.ServicePort {
	return corev1.ServicePort{
		Name:     name,
		Port:     port,
		Protocol: corev1.ProtocolTCP,
	}
}

func TestDiscoverPrometheusServer(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		svc("prometheus-server", "monitoring", map[string]string{
			"app": "prometheus-server",
		}, []corev1.ServicePort{tcpPort("http", 9090)}),
	)

	result, err := Discover(context.Background(), client, DiscoveryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a discovery result")
	}
	if result.URL != "http://prometheus-server.monitoring.svc:9090" {
		t.Errorf("unexpected URL: %s", result.URL)
	}
	if result.Port != 9090 {
		t.Errorf("expected port 9090, got %d", result.Port)
	}
}

func TestDiscoverKubePrometheusStack(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		svc("kube-prometheus-stack-prometheus", "monitoring", map[string]string{
			"app": "kube-prometheus-stack-prometheus",
		}, []corev1.ServicePort{tcpPort("web", 9090)}),
	)

	result, err := Discover(context.Background(), client, DiscoveryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a discovery result")
	}
	if result.ServiceName != "kube-prometheus-stack-prometheus" {
		t.Errorf("unexpected service name: %s", result.ServiceName)
	}
}

func TestDiscoverThanosQuery(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		svc("thanos-query", "observability", map[string]string{
			"app.kubernetes.io/name": "thanos-query",
		}, []corev1.ServicePort{tcpPort("http", 10902)}),
	)

	result, err := Discover(context.Background(), client, DiscoveryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a discovery result")
	}
	if result.URL != "http://thanos-query.observability.svc:10902" {
		t.Errorf("unexpected URL: %s", result.URL)
	}
}

func TestDiscoverNamespaceFilter(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		svc("prometheus-server", "team-a", map[string]string{
			"app": "prometheus-server",
		}, []corev1.ServicePort{tcpPort("http", 9090)}),
		svc("prometheus-server", "team-b", map[string]string{
			"app": "prometheus-server",
		}, []corev1.ServicePort{tcpPort("http", 9090)}),
	)

	result, err := Discover(context.Background(), client, DiscoveryOptions{Namespace: "team-b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a discovery result")
	}
	if result.Namespace != "team-b" {
		t.Errorf("expected namespace team-b, got %s", result.Namespace)
	}
}

func TestDiscoverNotFoundIsNotAnError(t *testing.T) {
	client := fake.NewSimpleClientset() //nolint:staticcheck // NewClientset requires generated apply configs

	result, err := Discover(context.Background(), client, DiscoveryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestDiscoverSelectorOrder(t *testing.T) {
	// Both match different selectors; the earlier selector wins.
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		svc("prometheus-server", "monitoring", map[string]string{
			"app": "prometheus-server",
		}, []corev1.ServicePort{tcpPort("http", 9090)}),
		svc("kube-prometheus-stack-prometheus", "monitoring", map[string]string{
			"app": "kube-prometheus-stack-prometheus",
		}, []corev1.ServicePort{tcpPort("web", 9090)}),
	)

	result, err := Discover(context.Background(), client, DiscoveryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a discovery result")
	}
	if result.ServiceName != "kube-prometheus-stack-prometheus" {
		t.Errorf("expected the first selector to win, got %s", result.ServiceName)
	}
}

func TestDiscoverCustomSelectors(t *testing.T) {
	client := fake.NewSimpleClientset( //nolint:staticcheck // NewClientset requires generated apply configs
		svc("my-prom", "custom", map[string]string{
			"team": "platform",
		}, []corev1.ServicePort{tcpPort("http", 9999)}),
	)

	result, err := Discover(context.Background(), client, DiscoveryOptions{
		Selectors: []string{"team=platform"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a discovery result")
	}
	if result.URL != "http://my-prom.custom.svc:9999" {
		t.Errorf("unexpected URL: %s", result.URL)
	}
}

func TestExtractPortPreference(t *testing.T) {
	// Port named "http" should be preferred over other named ports
	svc := corev1.Service{
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{
				{Name: "grpc", Port: 10901, Protocol: corev1.ProtocolTCP},
				{Name: "http", Port: 9090, Protocol: corev1.ProtocolTCP},
			},
		},
	}
	port := extractPort(svc)
	if port != 9090 {
		t.Errorf("expected port 9090, got %d", port)
	}
}

func TestExtractPortFallbackTCP(t *testing.T) {
	svc := corev1.Service{
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{
				{Name: "metrics", Port: 8080, Protocol: corev1.ProtocolTCP},
			},
		},
	}
	port := extractPort(svc)
	if port != 8080 {
		t.Errorf("expected port 8080, got %d", port)
	}
}

func TestExtractPortWebName(t *testing.T) {
	svc := corev1.Service{
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{
				{Name: "grpc", Port: 10901, Protocol: corev1.ProtocolTCP},
				{Name: "web", Port: 9090, Protocol: corev1.ProtocolTCP},
			},
		},
	}
	port := extractPort(svc)
	if port != 9090 {
		t.Errorf("expected port 9090, got %d", port)
	}
}
