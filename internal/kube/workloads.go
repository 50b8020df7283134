package kube

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/rightscope/rightscope/internal/model"
)

// WorkloadOptions scopes workload discovery.
type WorkloadOptions struct {
	// Namespace limits discovery; empty = all namespaces.
	Namespace string
	// ExcludeNamespaces are skipped even when Namespace is empty.
	ExcludeNamespaces []string
	// LabelSelector optionally filters the workloads themselves.
	LabelSelector string
}

// ListWorkloads discovers Deployments, StatefulSets, and DaemonSets and
// resolves each of their containers to a Workload with an ordered pod list.
// Pod names are sorted so repeated runs gather in a stable order.
func ListWorkloads(ctx context.Context, client kubernetes.Interface, opts WorkloadOptions) ([]model.Workload, error) {
	excluded := make(map[string]bool, len(opts.ExcludeNamespaces))
	for _, ns := range opts.ExcludeNamespaces {
		excluded[ns] = true
	}

	listOpts := metav1.ListOptions{LabelSelector: opts.LabelSelector}
	var workloads []model.Workload

	deploys, err := client.AppsV1().Deployments(opts.Namespace).List(ctx, listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	for _, d := range deploys.Items {
		if excluded[d.Namespace] {
			continue
		}
		w, err := resolve(ctx, client, "Deployment", d.Namespace, d.Name, d.Spec.Selector, d.Spec.Template.Spec.Containers)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, w...)
	}

	stss, err := client.AppsV1().StatefulSets(opts.Namespace).List(ctx, listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing statefulsets: %w", err)
	}
	for _, s := range stss.Items {
		if excluded[s.Namespace] {
			continue
		}
		w, err := resolve(ctx, client, "StatefulSet", s.Namespace, s.Name, s.Spec.Selector, s.Spec.Template.Spec.Containers)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, w...)
	}

	dss, err := client.AppsV1().DaemonSets(opts.Namespace).List(ctx, listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing daemonsets: %w", err)
	}
	for _, d := range dss.Items {
		if excluded[d.Namespace] {
			continue
		}
		w, err := resolve(ctx, client, "DaemonSet", d.Namespace, d.Name, d.Spec.Selector, d.Spec.Template.Spec.Containers)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, w...)
	}

	return workloads, nil
}

// resolve produces one Workload per container of the owner, all sharing the
// owner's current pod list.
func resolve(
	ctx context.Context,
	client kubernetes.Interface,
	kind, namespace, name string,
	selector *metav1.LabelSelector,
	containers []corev1.Container,
) ([]model.Workload, error) {
	pods, err := podsForSelector(ctx, client, namespace, selector)
	if err != nil {
		return nil, fmt.Errorf("resolving pods for %s %s/%s: %w", kind, namespace, name, err)
	}

	workloads := make([]model.Workload, 0, len(containers))
	for _, c := range containers {
		workloads = append(workloads, model.Workload{
			Kind:      kind,
			Name:      name,
			Namespace: namespace,
			Container: c.Name,
			Pods:      pods,
		})
	}
	return workloads, nil
}

func podsForSelector(ctx context.Context, client kubernetes.Interface, namespace string, selector *metav1.LabelSelector) ([]string, error) {
	if selector == nil {
		return nil, nil
	}

	podList, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(selector),
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(podList.Items))
	for _, p := range podList.Items {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}
