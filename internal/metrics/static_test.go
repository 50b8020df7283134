package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rightscope/rightscope/internal/model"
)

const staticFixture = `{
  "workloads": [
    {
      "workload": {
        "kind": "Deployment",
        "name": "web",
        "namespace": "ns1",
        "container": "app",
        "pods": ["web-a", "web-b"]
      },
      "samples": {
        "cpu": {
          "web-a": ["0.25", "0.5"],
          "web-b": ["0.1"]
        },
        "memory": {
          "web-a": ["1048576"]
        }
      }
    }
  ]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte(staticFixture), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestStaticGathererWorkloads(t *testing.T) {
	s := NewStaticGatherer(writeFixture(t))

	workloads, err := s.Workloads()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(workloads) != 1 {
		t.Fatalf("expected 1 workload, got %d", len(workloads))
	}
	if workloads[0].Name != "web" || workloads[0].Container != "app" {
		t.Errorf("unexpected workload: %+v", workloads[0])
	}
}

func TestStaticGathererGather(t *testing.T) {
	s := NewStaticGatherer(writeFixture(t))
	w := model.Workload{Kind: "Deployment", Namespace: "ns1", Name: "web", Container: "app", Pods: []string{"web-a", "web-b"}}

	hist, err := s.Gather(context.Background(), w, model.ResourceCPU, model.TimeRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := hist.Samples("web-a")
	if len(a) != 2 || a[0].String() != "0.25" || a[1].String() != "0.5" {
		t.Errorf("unexpected web-a samples: %v", a)
	}

	// memory has no data for web-b: still present, empty
	mem, err := s.Gather(context.Background(), w, model.ResourceMemory, model.TimeRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, ok := mem.Samples("web-b")
	if !ok {
		t.Fatal("web-b missing from memory history")
	}
	if len(b) != 0 {
		t.Errorf("expected empty samples for web-b, got %v", b)
	}
}

func TestStaticGathererMatchesContainer(t *testing.T) {
	// One Deployment, two containers: each records its own samples and each
	// gather must get its own back, not the other container's.
	app := model.Workload{Kind: "Deployment", Namespace: "ns1", Name: "web", Container: "app", Pods: []string{"web-a"}}
	sidecar := model.Workload{Kind: "Deployment", Namespace: "ns1", Name: "web", Container: "sidecar", Pods: []string{"web-a"}}

	s := NewStaticGathererFromEntries([]StaticEntry{
		{
			Workload: app,
			Samples: map[model.ResourceType]map[string][]decimal.Decimal{
				model.ResourceCPU: {"web-a": decsOf(t, "0.5")},
			},
		},
		{
			Workload: sidecar,
			Samples: map[model.ResourceType]map[string][]decimal.Decimal{
				model.ResourceCPU: {"web-a": decsOf(t, "0.01")},
			},
		},
	})

	hist, err := s.Gather(context.Background(), sidecar, model.ResourceCPU, model.TimeRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := hist.Samples("web-a")
	if len(got) != 1 || got[0].String() != "0.01" {
		t.Errorf("sidecar history = %v, want the sidecar's own samples", got)
	}

	hist, err = s.Gather(context.Background(), app, model.ResourceCPU, model.TimeRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = hist.Samples("web-a")
	if len(got) != 1 || got[0].String() != "0.5" {
		t.Errorf("app history = %v, want the app's own samples", got)
	}
}

func TestStaticGathererMatchesKind(t *testing.T) {
	// A Deployment and StatefulSet sharing a name in one namespace must not
	// be conflated.
	deploy := model.Workload{Kind: "Deployment", Namespace: "ns1", Name: "db", Container: "app", Pods: []string{"db-x"}}
	sts := model.Workload{Kind: "StatefulSet", Namespace: "ns1", Name: "db", Container: "app", Pods: []string{"db-0"}}

	s := NewStaticGathererFromEntries([]StaticEntry{
		{
			Workload: deploy,
			Samples: map[model.ResourceType]map[string][]decimal.Decimal{
				model.ResourceCPU: {"db-x": decsOf(t, "0.2")},
			},
		},
		{
			Workload: sts,
			Samples: map[model.ResourceType]map[string][]decimal.Decimal{
				model.ResourceCPU: {"db-0": decsOf(t, "0.9")},
			},
		},
	})

	hist, err := s.Gather(context.Background(), sts, model.ResourceCPU, model.TimeRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := hist.Samples("db-0")
	if len(got) != 1 || got[0].String() != "0.9" {
		t.Errorf("statefulset history = %v, want its own samples", got)
	}
}

func decsOf(t *testing.T, values ...string) []decimal.Decimal {
	t.Helper()
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", v, err)
		}
		out = append(out, d)
	}
	return out
}

func TestStaticGathererInvalidResource(t *testing.T) {
	s := NewStaticGatherer(writeFixture(t))
	w := model.Workload{Namespace: "ns1", Name: "web", Pods: []string{"web-a"}}

	_, err := s.Gather(context.Background(), w, model.ResourceType("gpu"), model.TimeRange{})
	if !errors.Is(err, ErrInvalidResourceType) {
		t.Fatalf("expected ErrInvalidResourceType, got %v", err)
	}
}

func TestStaticGathererMissingFile(t *testing.T) {
	s := NewStaticGatherer(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := s.Workloads(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
