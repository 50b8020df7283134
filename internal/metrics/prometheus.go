package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	prommodel "github.com/prometheus/common/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rightscope/rightscope/internal/model"
)

// PrometheusGatherer gathers per-pod usage history from a Prometheus
// compatible backend. It owns a bounded connection pool and is safe for
// concurrent use across many gather calls; construct it once per cluster and
// share it.
type PrometheusGatherer struct {
	client promapi.Client
	api    promv1.API
	url    string
	log    *slog.Logger
}

// PrometheusOptions configures the gatherer's connection to the backend.
type PrometheusOptions struct {
	// URL is the backend endpoint. Required; discovery happens before this
	// layer (see cmd/discovery.go).
	URL string
	// AuthHeader is sent verbatim as the Authorization header when set.
	AuthHeader string
	// SSLEnabled controls TLS certificate verification.
	SSLEnabled bool
	// Retries is the number of transport-level retries per request.
	Retries uint64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewPrometheusGatherer connects to the backend and verifies it is alive with
// one minimal query. A missing URL, a connection error, or a non-success
// response all fail with ErrBackendNotFound wrapping the cause; a gatherer is
// never returned half-usable.
func NewPrometheusGatherer(ctx context.Context, opts PrometheusOptions) (*PrometheusGatherer, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: no URL configured or discovered", ErrBackendNotFound)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var rt http.RoundTripper = newPooledTransport(opts.SSLEnabled)
	rt = &retryRoundTripper{next: rt, maxRetries: opts.Retries}
	if opts.AuthHeader != "" {
		rt = &authRoundTripper{next: rt, header: opts.AuthHeader}
	}

	client, err := promapi.NewClient(promapi.Config{
		Address:      opts.URL,
		RoundTripper: rt,
	})
	if err != nil {
		return nil, fmt.Errorf("creating prometheus client: %w", err)
	}

	g := &PrometheusGatherer{
		client: client,
		api:    promv1.NewAPI(client),
		url:    opts.URL,
		log:    log,
	}
	if err := g.verifyLive(ctx); err != nil {
		return nil, err
	}

	log.Debug("connected to metrics backend", "url", opts.URL)
	return g, nil
}

// verifyLive issues one no-op instant query. The expression is a valid metric
// selector that matches nothing, so a healthy backend answers success with an
// empty result set. Bounded so a black-holed endpoint fails construction
// instead of hanging.
func (g *PrometheusGatherer) verifyLive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, _, err := g.api.Query(ctx, "example", time.Now())
	if err != nil {
		return fmt.Errorf("%w: backend at %s failed liveness check: %w", ErrBackendNotFound, g.url, err)
	}
	return nil
}

// URL returns the endpoint this gatherer talks to.
func (g *PrometheusGatherer) URL() string {
	return g.url
}

// Gather implements Gatherer. It fans out one range query per pod, waits for
// all of them, and assembles the result positionally by the workload's pod
// order, whatever order the queries finished in. One failing query cancels
// the remaining in-flight queries and fails the whole call; partial results
// are never returned.
func (g *PrometheusGatherer) Gather(
	ctx context.Context,
	workload model.Workload,
	resource model.ResourceType,
	tr model.TimeRange,
) (*model.History, error) {
	// Catch caller defects before any network activity.
	if _, ok := queryTemplates[resource]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceType, resource)
	}

	hist := model.NewHistory(workload.Pods)
	if hist.Len() == 0 {
		return hist, nil
	}

	g.log.Debug("gathering history",
		"workload", workload.String(), "resource", resource,
		"pods", hist.Len(), "period", tr.Period, "step", tr.Step())

	end := time.Now()
	start := end.Add(-tr.Period)
	step := tr.Step()

	results := make([][]decimal.Decimal, len(workload.Pods))
	grp, gctx := errgroup.WithContext(ctx)
	for i, pod := range workload.Pods {
		grp.Go(func() error {
			query, err := BuildQuery(resource, workload.Namespace, pod, workload.Container)
			if err != nil {
				return err
			}
			samples, err := g.queryRange(gctx, query, start, end, step)
			if err != nil {
				return fmt.Errorf("querying %s history for pod %s: %w", resource, pod, err)
			}
			results[i] = samples
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	for i, pod := range workload.Pods {
		hist.Set(pod, results[i])
	}
	return hist, nil
}

// rangeEnvelope is the backend's native JSON time-series envelope. Only the
// values arrays are consumed; decoding them here instead of going through the
// typed query API keeps sample values exact instead of rounding them through
// float64.
type rangeEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Values []samplePair `json:"values"`
		} `json:"result"`
	} `json:"data"`
	Error string `json:"error"`
}

// samplePair is one [timestamp, value] element of a range-query result. The
// timestamp is decoded only to satisfy the wire format and then dropped.
type samplePair struct {
	Timestamp float64
	Value     decimal.Decimal
}

func (s *samplePair) UnmarshalJSON(data []byte) error {
	var parts [2]json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("malformed sample pair: %w", err)
	}
	if err := json.Unmarshal(parts[0], &s.Timestamp); err != nil {
		return fmt.Errorf("malformed sample timestamp: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.Value); err != nil {
		return fmt.Errorf("malformed sample value: %w", err)
	}
	return nil
}

// queryRange issues one range query and returns the values of the first
// returned series with timestamps dropped. An empty result set returns nil.
func (g *PrometheusGatherer) queryRange(ctx context.Context, query string, start, end time.Time, step string) ([]decimal.Decimal, error) {
	u := g.client.URL("/api/v1/query_range", nil)
	q := u.Query()
	q.Set("query", query)
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("step", step)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building range query request: %w", err)
	}

	resp, body, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend returned %s", resp.Status)
	}

	var env rangeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding range query response: %w", err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("range query failed: %s", env.Error)
	}
	if env.Data.ResultType != prommodel.ValMatrix.String() {
		return nil, fmt.Errorf("unexpected result type %q", env.Data.ResultType)
	}
	if len(env.Data.Result) == 0 {
		return nil, nil
	}

	values := env.Data.Result[0].Values
	samples := make([]decimal.Decimal, len(values))
	for i, v := range values {
		samples[i] = v.Value
	}
	return samples, nil
}
