package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTimeframe is the sampling granularity used when the caller does not
// specify one.
const DefaultTimeframe = 30 * time.Minute

// TimeRange describes the lookback window of a history query: how far back to
// look (Period) and at what granularity (Timeframe).
type TimeRange struct {
	Period    time.Duration
	Timeframe time.Duration
}

// NewTimeRange builds a TimeRange, substituting the default timeframe when
// none is given.
func NewTimeRange(period, timeframe time.Duration) TimeRange {
	if timeframe <= 0 {
		timeframe = DefaultTimeframe
	}
	return TimeRange{Period: period, Timeframe: timeframe}
}

// Step renders the query step as a Prometheus duration string in whole
// minutes. A timeframe under one minute truncates to "0m"; config validation
// rejects sub-minute timeframes before they reach a query.
func (t TimeRange) Step() string {
	return fmt.Sprintf("%dm", int(t.Timeframe.Seconds())/60)
}

// History is an ordered pod → sample-sequence mapping produced by a gather
// call. Its key set always equals the source workload's pod set, in the same
// order, with empty sequences for pods the backend had no data for.
// Timestamps are dropped; values are exact decimals to keep later statistical
// aggregation drift-free.
type History struct {
	pods    []string
	samples map[string][]decimal.Decimal
}

// NewHistory creates a History covering the given pods, each starting with an
// empty sample sequence.
func NewHistory(pods []string) *History {
	h := &History{
		pods:    append([]string(nil), pods...),
		samples: make(map[string][]decimal.Decimal, len(pods)),
	}
	for _, pod := range pods {
		h.samples[pod] = nil
	}
	return h
}

// Pods returns the pod names in workload order.
func (h *History) Pods() []string {
	return h.pods
}

// Len returns the number of pods covered.
func (h *History) Len() int {
	return len(h.pods)
}

// Samples returns the sample sequence for a pod. The second return reports
// whether the pod is part of this history at all; a covered pod with no data
// returns an empty slice and true.
func (h *History) Samples(pod string) ([]decimal.Decimal, bool) {
	s, ok := h.samples[pod]
	return s, ok
}

// Set replaces the sample sequence for a pod already covered by the history.
// Pods outside the original set are ignored.
func (h *History) Set(pod string, samples []decimal.Decimal) {
	if _, ok := h.samples[pod]; ok {
		h.samples[pod] = samples
	}
}

// Map returns a plain pod → samples copy, for serialization formats that
// carry pod order elsewhere.
func (h *History) Map() map[string][]decimal.Decimal {
	out := make(map[string][]decimal.Decimal, len(h.pods))
	for _, pod := range h.pods {
		out[pod] = h.samples[pod]
	}
	return out
}

// All returns the samples of every pod concatenated in pod order. Handy for
// strategies that treat replicas as one population.
func (h *History) All() []decimal.Decimal {
	var out []decimal.Decimal
	for _, pod := range h.pods {
		out = append(out, h.samples[pod]...)
	}
	return out
}

// MarshalJSON renders the history as an object with keys in pod order.
func (h *History) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, pod := range h.pods {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(pod)
		if err != nil {
			return nil, err
		}
		vals := h.samples[pod]
		if vals == nil {
			vals = []decimal.Decimal{}
		}
		val, err := json.Marshal(vals)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON accepts a pod → samples object. Key order is not recoverable
// from encoding/json, so pods are stored name-sorted; loaders that care about
// workload order rebuild the history against an explicit pod list.
func (h *History) UnmarshalJSON(data []byte) error {
	var raw map[string][]decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.pods = h.pods[:0]
	h.samples = make(map[string][]decimal.Decimal, len(raw))
	for pod, vals := range raw {
		h.pods = append(h.pods, pod)
		h.samples[pod] = vals
	}
	sort.Strings(h.pods)
	return nil
}
