package models

import (
	"fmt"
	"strings"
	"time"
)

// Metric is a recognized sensor metric name.
type Metric string

const (
	MetricLDR      Metric = "ldr"
	MetricVR       Metric = "vr"
	MetricTemp     Metric = "temp"
	MetricDistance Metric = "distance"
)

// AllMetrics lists every recognized metric in schema order.
var AllMetrics = []Metric{MetricLDR, MetricVR, MetricTemp, MetricDistance}

var metricLabels = map[Metric]string{
	MetricLDR:      "LDR",
	MetricVR:       "VR",
	MetricTemp:     "Temperature",
	MetricDistance: "Distance",
}

// Label returns the chart label of the metric.
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// Valid reports whether m is one of the recognized metrics.
func (m Metric) Valid() bool {
	_, ok := metricLabels[m]
	return ok
}

// ParseMetric normalizes s and checks it against the recognized metrics.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

// ParseMetricSet parses a comma separated metric list, keeping order and dropping repeats.
// An empty input yields nil.
func ParseMetricSet(s string) ([]Metric, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return ParseMetrics(strings.Split(s, ","))
}

// ParseMetrics parses names into an ordered metric set without duplicates.
func ParseMetrics(names []string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	seen := make(map[Metric]bool, len(names))
	for _, n := range names {
		m, err := ParseMetric(n)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

// Reading is one telemetry sample. Values only holds the metrics present in the payload.
type Reading struct {
	ID        int64              `json:"id"`
	Timestamp time.Time          `json:"date"`
	Values    map[Metric]float64 `json:"values"`
}

// Value returns the metric value and whether it was present.
func (r Reading) Value(m Metric) (float64, bool) {
	v, ok := r.Values[m]
	return v, ok
}

// Clone returns a deep copy of r.
func (r Reading) Clone() Reading {
	out := Reading{ID: r.ID, Timestamp: r.Timestamp}
	if r.Values != nil {
		out.Values = make(map[Metric]float64, len(r.Values))
		for k, v := range r.Values {
			out.Values[k] = v
		}
	}
	return out
}
