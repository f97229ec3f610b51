// Package metrics exposes Prometheus collectors for the poller, the command channel
// and the HTTP layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sensor_dashboard/internal/telemetry"
)

const namespace = "sensor_dashboard"

// OutcomeOK labels a successful fetch; failures are labelled with their error kind.
const OutcomeOK = "ok"

type Metrics struct {
	pollFetches     *prometheus.CounterVec
	pollSkipped     *prometheus.CounterVec
	pollFailures    *prometheus.GaugeVec
	commands        *prometheus.CounterVec
	devicePending   prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		pollFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_fetch_total",
			Help:      "Poll fetches by cycle and outcome.",
		}, []string{"cycle", "outcome"}),
		pollSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_skipped_total",
			Help:      "Ticks skipped because the previous fetch of the cycle was still running.",
		}, []string{"cycle"}),
		pollFailures: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poll_consecutive_failures",
			Help:      "Current run of failed fetches per cycle.",
		}, []string{"cycle"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Device commands by outcome.",
		}, []string{"outcome"}),
		devicePending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_pending",
			Help:      "1 while a device command awaits confirmation.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) FetchDone(cycle string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = telemetry.Kind(err)
	}
	m.pollFetches.WithLabelValues(cycle, outcome).Inc()
}

func (m *Metrics) TickSkipped(cycle string) {
	m.pollSkipped.WithLabelValues(cycle).Inc()
}

func (m *Metrics) ConsecutiveFailures(cycle string, n int) {
	m.pollFailures.WithLabelValues(cycle).Set(float64(n))
}

func (m *Metrics) CommandOutcome(outcome string) {
	m.commands.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PendingChanged(pending bool) {
	if pending {
		m.devicePending.Set(1)
		return
	}
	m.devicePending.Set(0)
}

// ObserveHTTP records one served request. path should be the route template.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
