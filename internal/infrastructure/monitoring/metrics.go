package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Lifecycle metrics, labelled by application kind and operation
	LifecycleOps      *prometheus.CounterVec
	LifecycleDuration *prometheus.HistogramVec

	// Reconciliation metrics
	ReconcileRuns   prometheus.Counter
	ReconcileErrors prometheus.Counter
	RecordsPruned   prometheus.Counter
	RecordsLoaded   prometheus.Counter

	// Registry state
	AppsCached  prometheus.Gauge
	AppsRunning prometheus.Gauge

	// WebSocket log stream
	WSConnections prometheus.Gauge

	Uptime    prometheus.Gauge
	startTime time.Time
}

// New creates a metrics collector registered on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a metrics collector on the given registerer. Tests pass a
// fresh registry so collectors never collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jss_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jss_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		LifecycleOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jss_lifecycle_operations_total",
				Help: "Total lifecycle operations by kind, operation and outcome",
			},
			[]string{"kind", "operation", "status"},
		),
		LifecycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jss_lifecycle_duration_seconds",
				Help:    "Lifecycle operation duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"kind", "operation"},
		),

		ReconcileRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jss_reconcile_runs_total",
				Help: "Total reconciliation runs",
			},
		),
		ReconcileErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jss_reconcile_errors_total",
				Help: "Total reconciliation runs that surfaced record errors",
			},
		),
		RecordsPruned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jss_records_pruned_total",
				Help: "Total invalid persisted records pruned",
			},
		),
		RecordsLoaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jss_records_loaded_total",
				Help: "Total records constructed and initialized from the store",
			},
		),

		AppsCached: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jss_apps_cached",
				Help: "Number of application handles in the registry cache",
			},
		),
		AppsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jss_apps_running",
				Help: "Number of cached applications in running status",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jss_ws_connections",
				Help: "Number of active log stream connections",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jss_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLifecycleOp records one lifecycle operation outcome.
func (m *Metrics) RecordLifecycleOp(kind, operation, status string, duration time.Duration) {
	m.LifecycleOps.WithLabelValues(kind, operation, status).Inc()
	m.LifecycleDuration.WithLabelValues(kind, operation).Observe(duration.Seconds())
}

// RecordReconcile records the outcome of one reconciliation run.
func (m *Metrics) RecordReconcile(pruned, loaded int, failed bool) {
	m.ReconcileRuns.Inc()
	if failed {
		m.ReconcileErrors.Inc()
	}
	m.RecordsPruned.Add(float64(pruned))
	m.RecordsLoaded.Add(float64(loaded))
}

// SetAppsCached sets the cache size gauges.
func (m *Metrics) SetAppsCached(total, running int) {
	m.AppsCached.Set(float64(total))
	m.AppsRunning.Set(float64(running))
}

// IncWSConnections increments the log stream connection gauge.
func (m *Metrics) IncWSConnections() { m.WSConnections.Inc() }

// DecWSConnections decrements the log stream connection gauge.
func (m *Metrics) DecWSConnections() { m.WSConnections.Dec() }
