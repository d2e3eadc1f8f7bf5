package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Update metrics
	SymbolUpdatesTotal *prometheus.CounterVec
	FallbacksTotal     *prometheus.CounterVec
	IndexFetchesTotal  *prometheus.CounterVec
	OutputWritesTotal  *prometheus.CounterVec

	// Run metrics
	RunDuration          prometheus.Gauge
	RunLastCompletion    prometheus.Gauge
	RunTotalHoldings     prometheus.Gauge
	RunSuccessfulUpdates prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		// External API metrics
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "portfolio_updater",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		// Update metrics
		SymbolUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "update",
				Name:      "symbols_total",
				Help:      "Total number of holdings processed by outcome",
			},
			[]string{"status"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "update",
				Name:      "fallbacks_total",
				Help:      "Total number of secondary provider fallbacks by outcome",
			},
			[]string{"outcome"},
		),
		IndexFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "update",
				Name:      "index_fetches_total",
				Help:      "Total number of market index fetches by outcome",
			},
			[]string{"index", "status"},
		),
		OutputWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "output",
				Name:      "writes_total",
				Help:      "Total number of output file writes",
			},
			[]string{"file", "status"},
		),

		// Run metrics
		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portfolio_updater",
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Duration of the last update run in seconds",
			},
		),
		RunLastCompletion: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portfolio_updater",
				Subsystem: "run",
				Name:      "last_completion_timestamp_seconds",
				Help:      "Unix time of the last completed update run",
			},
		),
		RunTotalHoldings: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portfolio_updater",
				Subsystem: "run",
				Name:      "total_holdings",
				Help:      "Number of holdings attempted by the last run",
			},
		),
		RunSuccessfulUpdates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "portfolio_updater",
				Subsystem: "run",
				Name:      "successful_updates",
				Help:      "Number of holdings written by the last run",
			},
		),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "portfolio_updater",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio_updater",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// SetMetrics installs m as the global metrics instance
func SetMetrics(m *Metrics) {
	globalMetrics = m
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordSymbolUpdate records the outcome of one holding ("success" or "failed")
func (m *Metrics) RecordSymbolUpdate(status string) {
	m.SymbolUpdatesTotal.WithLabelValues(status).Inc()
}

// RecordFallback records a secondary provider fallback ("applied" or "unavailable")
func (m *Metrics) RecordFallback(outcome string) {
	m.FallbacksTotal.WithLabelValues(outcome).Inc()
}

// RecordIndexFetch records a market index fetch
func (m *Metrics) RecordIndexFetch(index, status string) {
	m.IndexFetchesTotal.WithLabelValues(index, status).Inc()
}

// RecordOutputWrite records an output file write
func (m *Metrics) RecordOutputWrite(file, status string) {
	m.OutputWritesTotal.WithLabelValues(file, status).Inc()
}

// RecordRun records the totals of a finished run
func (m *Metrics) RecordRun(totalHoldings, successfulUpdates int, duration time.Duration) {
	m.RunDuration.Set(duration.Seconds())
	m.RunTotalHoldings.Set(float64(totalHoldings))
	m.RunSuccessfulUpdates.Set(float64(successfulUpdates))
	m.RunLastCompletion.SetToCurrentTime()
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
