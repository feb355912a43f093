// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scheduler metrics
	JobRunsTotal    *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	LastJobSuccess  *prometheus.GaugeVec
	AttributeWrites prometheus.Counter

	// Aggregation metrics
	PagesFetched          *prometheus.CounterVec
	TruncatedAggregations *prometheus.CounterVec
	PriceLookupFailures   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "aptos_project_metrics"
	}

	return &Metrics{
		// Scheduler metrics
		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs by job and status",
		}, []string{"job", "status"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduled job execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		LastJobSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_job_success_timestamp",
			Help:      "Unix timestamp of the last successful run by job",
		}, []string{"job"}),
		AttributeWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "attribute_writes_total",
			Help:      "Total number of project attribute upserts",
		}),

		// Aggregation metrics
		PagesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "pages_fetched_total",
			Help:      "Total number of indexer pages fetched by metric",
		}, []string{"metric"}),
		TruncatedAggregations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "truncated_total",
			Help:      "Total number of aggregations stopped by the record ceiling",
		}, []string{"metric"}),
		PriceLookupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "price_lookup_failures_total",
			Help:      "Total number of token price lookups that found no pool",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordJobRun records one scheduled job run.
func RecordJobRun(job string, err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.JobRunsTotal.WithLabelValues(job, status).Inc()
	DefaultMetrics.JobDuration.WithLabelValues(job).Observe(took.Seconds())
	if err == nil {
		DefaultMetrics.LastJobSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordAttributeWrite increments the attribute upsert counter.
func RecordAttributeWrite() {
	DefaultMetrics.AttributeWrites.Inc()
}

// RecordPageFetched increments the fetched page counter for a metric.
func RecordPageFetched(metric string) {
	DefaultMetrics.PagesFetched.WithLabelValues(metric).Inc()
}

// RecordTruncated marks a windowed aggregation stopped by the record ceiling.
func RecordTruncated(metric string) {
	DefaultMetrics.TruncatedAggregations.WithLabelValues(metric).Inc()
}

// RecordPriceLookupFailure increments the failed price lookup counter.
func RecordPriceLookupFailure() {
	DefaultMetrics.PriceLookupFailures.Inc()
}
