package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the schedule sync service

var (
	// Feed metrics
	FetchCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasched_fetch_calls_total",
			Help: "Total number of upstream feed calls",
		},
		[]string{"endpoint", "status"},
	)

	FetchCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nbasched_fetch_call_duration_seconds",
			Help:    "Duration of upstream feed calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbasched_cache_hits_total",
			Help: "Total number of schedule cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbasched_cache_misses_total",
			Help: "Total number of schedule cache misses",
		},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasched_sync_operations_total",
			Help: "Total number of sync operations",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nbasched_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"type"},
	)

	ReconcileRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nbasched_reconcile_rows_total",
			Help: "Total number of schedule rows changed by reconciliation",
		},
		[]string{"action"},
	)

	// Database metrics
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasched_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasched_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasched_system_uptime_seconds",
			Help: "Worker uptime in seconds",
		},
	)

	LastReconcileTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nbasched_last_reconcile_timestamp_seconds",
			Help: "Unix timestamp of the last successful reconciliation",
		},
	)
)
