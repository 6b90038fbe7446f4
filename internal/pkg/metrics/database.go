// Package metrics provides Prometheus metrics recording for internal packages.
// This package exists to avoid import cycles between the core packages and middleware.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// storeOpDuration tracks storage call duration in seconds
	storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relaygate_store_op_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"driver", "operation"},
	)

	// storeOpTotal tracks total storage calls
	storeOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_store_ops_total",
			Help: "Total number of storage operations",
		},
		[]string{"driver", "operation"},
	)

	// storeOpErrors tracks failed storage calls
	storeOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_store_op_errors_total",
			Help: "Total number of storage operation errors",
		},
		[]string{"driver", "operation"},
	)

	// storeSlowOps tracks slow storage calls
	storeSlowOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_store_slow_ops_total",
			Help: "Total number of slow storage operations (>100ms)",
		},
		[]string{"driver", "operation"},
	)
)

// RecordStoreOp records storage operation metrics
func RecordStoreOp(driver, operation string, duration time.Duration) {
	storeOpTotal.WithLabelValues(driver, operation).Inc()
	storeOpDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())

	if duration > 100*time.Millisecond {
		storeSlowOps.WithLabelValues(driver, operation).Inc()
	}
}

// RecordStoreError records a storage operation error
func RecordStoreError(driver, operation string) {
	storeOpErrors.WithLabelValues(driver, operation).Inc()
}

var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relaygate_db_query_duration_seconds",
			Help:    "PostgreSQL statement duration by leading verb",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
		},
		[]string{"verb"},
	)

	queryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_db_query_errors_total",
			Help: "PostgreSQL statements that returned an error",
		},
		[]string{"verb"},
	)
)

// RecordQuery records one traced PostgreSQL statement
func RecordQuery(verb string, duration time.Duration, failed bool) {
	queryDuration.WithLabelValues(verb).Observe(duration.Seconds())
	if failed {
		queryErrors.WithLabelValues(verb).Inc()
	}
}
