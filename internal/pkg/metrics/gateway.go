package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_dispatch_total",
			Help: "Total number of dispatched requests by status and failure kind",
		},
		[]string{"status", "kind"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relaygate_dispatch_duration_seconds",
			Help:    "Dispatch latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"status"},
	)

	batchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_batch_items_total",
			Help: "Total number of batch items by outcome",
		},
		[]string{"outcome"},
	)

	batchRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relaygate_batch_rejected_total",
			Help: "Total number of batches rejected before any item ran",
		},
	)
)

// RecordDispatch records one dispatcher call. kind is empty on success.
func RecordDispatch(status int, kind string, duration time.Duration) {
	code := strconv.Itoa(status)
	dispatchTotal.WithLabelValues(code, kind).Inc()
	dispatchDuration.WithLabelValues(code).Observe(duration.Seconds())
}

// RecordBatch records the item outcomes of a processed batch
func RecordBatch(success, failed, skipped int) {
	batchItemsTotal.WithLabelValues("success").Add(float64(success))
	batchItemsTotal.WithLabelValues("failed").Add(float64(failed))
	batchItemsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordBatchRejected records a batch that failed its preconditions
func RecordBatchRejected() {
	batchRejectedTotal.Inc()
}
