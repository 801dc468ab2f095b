// Package metrics exposes the engine's observability surface: queue depth
// and reconciliation outcomes. Connectivity and pending-count must always be
// observable, so these are process-wide gauges.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	pendingMutations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsync_pending_mutations",
		Help: "Mutations queued for upload",
	})

	failedMutations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsync_failed_mutations",
		Help: "Failed-terminal mutations awaiting user action",
	})

	online = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsync_online",
		Help: "1 when the remote sync service is reachable",
	})

	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsync_sync_runs_total",
		Help: "Completed reconciliation runs by result",
	}, []string{"result"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldsync_sync_duration_seconds",
		Help:    "Duration of full reconciliation runs",
		Buckets: prometheus.DefBuckets,
	})
)

// SetQueueDepth publishes the current queue gauges.
func SetQueueDepth(pending, failed int) {
	pendingMutations.Set(float64(pending))
	failedMutations.Set(float64(failed))
}

// SetOnline publishes the connectivity state.
func SetOnline(up bool) {
	if up {
		online.Set(1)
		return
	}
	online.Set(0)
}

// ObserveSync records one finished reconciliation run.
func ObserveSync(result string, elapsed time.Duration) {
	syncRuns.WithLabelValues(result).Inc()
	syncDuration.Observe(elapsed.Seconds())
}
