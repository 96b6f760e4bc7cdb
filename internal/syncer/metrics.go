package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the sync controller. A nil
// *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	// Optimistic updates rolled back after a failed persist, by operation
	Rollbacks *prometheus.CounterVec

	// Remote gateway failures by backend
	RemoteErrors *prometheus.CounterVec

	// Records pushed to a remote backend by entity kind
	PushedRecords *prometheus.CounterVec

	// Working-set refresh latency
	RefreshLatency prometheus.Histogram
}

// NewMetrics registers the sync metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Rollbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "donorhub_sync_rollbacks_total",
			Help: "Optimistic updates rolled back after a failed persist",
		}, []string{"op"}),

		RemoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "donorhub_sync_remote_errors_total",
			Help: "Remote gateway failures by backend",
		}, []string{"backend"}),

		PushedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "donorhub_sync_pushed_records_total",
			Help: "Records pushed to a remote backend during bulk sync",
		}, []string{"kind"}),

		RefreshLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "donorhub_sync_refresh_duration_seconds",
			Help:    "Duration of working-set refreshes from the gateway",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
	}
}

// RecordRollback counts a rolled-back optimistic update.
func (m *Metrics) RecordRollback(op string) {
	if m != nil {
		m.Rollbacks.WithLabelValues(op).Inc()
	}
}

// RecordRemoteError counts a gateway failure.
func (m *Metrics) RecordRemoteError(backend string) {
	if m != nil {
		m.RemoteErrors.WithLabelValues(backend).Inc()
	}
}

// RecordPush counts records pushed during bulk sync.
func (m *Metrics) RecordPush(kind string, n int) {
	if m != nil && n > 0 {
		m.PushedRecords.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveRefresh records how long a refresh took.
func (m *Metrics) ObserveRefresh(d time.Duration) {
	if m != nil {
		m.RefreshLatency.Observe(d.Seconds())
	}
}
