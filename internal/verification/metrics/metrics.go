package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TransitionsAccepted *prometheus.CounterVec
	TransitionsRejected *prometheus.CounterVec
	IdempotentRepeats   *prometheus.CounterVec
	ReplayDuration      prometheus.Histogram
	SnapshotLag         prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		TransitionsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medichain_verification_transitions_accepted_total",
			Help: "Total number of accepted verification transitions, by kind",
		}, []string{"kind"}),
		TransitionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medichain_verification_transitions_rejected_total",
			Help: "Total number of rejected verification transitions, by kind and reason",
		}, []string{"kind", "reason"}),
		IdempotentRepeats: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medichain_verification_idempotent_repeats_total",
			Help: "Total number of transitions that were already applied, by kind",
		}, []string{"kind"}),
		ReplayDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "medichain_verification_replay_duration_seconds",
			Help:    "Duration of full ledger replays",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotLag: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "medichain_verification_snapshot_lag_events",
			Help: "Ledger head position minus snapshot position",
		}),
	}
}

func (m *Metrics) IncrementAccepted(kind string) {
	m.TransitionsAccepted.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRejected(kind, reason string) {
	m.TransitionsRejected.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) IncrementRepeat(kind string) {
	m.IdempotentRepeats.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveReplay(seconds float64) {
	m.ReplayDuration.Observe(seconds)
}

func (m *Metrics) SetSnapshotLag(lag float64) {
	m.SnapshotLag.Set(lag)
}
