package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsMinted prometheus.Counter
	MintsRejected *prometheus.CounterVec
	IDsBurned     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RecordsMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_records_minted_total",
			Help: "Total number of records minted",
		}),
		MintsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medichain_records_mints_rejected_total",
			Help: "Total number of rejected mint attempts, by reason",
		}, []string{"reason"}),
		IDsBurned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_records_ids_burned_total",
			Help: "Total number of record IDs allocated but never bound to a record",
		}),
	}
}

func (m *Metrics) IncrementMinted() {
	m.RecordsMinted.Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.MintsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementBurned() {
	m.IDsBurned.Inc()
}
