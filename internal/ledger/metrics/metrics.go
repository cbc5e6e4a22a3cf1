package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EventsAppended  *prometheus.CounterVec
	FanoutFailures  prometheus.Counter
	FetchedBatches  prometheus.Counter
	LedgerHead      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		EventsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medichain_ledger_events_appended_total",
			Help: "Total number of events accepted into the ledger, by kind",
		}, []string{"kind"}),
		FanoutFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_ledger_fanout_failures_total",
			Help: "Total number of failed Kafka fan-out publishes",
		}),
		FetchedBatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_ledger_fetch_batches_total",
			Help: "Total number of ledger fetch calls served",
		}),
		LedgerHead: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "medichain_ledger_head_position",
			Help: "Position of the most recently appended ledger event",
		}),
	}
}

func (m *Metrics) ObserveAppend(kind string, position uint64) {
	m.EventsAppended.WithLabelValues(kind).Inc()
	m.LedgerHead.Set(float64(position))
}

func (m *Metrics) IncrementFanoutFailures() {
	m.FanoutFailures.Inc()
}

func (m *Metrics) IncrementFetches() {
	m.FetchedBatches.Inc()
}
