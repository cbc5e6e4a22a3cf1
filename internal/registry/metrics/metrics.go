package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PartiesRegistered    *prometheus.CounterVec
	RegistrationRejected prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		PartiesRegistered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medichain_registry_parties_registered_total",
			Help: "Total number of parties registered, by role",
		}, []string{"role"}),
		RegistrationRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_registry_registrations_rejected_total",
			Help: "Total number of rejected party registrations",
		}),
	}
}

func (m *Metrics) IncrementRegistered(role string) {
	m.PartiesRegistered.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementRejected() {
	m.RegistrationRejected.Inc()
}
