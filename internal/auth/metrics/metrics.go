package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for signup and login.
type Metrics struct {
	UsersRegistered prometheus.Counter
	Logins          prometheus.Counter
	LoginFailures   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_users_registered_total",
			Help: "Total number of users registered.",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_logins_total",
			Help: "Total number of successful logins.",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medichain_login_failures_total",
			Help: "Total number of rejected login attempts.",
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementLogins() {
	m.Logins.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}
