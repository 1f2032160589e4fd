package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks guard outcomes so operators can spot auth failures
// without grepping logs.
type Metrics struct {
	decisions     *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewMetrics registers the guard collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Guard pipeline outcomes by terminal result.",
		}, []string{"outcome"}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workdeck",
			Subsystem: "guard",
			Name:      "verifications_total",
			Help:      "Successful credential verifications by provider.",
		}, []string{"provider"}),
	}
}

func (m *Metrics) observeDecision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeVerification(provider string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(provider).Inc()
}
