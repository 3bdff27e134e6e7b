package rbac

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts guard decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the authorization collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classhub_authz_decisions_total",
		Help: "Authorization decisions partitioned by guard variant and terminal state.",
	}, []string{"guard", "state"})
	registerer.MustRegister(decisions)
	return &Metrics{decisions: decisions}
}

// Observe records one decision.
func (m *Metrics) Observe(d Decision) {
	if m == nil {
		return
	}
	guard := "unknown"
	if d.Requirement != nil {
		guard = d.Requirement.Name()
	}
	m.decisions.WithLabelValues(guard, string(d.State)).Inc()
}

// Counter returns the decision counter for one guard and state.
func (m *Metrics) Counter(guard string, state State) prometheus.Counter {
	return m.decisions.WithLabelValues(guard, string(state))
}
