package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EdgesRegistered   prometheus.Counter
	EdgesRemoved      prometheus.Counter
	OverridesGranted  prometheus.Counter
	OverridesRevoked  prometheus.Counter
	EligibilityChecks *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		EdgesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_prerequisites_registered_total",
			Help: "Total number of prerequisite edges registered",
		}),
		EdgesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_prerequisites_removed_total",
			Help: "Total number of prerequisite edges removed",
		}),
		OverridesGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_prerequisite_overrides_granted_total",
			Help: "Total number of prerequisite overrides granted",
		}),
		OverridesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_prerequisite_overrides_revoked_total",
			Help: "Total number of prerequisite overrides revoked",
		}),
		EligibilityChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_eligibility_checks_total",
			Help: "Total number of eligibility checks, by verdict",
		}, []string{"verdict"}),
	}
}

func (m *Metrics) IncrementEdgesRegistered() {
	m.EdgesRegistered.Inc()
}

func (m *Metrics) IncrementEdgesRemoved() {
	m.EdgesRemoved.Inc()
}

func (m *Metrics) IncrementOverridesGranted() {
	m.OverridesGranted.Inc()
}

func (m *Metrics) IncrementOverridesRevoked() {
	m.OverridesRevoked.Inc()
}

func (m *Metrics) ObserveEligibilityCheck(satisfied bool) {
	verdict := "eligible"
	if !satisfied {
		verdict = "ineligible"
	}
	m.EligibilityChecks.WithLabelValues(verdict).Inc()
}
