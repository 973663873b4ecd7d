package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Changes       *prometheus.CounterVec
	ActiveVersion prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Changes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_policy_changes_total",
			Help: "Total number of policy activations and rollbacks, by action",
		}, []string{"action"}),
		ActiveVersion: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "laurel_policy_active_version",
			Help: "Version number of the currently active governance policy",
		}),
	}
}

func (m *Metrics) IncrementChanges(action string) {
	m.Changes.WithLabelValues(action).Inc()
}

func (m *Metrics) SetActiveVersion(version int) {
	m.ActiveVersion.Set(float64(version))
}
