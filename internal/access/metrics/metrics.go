package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RoleGrants        prometheus.Counter
	RoleRevocations   prometheus.Counter
	PermissionDenials *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RoleGrants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_role_grants_total",
			Help: "Total number of role assignments granted",
		}),
		RoleRevocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_role_revocations_total",
			Help: "Total number of role assignments revoked",
		}),
		PermissionDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_permission_denials_total",
			Help: "Total number of permission checks denied, by permission",
		}, []string{"permission"}),
	}
}

func (m *Metrics) IncrementRoleGrants() {
	m.RoleGrants.Inc()
}

func (m *Metrics) IncrementRoleRevocations() {
	m.RoleRevocations.Inc()
}

func (m *Metrics) IncrementPermissionDenials(permission string) {
	m.PermissionDenials.WithLabelValues(permission).Inc()
}
