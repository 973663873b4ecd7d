package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Proposed       *prometheus.CounterVec
	Signatures     prometheus.Counter
	QuorumsReached prometheus.Counter
	Executed       *prometheus.CounterVec
	ExecuteFailed  *prometheus.CounterVec
	Rejected       prometheus.Counter
	Expired        prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Proposed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_multisig_requests_proposed_total",
			Help: "Total number of approval requests proposed, by operation kind",
		}, []string{"kind"}),
		Signatures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_multisig_signatures_total",
			Help: "Total number of signatures recorded on approval requests",
		}),
		QuorumsReached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_multisig_quorums_reached_total",
			Help: "Total number of approval requests that reached their signature threshold",
		}),
		Executed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_multisig_requests_executed_total",
			Help: "Total number of approved operations executed, by operation kind",
		}, []string{"kind"}),
		ExecuteFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_multisig_execution_failures_total",
			Help: "Total number of bound operations that failed during execution, by operation kind",
		}, []string{"kind"}),
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_multisig_requests_rejected_total",
			Help: "Total number of approval requests rejected before execution",
		}),
		Expired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_multisig_requests_expired_total",
			Help: "Total number of approval requests that lapsed past their deadline",
		}),
	}
}

func (m *Metrics) IncrementProposed(kind string) {
	m.Proposed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementSignatures() {
	m.Signatures.Inc()
}

func (m *Metrics) IncrementQuorumsReached() {
	m.QuorumsReached.Inc()
}

func (m *Metrics) IncrementExecuted(kind string) {
	m.Executed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementExecuteFailed(kind string) {
	m.ExecuteFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRejected() {
	m.Rejected.Inc()
}

func (m *Metrics) IncrementExpired() {
	m.Expired.Inc()
}
