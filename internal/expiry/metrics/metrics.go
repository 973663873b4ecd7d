package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Sweeps                 prometheus.Counter
	CertificatesExpired    prometheus.Counter
	SweepSkipped           prometheus.Counter
	NotificationsScheduled prometheus.Counter
	NotificationsDelivered prometheus.Counter
	RenewalsRequested      *prometheus.CounterVec
	RenewalsApplied        prometheus.Counter
	SweepDuration          prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Sweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_expiry_sweeps_total",
			Help: "Total number of expiry sweep batches processed",
		}),
		CertificatesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_expiry_certificates_expired_total",
			Help: "Total number of certificates transitioned to Expired by sweeps",
		}),
		SweepSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_expiry_sweep_skipped_total",
			Help: "Total number of sweep candidates skipped as terminal or busy",
		}),
		NotificationsScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_expiry_notifications_scheduled_total",
			Help: "Total number of expiry notices scheduled",
		}),
		NotificationsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_expiry_notifications_delivered_total",
			Help: "Total number of expiry notices delivered to holders",
		}),
		RenewalsRequested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "laurel_expiry_renewals_requested_total",
			Help: "Total number of renewal requests accepted, by outcome",
		}, []string{"outcome"}),
		RenewalsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_expiry_renewals_applied_total",
			Help: "Total number of renewals applied to certificates",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "laurel_expiry_sweep_duration_seconds",
			Help:    "Duration of expiry sweep batches",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementSweeps() {
	m.Sweeps.Inc()
}

func (m *Metrics) AddExpired(n int) {
	m.CertificatesExpired.Add(float64(n))
}

func (m *Metrics) AddSkipped(n int) {
	m.SweepSkipped.Add(float64(n))
}

func (m *Metrics) IncrementNotificationsScheduled() {
	m.NotificationsScheduled.Inc()
}

func (m *Metrics) IncrementNotificationsDelivered() {
	m.NotificationsDelivered.Inc()
}

func (m *Metrics) IncrementRenewalsRequested(outcome string) {
	m.RenewalsRequested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRenewalsApplied() {
	m.RenewalsApplied.Inc()
}

func (m *Metrics) ObserveSweepDuration(seconds float64) {
	m.SweepDuration.Observe(seconds)
}
