package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Minted          prometheus.Counter
	Revoked         prometheus.Counter
	Transferred     prometheus.Counter
	MetadataUpdates prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Minted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_certificates_minted_total",
			Help: "Total number of certificates minted",
		}),
		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		Transferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_certificates_transferred_total",
			Help: "Total number of certificates transferred",
		}),
		MetadataUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "laurel_certificate_metadata_updates_total",
			Help: "Total number of certificate metadata updates",
		}),
	}
}

func (m *Metrics) AddMinted(count int) {
	m.Minted.Add(float64(count))
}

func (m *Metrics) IncrementRevocations() {
	m.Revoked.Inc()
}

func (m *Metrics) IncrementTransfers() {
	m.Transferred.Inc()
}

func (m *Metrics) IncrementMetadataUpdates() {
	m.MetadataUpdates.Inc()
}
