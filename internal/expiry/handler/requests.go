package handler

import (
	"time"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	strutil "laurel/pkg/platform/strings"
)

// RenewRequest asks for an extension of the certificate's expiry.
type RenewRequest struct {
	NewExpiresAt time.Time `json:"new_expires_at"`
}

func (r *RenewRequest) Validate() error {
	if r.NewExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "new_expires_at is required")
	}
	return nil
}

// SweepRequest optionally targets an explicit batch of certificates. With
// no batch, the sweep walks one page of whatever is due.
type SweepRequest struct {
	CertificateIDs []string `json:"certificate_ids,omitempty"`
}

func (r *SweepRequest) Normalize() {
	r.CertificateIDs = strutil.DedupeAndTrimLower(r.CertificateIDs)
}

func (r *SweepRequest) toBatch() ([]id.CertificateID, error) {
	batch := make([]id.CertificateID, 0, len(r.CertificateIDs))
	for _, raw := range r.CertificateIDs {
		certificateID, err := id.ParseCertificateID(raw)
		if err != nil {
			return nil, err
		}
		batch = append(batch, certificateID)
	}
	return batch, nil
}
