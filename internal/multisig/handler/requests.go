package handler

import (
	"strings"
	"time"

	"laurel/internal/multisig/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	strutil "laurel/pkg/platform/strings"
)

// ProposeRequest opens an approval request. Kind selects the operation;
// the remaining fields are read per kind and ignored otherwise.
type ProposeRequest struct {
	Kind           string     `json:"kind"`
	CertificateID  string     `json:"certificate_id,omitempty"`
	CertificateIDs []string   `json:"certificate_ids,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	MetadataURI    string     `json:"metadata_uri,omitempty"`
	NewExpiresAt   *time.Time `json:"new_expires_at,omitempty"`
}

func (r *ProposeRequest) Normalize() {
	r.Kind = strings.TrimSpace(r.Kind)
	r.CertificateID = strings.TrimSpace(r.CertificateID)
	r.Reason = strings.TrimSpace(r.Reason)
	r.MetadataURI = strings.TrimSpace(r.MetadataURI)
	r.CertificateIDs = strutil.DedupeAndTrimLower(r.CertificateIDs)
}

func (r *ProposeRequest) Validate() error {
	if r.Kind == "" {
		return dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	return nil
}

// toOperation translates the wire shape into a validated domain operation.
func (r *ProposeRequest) toOperation() (models.Operation, error) {
	kind, err := models.ParseOperationKind(r.Kind)
	if err != nil {
		return models.Operation{}, err
	}

	switch kind {
	case models.KindRevoke:
		certID, err := r.singleCertificateID()
		if err != nil {
			return models.Operation{}, err
		}
		return models.NewRevokeOperation(certID, r.Reason)

	case models.KindBulkExpiry:
		if len(r.CertificateIDs) == 0 {
			return models.Operation{}, dErrors.New(dErrors.CodeValidation, "certificate_ids is required")
		}
		batch := make([]id.CertificateID, 0, len(r.CertificateIDs))
		for _, raw := range r.CertificateIDs {
			certID, err := id.ParseCertificateID(raw)
			if err != nil {
				return models.Operation{}, err
			}
			batch = append(batch, certID)
		}
		return models.NewBulkExpiryOperation(batch)

	case models.KindMetadataOverride:
		certID, err := r.singleCertificateID()
		if err != nil {
			return models.Operation{}, err
		}
		return models.NewMetadataOverrideOperation(certID, r.MetadataURI, r.Reason)

	case models.KindLargeRenewal:
		certID, err := r.singleCertificateID()
		if err != nil {
			return models.Operation{}, err
		}
		if r.NewExpiresAt == nil {
			return models.Operation{}, dErrors.New(dErrors.CodeValidation, "new_expires_at is required")
		}
		return models.NewLargeRenewalOperation(certID, *r.NewExpiresAt)
	}
	return models.Operation{}, dErrors.New(dErrors.CodeValidation, "unknown operation kind")
}

func (r *ProposeRequest) singleCertificateID() (id.CertificateID, error) {
	if r.CertificateID == "" {
		return id.CertificateID{}, dErrors.New(dErrors.CodeValidation, "certificate_id is required")
	}
	return id.ParseCertificateID(r.CertificateID)
}

// RejectRequest closes a pending approval request. The reason is optional
// and recorded in the audit trail.
type RejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r *RejectRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RejectRequest) Validate() error {
	if len(r.Reason) > models.MaxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason exceeds maximum length")
	}
	return nil
}
