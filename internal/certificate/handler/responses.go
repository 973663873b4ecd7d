package handler

import (
	"time"

	"laurel/internal/certificate/models"
)

// CertificateResponse is the wire shape for a certificate record.
type CertificateResponse struct {
	CertificateID     string     `json:"certificate_id"`
	CourseID          string     `json:"course_id"`
	StudentID         string     `json:"student_id"`
	InstructorID      string     `json:"instructor_id"`
	IssuedAt          time.Time  `json:"issued_at"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	MetadataURI       string     `json:"metadata_uri,omitempty"`
	Status            string     `json:"status"`
	ExpiresAt         time.Time  `json:"expires_at"`
	OriginalExpiresAt time.Time  `json:"original_expires_at"`
	RenewalCount      int        `json:"renewal_count"`
	LastRenewedAt     *time.Time `json:"last_renewed_at,omitempty"`
}

func toCertificateResponse(cert *models.Certificate) *CertificateResponse {
	return &CertificateResponse{
		CertificateID:     cert.ID.String(),
		CourseID:          cert.CourseID.String(),
		StudentID:         cert.StudentID.String(),
		InstructorID:      cert.InstructorID.String(),
		IssuedAt:          cert.IssuedAt,
		Title:             cert.Title,
		Description:       cert.Description,
		MetadataURI:       cert.MetadataURI,
		Status:            string(cert.Status),
		ExpiresAt:         cert.ExpiresAt,
		OriginalExpiresAt: cert.OriginalExpiresAt,
		RenewalCount:      cert.RenewalCount,
		LastRenewedAt:     cert.LastRenewedAt,
	}
}

func toCertificateResponses(certs []*models.Certificate) []*CertificateResponse {
	out := make([]*CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		out = append(out, toCertificateResponse(cert))
	}
	return out
}

// CertificateListResponse wraps a certificate list.
type CertificateListResponse struct {
	Certificates []*CertificateResponse `json:"certificates"`
	Count        int                    `json:"count"`
}

// ValidityResponse answers "does this credential currently attest
// achievement" without requiring the caller to interpret statuses.
type ValidityResponse struct {
	CertificateID string    `json:"certificate_id"`
	Valid         bool      `json:"valid"`
	Expired       bool      `json:"expired"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// MetadataEntryResponse is one entry of the append-only metadata trail.
type MetadataEntryResponse struct {
	UpdatedBy   string    `json:"updated_by"`
	PreviousURI string    `json:"previous_uri,omitempty"`
	NewURI      string    `json:"new_uri,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MetadataHistoryResponse wraps the metadata trail.
type MetadataHistoryResponse struct {
	CertificateID string                  `json:"certificate_id"`
	Entries       []MetadataEntryResponse `json:"entries"`
	Count         int                     `json:"count"`
}

func toMetadataHistoryResponse(certificateID string, entries []models.MetadataUpdateEntry) *MetadataHistoryResponse {
	out := make([]MetadataEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, MetadataEntryResponse{
			UpdatedBy:   entry.UpdatedBy.String(),
			PreviousURI: entry.PreviousURI,
			NewURI:      entry.NewURI,
			Reason:      entry.Reason,
			UpdatedAt:   entry.UpdatedAt,
		})
	}
	return &MetadataHistoryResponse{CertificateID: certificateID, Entries: out, Count: len(out)}
}

// StatusResponse acknowledges a state change without a body to return.
type StatusResponse struct {
	Status string `json:"status"`
}
