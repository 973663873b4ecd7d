package handler

import (
	"fmt"
	"strings"
	"time"

	"laurel/internal/certificate/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// MintRequest issues a single certificate. The certificate ID is
// caller-supplied: issuers generate the opaque token and the service rejects
// collisions.
type MintRequest struct {
	CertificateID string    `json:"certificate_id"`
	CourseID      string    `json:"course_id"`
	StudentID     string    `json:"student_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	MetadataURI   string    `json:"metadata_uri,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (r *MintRequest) Normalize() {
	r.CertificateID = strings.TrimSpace(r.CertificateID)
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.MetadataURI = strings.TrimSpace(r.MetadataURI)
}

func (r *MintRequest) Validate() error {
	if r.CertificateID == "" {
		return dErrors.New(dErrors.CodeValidation, "certificate_id is required")
	}
	if r.CourseID == "" {
		return dErrors.New(dErrors.CodeValidation, "course_id is required")
	}
	if r.StudentID == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.ExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expires_at is required")
	}
	return nil
}

// toParams converts the wire request to typed mint parameters.
func (r *MintRequest) toParams() (models.MintParams, error) {
	certificateID, err := id.ParseCertificateID(r.CertificateID)
	if err != nil {
		return models.MintParams{}, err
	}
	courseID, err := id.ParseCourseID(r.CourseID)
	if err != nil {
		return models.MintParams{}, err
	}
	studentID, err := id.ParseUserID(r.StudentID)
	if err != nil {
		return models.MintParams{}, err
	}
	return models.MintParams{
		CertificateID: certificateID,
		CourseID:      courseID,
		StudentID:     studentID,
		Title:         r.Title,
		Description:   r.Description,
		MetadataURI:   r.MetadataURI,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}

// MintBatchRequest issues several certificates atomically.
type MintBatchRequest struct {
	Certificates []MintRequest `json:"certificates"`
}

func (r *MintBatchRequest) Normalize() {
	for i := range r.Certificates {
		r.Certificates[i].Normalize()
	}
}

func (r *MintBatchRequest) Validate() error {
	if len(r.Certificates) == 0 {
		return dErrors.New(dErrors.CodeValidation, "certificates is required")
	}
	for i := range r.Certificates {
		if err := r.Certificates[i].Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("certificates[%d]: %v", i, err))
		}
	}
	return nil
}

func (r *MintBatchRequest) toParams() ([]models.MintParams, error) {
	out := make([]models.MintParams, 0, len(r.Certificates))
	for i := range r.Certificates {
		params, err := r.Certificates[i].toParams()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("certificates[%d]: %v", i, err))
		}
		out = append(out, params)
	}
	return out, nil
}

// TransferRequest moves a certificate to a new holder.
type TransferRequest struct {
	NewOwnerID string `json:"new_owner_id"`
	Reason     string `json:"reason,omitempty"`
}

func (r *TransferRequest) Normalize() {
	r.NewOwnerID = strings.TrimSpace(r.NewOwnerID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *TransferRequest) Validate() error {
	if r.NewOwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "new_owner_id is required")
	}
	return nil
}
