// Package models defines the certificate record and its lifecycle. The
// record is the single source of truth shared by the prerequisite graph,
// the approval coordinator, and the expiry manager: all three read and
// mutate certificates exclusively through the certificate store.
package models

import (
	"strings"
	"time"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// Status is the lifecycle state of a certificate.
type Status string

const (
	StatusActive      Status = "active"
	StatusRevoked     Status = "revoked"
	StatusExpired     Status = "expired"
	StatusTransferred Status = "transferred"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusRevoked, StatusExpired, StatusTransferred:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further mutation.
// Revoked and Expired certificates are read-only forever. Transferred is
// deliberately not terminal: a transferred certificate can still be revoked.
func (s Status) IsTerminal() bool {
	return s == StatusRevoked || s == StatusExpired
}

// Metadata limits. Mint parameters outside these bounds are rejected before
// any state is written.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxMetadataURILength = 512
)

// allowedURISchemes are the schemes a metadata URI may use.
var allowedURISchemes = []string{"https://", "http://", "ipfs://", "ar://"}

// MetadataUpdateEntry records one change to a certificate's metadata URI.
// History is append-only: entries are never mutated or removed.
type MetadataUpdateEntry struct {
	UpdatedBy   id.UserID `json:"updated_by"`
	PreviousURI string    `json:"previous_uri"`
	NewURI      string    `json:"new_uri"`
	Reason      string    `json:"reason"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Certificate is the durable record of a completed course credential.
//
// # Invariants
//
//   - ExpiresAt >= IssuedAt at creation.
//   - OriginalExpiresAt never changes after issuance.
//   - RenewalCount only increases.
//   - Revoked and Expired are terminal: no mutation beyond reads.
type Certificate struct {
	ID                id.CertificateID
	CourseID          id.CourseID
	StudentID         id.UserID
	InstructorID      id.UserID
	IssuedAt          time.Time
	Title             string
	Description       string
	MetadataURI       string
	Status            Status
	ExpiresAt         time.Time
	OriginalExpiresAt time.Time
	RenewalCount      int
	LastRenewedAt     *time.Time
	UpdatedAt         time.Time
	History           []MetadataUpdateEntry
}

// MintParams carries everything needed to issue one certificate. The
// certificate identifier comes from the caller so issuance stays idempotent
// across retries: re-minting the same identifier is a conflict, not a
// duplicate record.
type MintParams struct {
	CertificateID id.CertificateID
	CourseID      id.CourseID
	StudentID     id.UserID
	Title         string
	Description   string
	MetadataURI   string
	ExpiresAt     time.Time
}

// Validate checks mint parameters against metadata limits. It performs no
// reads: existence and eligibility are the service's concern.
func (p *MintParams) Validate(now time.Time) error {
	if p.CertificateID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "certificate ID is required")
	}
	if p.CourseID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "course ID is required")
	}
	if p.StudentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "student ID is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(p.Title) > MaxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title exceeds maximum length")
	}
	if len(p.Description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description exceeds maximum length")
	}
	if err := ValidateMetadataURI(p.MetadataURI); err != nil {
		return err
	}
	if p.ExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "expiry date is required")
	}
	if p.ExpiresAt.Before(now) {
		return dErrors.New(dErrors.CodeValidation, "expiry date must not precede issue date")
	}
	return nil
}

// ValidateMetadataURI checks length and scheme of a metadata URI.
// An empty URI is allowed: not every certificate carries external metadata.
func ValidateMetadataURI(uri string) error {
	if uri == "" {
		return nil
	}
	if len(uri) > MaxMetadataURILength {
		return dErrors.New(dErrors.CodeValidation, "metadata URI exceeds maximum length")
	}
	for _, scheme := range allowedURISchemes {
		if strings.HasPrefix(uri, scheme) {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeValidation, "metadata URI must use https, http, ipfs, or ar scheme")
}

// New creates an Active certificate from validated mint parameters.
// The issue instant is passed in; the original expiry is fixed here and
// never changes afterwards.
func New(params MintParams, instructorID id.UserID, now time.Time) (*Certificate, error) {
	if err := params.Validate(now); err != nil {
		return nil, err
	}
	if instructorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "instructor ID is required")
	}
	return &Certificate{
		ID:                params.CertificateID,
		CourseID:          params.CourseID,
		StudentID:         params.StudentID,
		InstructorID:      instructorID,
		IssuedAt:          now,
		Title:             params.Title,
		Description:       params.Description,
		MetadataURI:       params.MetadataURI,
		Status:            StatusActive,
		ExpiresAt:         params.ExpiresAt,
		OriginalExpiresAt: params.ExpiresAt,
		RenewalCount:      0,
		UpdatedAt:         now,
	}, nil
}

// IsActive reports whether the certificate is in the Active state,
// regardless of wall-clock expiry.
func (c *Certificate) IsActive() bool {
	return c.Status == StatusActive
}

// IsValid reports whether the certificate currently attests achievement:
// Active and not past its expiry instant.
func (c *Certificate) IsValid(now time.Time) bool {
	return c.Status == StatusActive && !now.After(c.ExpiresAt)
}

// IsPastExpiry reports whether the expiry instant has passed, regardless of
// recorded status.
func (c *Certificate) IsPastExpiry(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Revoke transitions the certificate to Revoked. Revocation reaches Active
// and Transferred certificates; terminal states reject further mutation.
func (c *Certificate) Revoke(now time.Time) error {
	if c.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is already "+string(c.Status))
	}
	c.Status = StatusRevoked
	c.UpdatedAt = now
	return nil
}

// Expire transitions an Active certificate past its expiry to Expired.
func (c *Certificate) Expire(now time.Time) error {
	if c.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active certificates expire")
	}
	if !c.IsPastExpiry(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is not yet due")
	}
	c.Status = StatusExpired
	c.UpdatedAt = now
	return nil
}

// Transfer moves the certificate to a new holder. The record keeps its
// identifier and history; the status becomes Transferred to mark the
// provenance break: a transferred certificate no longer satisfies
// prerequisites and cannot be renewed, but remains readable and revocable.
func (c *Certificate) Transfer(newOwner id.UserID, reason string, now time.Time) error {
	if newOwner.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new owner ID is required")
	}
	if c.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active certificates transfer")
	}
	if newOwner == c.StudentID {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate already belongs to that holder")
	}
	c.History = append(c.History, MetadataUpdateEntry{
		UpdatedBy:   c.StudentID,
		PreviousURI: c.MetadataURI,
		NewURI:      c.MetadataURI,
		Reason:      "transferred: " + reason,
		UpdatedAt:   now,
	})
	c.StudentID = newOwner
	c.Status = StatusTransferred
	c.UpdatedAt = now
	return nil
}

// Renew extends an Active certificate's expiry. The new expiry must be
// strictly later than the current one; the original expiry is untouched and
// the renewal counter increases by exactly one.
func (c *Certificate) Renew(newExpiry, now time.Time) error {
	if c.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvalidRenewal, "certificate is not active")
	}
	if !newExpiry.After(c.ExpiresAt) {
		return dErrors.New(dErrors.CodeInvalidRenewal, "new expiry must extend the current expiry")
	}
	c.ExpiresAt = newExpiry
	c.RenewalCount++
	renewed := now
	c.LastRenewedAt = &renewed
	c.UpdatedAt = now
	return nil
}

// UpdateMetadataURI replaces the metadata URI and appends an audit entry.
// Terminal certificates reject the update.
func (c *Certificate) UpdateMetadataURI(updatedBy id.UserID, newURI, reason string, now time.Time) error {
	if c.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate is "+string(c.Status))
	}
	if err := ValidateMetadataURI(newURI); err != nil {
		return err
	}
	if newURI == "" {
		return dErrors.New(dErrors.CodeValidation, "metadata URI is required")
	}
	c.History = append(c.History, MetadataUpdateEntry{
		UpdatedBy:   updatedBy,
		PreviousURI: c.MetadataURI,
		NewURI:      newURI,
		Reason:      reason,
		UpdatedAt:   now,
	})
	c.MetadataURI = newURI
	c.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so stores can hand out records without sharing
// the history slice.
func (c *Certificate) Clone() *Certificate {
	cp := *c
	if c.History != nil {
		cp.History = make([]MetadataUpdateEntry, len(c.History))
		copy(cp.History, c.History)
	}
	if c.LastRenewedAt != nil {
		t := *c.LastRenewedAt
		cp.LastRenewedAt = &t
	}
	return &cp
}
