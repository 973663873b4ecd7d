// Package models defines the lifecycle-manager records: sweep summaries,
// expiry notifications, and renewal requests. A notification is scheduled at
// most once per certificate; a renewal either applies immediately or parks
// as pending until the approval workflow executes it.
package models

import (
	"time"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// SweepResult summarizes one expiry sweep batch. Every certificate in the
// batch lands in exactly one counter.
type SweepResult struct {
	BatchSize int `json:"batch_size"`
	// Expired counts certificates transitioned Active -> Expired this sweep.
	Expired int `json:"expired"`
	// Skipped counts certificates already terminal, or busy under a
	// concurrent operation.
	Skipped int `json:"skipped"`
	// NotDue counts Active certificates whose expiry instant has not passed.
	NotDue int `json:"not_due"`
	// Missing counts identifiers with no stored certificate.
	Missing int `json:"missing"`
}

// Merge folds another result into this one. Used when a sweep pages.
func (r *SweepResult) Merge(other *SweepResult) {
	r.BatchSize += other.BatchSize
	r.Expired += other.Expired
	r.Skipped += other.Skipped
	r.NotDue += other.NotDue
	r.Missing += other.Missing
}

// ExpiryNotification records that the holder of a certificate is owed (or
// has received) an expiry notice. At most one exists per certificate: both
// the advance notice and the post-expiry notice collapse onto the same
// record, so a holder is never notified twice.
type ExpiryNotification struct {
	ID            id.NotificationID `json:"id"`
	CertificateID id.CertificateID  `json:"certificate_id"`
	StudentID     id.UserID         `json:"student_id"`
	// NoticeAt is when the notice becomes due for delivery: the advance
	// instant for upcoming expiries, or the sweep instant once expired.
	NoticeAt    time.Time  `json:"notice_at"`
	Delivered   bool       `json:"delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewExpiryNotification schedules a notice for the certificate holder.
func NewExpiryNotification(certificateID id.CertificateID, studentID id.UserID, noticeAt, now time.Time) (*ExpiryNotification, error) {
	if certificateID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate ID is required")
	}
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student ID is required")
	}
	return &ExpiryNotification{
		ID:            id.NewNotificationID(),
		CertificateID: certificateID,
		StudentID:     studentID,
		NoticeAt:      noticeAt,
		CreatedAt:     now,
	}, nil
}

// IsDue reports whether the notice should be delivered now.
func (n *ExpiryNotification) IsDue(now time.Time) bool {
	return !n.Delivered && !n.NoticeAt.After(now)
}

// MarkDelivered flips the notice to delivered. Returns false when the
// notice was already delivered, so delivery stays idempotent.
func (n *ExpiryNotification) MarkDelivered(now time.Time) bool {
	if n.Delivered {
		return false
	}
	n.Delivered = true
	delivered := now
	n.DeliveredAt = &delivered
	return true
}

// Clone returns a copy so stores can hand out records without sharing the
// delivered-at pointer.
func (n *ExpiryNotification) Clone() *ExpiryNotification {
	cp := *n
	if n.DeliveredAt != nil {
		t := *n.DeliveredAt
		cp.DeliveredAt = &t
	}
	return &cp
}

// RenewalStatus tracks how far a renewal request has progressed.
type RenewalStatus string

const (
	// RenewalApplied means the extension is already on the certificate.
	RenewalApplied RenewalStatus = "applied"
	// RenewalPendingApproval means the extension exceeded the large-renewal
	// threshold and awaits quorum in the approval workflow.
	RenewalPendingApproval RenewalStatus = "pending_approval"
)

// IsValid checks if the status is one of the supported enum values.
func (s RenewalStatus) IsValid() bool {
	return s == RenewalApplied || s == RenewalPendingApproval
}

// RenewalRequest records one holder- or instructor-initiated extension of a
// certificate's expiry. Small extensions apply in the same call and are
// stored as Applied; large ones route through the approval workflow and
// carry the approval request that will execute them.
type RenewalRequest struct {
	ID                id.RenewalID     `json:"id"`
	CertificateID     id.CertificateID `json:"certificate_id"`
	RequesterID       id.UserID        `json:"requester_id"`
	PreviousExpiresAt time.Time        `json:"previous_expires_at"`
	NewExpiresAt      time.Time        `json:"new_expires_at"`
	Status            RenewalStatus    `json:"status"`
	ApprovalRequestID *id.RequestID    `json:"approval_request_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	AppliedAt         *time.Time       `json:"applied_at,omitempty"`
}

func newRenewalRequest(certificateID id.CertificateID, requester id.UserID, previousExpiry, newExpiry, now time.Time) (*RenewalRequest, error) {
	if certificateID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate ID is required")
	}
	if requester.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "requester ID is required")
	}
	if !newExpiry.After(previousExpiry) {
		return nil, dErrors.New(dErrors.CodeInvalidRenewal, "new expiry must extend the current expiry")
	}
	return &RenewalRequest{
		ID:                id.NewRenewalID(),
		CertificateID:     certificateID,
		RequesterID:       requester,
		PreviousExpiresAt: previousExpiry,
		NewExpiresAt:      newExpiry,
		CreatedAt:         now,
	}, nil
}

// NewAppliedRenewal records a small extension that applied in the same call.
func NewAppliedRenewal(certificateID id.CertificateID, requester id.UserID, previousExpiry, newExpiry, now time.Time) (*RenewalRequest, error) {
	renewal, err := newRenewalRequest(certificateID, requester, previousExpiry, newExpiry, now)
	if err != nil {
		return nil, err
	}
	renewal.Status = RenewalApplied
	applied := now
	renewal.AppliedAt = &applied
	return renewal, nil
}

// NewPendingRenewal records a large extension parked behind the approval
// workflow. The approval request ID links the two records.
func NewPendingRenewal(certificateID id.CertificateID, requester id.UserID, previousExpiry, newExpiry time.Time, approvalID id.RequestID, now time.Time) (*RenewalRequest, error) {
	renewal, err := newRenewalRequest(certificateID, requester, previousExpiry, newExpiry, now)
	if err != nil {
		return nil, err
	}
	if approvalID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "approval request ID is required")
	}
	renewal.Status = RenewalPendingApproval
	renewal.ApprovalRequestID = &approvalID
	return renewal, nil
}

// IsPending reports whether the renewal still awaits approval.
func (r *RenewalRequest) IsPending() bool {
	return r.Status == RenewalPendingApproval
}

// MarkApplied closes a pending renewal once the approval workflow has put
// the extension on the certificate.
func (r *RenewalRequest) MarkApplied(now time.Time) error {
	if r.Status != RenewalPendingApproval {
		return dErrors.New(dErrors.CodeInvariantViolation, "renewal is already "+string(r.Status))
	}
	r.Status = RenewalApplied
	applied := now
	r.AppliedAt = &applied
	return nil
}

// Matches reports whether the renewal proposed exactly this expiry instant.
// The approval executor uses it to close the right pending record.
func (r *RenewalRequest) Matches(newExpiry time.Time) bool {
	return r.NewExpiresAt.Equal(newExpiry)
}

// Clone returns a copy so stores can hand out records without sharing
// pointers.
func (r *RenewalRequest) Clone() *RenewalRequest {
	cp := *r
	if r.ApprovalRequestID != nil {
		a := *r.ApprovalRequestID
		cp.ApprovalRequestID = &a
	}
	if r.AppliedAt != nil {
		t := *r.AppliedAt
		cp.AppliedAt = &t
	}
	return &cp
}

// RenewalRule carries the policy knobs governing extensions. The zero value
// disables both bounds.
type RenewalRule struct {
	// LargeExtensionThreshold is the extension length above which a renewal
	// must collect approval signatures instead of applying directly.
	LargeExtensionThreshold time.Duration `json:"large_extension_threshold"`
	// MaxExtension caps a single extension outright. Zero means uncapped.
	MaxExtension time.Duration `json:"max_extension"`
}

// Validate rejects rules that could never admit a renewal.
func (r RenewalRule) Validate() error {
	if r.LargeExtensionThreshold < 0 {
		return dErrors.New(dErrors.CodeValidation, "large extension threshold must not be negative")
	}
	if r.MaxExtension < 0 {
		return dErrors.New(dErrors.CodeValidation, "max extension must not be negative")
	}
	if r.MaxExtension > 0 && r.LargeExtensionThreshold > r.MaxExtension {
		return dErrors.New(dErrors.CodeValidation, "large extension threshold must not exceed the max extension")
	}
	return nil
}
