// Package models defines the prerequisite graph records: directed course
// dependency edges and per-student overrides. The graph itself is never
// materialized as linked nodes; edges live in the store and traversal state
// is rebuilt per call.
package models

import (
	"strings"
	"time"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// MaxReasonLength bounds the free-text reason on an override grant.
const MaxReasonLength = 500

// Prerequisite is a directed edge: CourseID requires RequiredCourseID.
// A mandatory edge gates certificate issuance; a non-mandatory edge is
// advisory and only shapes learning paths.
type Prerequisite struct {
	CourseID         id.CourseID `json:"course_id"`
	RequiredCourseID id.CourseID `json:"required_course_id"`
	Mandatory        bool        `json:"mandatory"`
	CreatedBy        id.UserID   `json:"created_by"`
	CreatedAt        time.Time   `json:"created_at"`
}

// NewPrerequisite validates and builds an edge. Self-loops are rejected
// here; cycle detection over the rest of the graph is the service's job
// because it needs the full edge set.
func NewPrerequisite(courseID, requiredID id.CourseID, mandatory bool, createdBy id.UserID, now time.Time) (*Prerequisite, error) {
	if courseID.IsZero() || requiredID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "course and required course are required")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "created_by is required")
	}
	if courseID == requiredID {
		return nil, dErrors.New(dErrors.CodeInvalidPrerequisite, "a course cannot require itself")
	}
	return &Prerequisite{
		CourseID:         courseID,
		RequiredCourseID: requiredID,
		Mandatory:        mandatory,
		CreatedBy:        createdBy,
		CreatedAt:        now,
	}, nil
}

// Clone returns a copy of the edge.
func (p *Prerequisite) Clone() *Prerequisite {
	clone := *p
	return &clone
}

// Override exempts one student from one required course. An override
// satisfies any mandatory edge pointing at CourseID during eligibility
// checks, until it expires or is revoked.
type Override struct {
	StudentID id.UserID   `json:"student_id"`
	CourseID  id.CourseID `json:"course_id"`
	GrantedBy id.UserID   `json:"granted_by"`
	Reason    string      `json:"reason"`
	GrantedAt time.Time   `json:"granted_at"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// NewOverride validates and builds an override. A nil expiry means the
// override lives until explicitly revoked.
func NewOverride(studentID id.UserID, courseID id.CourseID, grantedBy id.UserID, reason string, expiresAt *time.Time, now time.Time) (*Override, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "student is required")
	}
	if courseID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "course is required")
	}
	if grantedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "granting authority is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(reason) > MaxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, "reason exceeds maximum length")
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "override expiry must be in the future")
	}
	return &Override{
		StudentID: studentID,
		CourseID:  courseID,
		GrantedBy: grantedBy,
		Reason:    reason,
		GrantedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// IsLive reports whether the override still applies. Like certificate
// validity, an override holds through its expiry instant.
func (o *Override) IsLive(now time.Time) bool {
	return o.ExpiresAt == nil || !now.After(*o.ExpiresAt)
}

// Clone returns a deep copy of the override.
func (o *Override) Clone() *Override {
	clone := *o
	if o.ExpiresAt != nil {
		expiry := *o.ExpiresAt
		clone.ExpiresAt = &expiry
	}
	return &clone
}

// Violation reasons reported by eligibility checks.
const (
	ReasonNoCertificate          = "no certificate"
	ReasonCertificateExpired     = "certificate expired"
	ReasonCertificateRevoked     = "certificate revoked"
	ReasonCertificateTransferred = "certificate transferred"
)

// Violation names one unmet mandatory requirement.
type Violation struct {
	RequiredCourseID id.CourseID `json:"required_course_id"`
	Reason           string      `json:"reason"`
}

// CheckResult is the outcome of an eligibility check. Violations list
// every unmet requirement, not just the first, so callers can report them
// all at once. The result is a pure function of current state.
type CheckResult struct {
	StudentID  id.UserID   `json:"student_id"`
	CourseID   id.CourseID `json:"course_id"`
	Satisfied  bool        `json:"satisfied"`
	Violations []Violation `json:"violations,omitempty"`
}
