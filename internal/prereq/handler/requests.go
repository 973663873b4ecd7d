package handler

import (
	"strings"
	"time"

	dErrors "laurel/pkg/domain-errors"
)

// RegisterPrerequisiteRequest adds one dependency edge to the course named
// in the URL.
type RegisterPrerequisiteRequest struct {
	RequiredCourseID string `json:"required_course_id"`
	Mandatory        bool   `json:"mandatory"`
}

func (r *RegisterPrerequisiteRequest) Normalize() {
	r.RequiredCourseID = strings.TrimSpace(r.RequiredCourseID)
}

func (r *RegisterPrerequisiteRequest) Validate() error {
	if r.RequiredCourseID == "" {
		return dErrors.New(dErrors.CodeValidation, "required_course_id is required")
	}
	return nil
}

// GrantOverrideRequest exempts the student named in the URL from one
// required course.
type GrantOverrideRequest struct {
	CourseID  string     `json:"course_id"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (r *GrantOverrideRequest) Normalize() {
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *GrantOverrideRequest) Validate() error {
	if r.CourseID == "" {
		return dErrors.New(dErrors.CodeValidation, "course_id is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}
