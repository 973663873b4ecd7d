package handler

import (
	"time"

	"laurel/internal/prereq/models"
)

// PrerequisiteResponse is the wire shape of one dependency edge.
type PrerequisiteResponse struct {
	CourseID         string    `json:"course_id"`
	RequiredCourseID string    `json:"required_course_id"`
	Mandatory        bool      `json:"mandatory"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

func toPrerequisiteResponse(edge *models.Prerequisite) *PrerequisiteResponse {
	return &PrerequisiteResponse{
		CourseID:         edge.CourseID.String(),
		RequiredCourseID: edge.RequiredCourseID.String(),
		Mandatory:        edge.Mandatory,
		CreatedBy:        edge.CreatedBy.String(),
		CreatedAt:        edge.CreatedAt,
	}
}

type PrerequisiteListResponse struct {
	CourseID      string                  `json:"course_id"`
	Prerequisites []*PrerequisiteResponse `json:"prerequisites"`
	Count         int                     `json:"count"`
}

func toPrerequisiteListResponse(courseID string, edges []*models.Prerequisite) *PrerequisiteListResponse {
	out := make([]*PrerequisiteResponse, 0, len(edges))
	for _, edge := range edges {
		out = append(out, toPrerequisiteResponse(edge))
	}
	return &PrerequisiteListResponse{CourseID: courseID, Prerequisites: out, Count: len(out)}
}

// ViolationResponse names one unmet requirement.
type ViolationResponse struct {
	RequiredCourseID string `json:"required_course_id"`
	Reason           string `json:"reason"`
}

// EligibilityResponse reports whether a student may be issued a certificate
// for a course, listing every unmet requirement when not.
type EligibilityResponse struct {
	StudentID  string              `json:"student_id"`
	CourseID   string              `json:"course_id"`
	Satisfied  bool                `json:"satisfied"`
	Violations []ViolationResponse `json:"violations,omitempty"`
}

func toEligibilityResponse(result *models.CheckResult) *EligibilityResponse {
	violations := make([]ViolationResponse, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, ViolationResponse{
			RequiredCourseID: v.RequiredCourseID.String(),
			Reason:           v.Reason,
		})
	}
	return &EligibilityResponse{
		StudentID:  result.StudentID.String(),
		CourseID:   result.CourseID.String(),
		Satisfied:  result.Satisfied,
		Violations: violations,
	}
}

// LearningPathResponse orders a course's mandatory closure so each course
// appears after all of its prerequisites.
type LearningPathResponse struct {
	CourseID string   `json:"course_id"`
	Path     []string `json:"path"`
	Count    int      `json:"count"`
}

// OverrideResponse is the wire shape of one prerequisite override.
type OverrideResponse struct {
	StudentID string     `json:"student_id"`
	CourseID  string     `json:"course_id"`
	GrantedBy string     `json:"granted_by"`
	Reason    string     `json:"reason"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func toOverrideResponse(override *models.Override) *OverrideResponse {
	return &OverrideResponse{
		StudentID: override.StudentID.String(),
		CourseID:  override.CourseID.String(),
		GrantedBy: override.GrantedBy.String(),
		Reason:    override.Reason,
		GrantedAt: override.GrantedAt,
		ExpiresAt: override.ExpiresAt,
	}
}

type OverrideListResponse struct {
	StudentID string              `json:"student_id"`
	Overrides []*OverrideResponse `json:"overrides"`
	Count     int                 `json:"count"`
}

func toOverrideListResponse(studentID string, overrides []*models.Override) *OverrideListResponse {
	out := make([]*OverrideResponse, 0, len(overrides))
	for _, override := range overrides {
		out = append(out, toOverrideResponse(override))
	}
	return &OverrideListResponse{StudentID: studentID, Overrides: out, Count: len(out)}
}

// StatusResponse acknowledges a mutation with no richer payload.
type StatusResponse struct {
	Status string `json:"status"`
}
