package service

import (
	"context"
	"errors"

	accessmodels "laurel/internal/access/models"
	certmodels "laurel/internal/certificate/models"
	"laurel/internal/prereq/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// GraphStore persists the prerequisite edges and overrides the service
// traverses.
type GraphStore interface {
	InsertEdge(ctx context.Context, edge *models.Prerequisite) error
	DeleteEdge(ctx context.Context, courseID, requiredID id.CourseID) error
	ListEdges(ctx context.Context, courseID id.CourseID) ([]*models.Prerequisite, error)
	ListAllEdges(ctx context.Context) ([]*models.Prerequisite, error)
	InsertOverride(ctx context.Context, override *models.Override) error
	DeleteOverride(ctx context.Context, studentID id.UserID, courseID id.CourseID) error
	FindOverride(ctx context.Context, studentID id.UserID, courseID id.CourseID) (*models.Override, error)
	ListOverrides(ctx context.Context, studentID id.UserID) ([]*models.Override, error)
}

// CertificateReader is the slice of the shared certificate store eligibility
// checks read. The graph holds no private copy of certificate state; the
// store is the single source of truth.
type CertificateReader interface {
	// ListByStudentAndCourse returns a student's certificates for one
	// course, ordered by issue time.
	ListByStudentAndCourse(ctx context.Context, studentID id.UserID, courseID id.CourseID) ([]*certmodels.Certificate, error)
}

// Authorizer resolves whether a caller holds a governance permission.
// Implemented by the access service.
type Authorizer interface {
	RequirePermission(ctx context.Context, caller id.UserID, perm accessmodels.Permission) error
}

// ID validation helpers reduce repetition in service methods.

func requireCourseID(courseID id.CourseID) error {
	if courseID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "course ID required")
	}
	return nil
}

func requireUserID(userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	return nil
}

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapEdgeErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "prerequisite not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeConflict, "prerequisite already registered")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapOverrideErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "override not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeConflict, "override already granted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
