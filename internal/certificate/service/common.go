package service

import (
	"context"
	"errors"
	"strings"
	"time"

	accessmodels "laurel/internal/access/models"
	"laurel/internal/certificate/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// Store interfaces define persistence contracts.

type CertificateStore interface {
	Insert(ctx context.Context, cert *models.Certificate) error
	InsertBatch(ctx context.Context, certs []*models.Certificate) error
	Find(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error)
	Update(ctx context.Context, cert *models.Certificate) error
	ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Certificate, error)
	ListByInstructor(ctx context.Context, instructorID id.UserID) ([]*models.Certificate, error)
}

// Authorizer resolves whether a caller holds a governance permission.
// Implemented by the access service.
type Authorizer interface {
	RequirePermission(ctx context.Context, caller id.UserID, perm accessmodels.Permission) error
}

// EligibilityChecker gates issuance on the prerequisite graph. A nil checker
// means no prerequisites are configured and every mint is eligible.
type EligibilityChecker interface {
	// CheckEligibility reports whether the student satisfies every mandatory
	// prerequisite of the course, and which courses are unmet when not.
	CheckEligibility(ctx context.Context, studentID id.UserID, courseID id.CourseID) (eligible bool, missing []id.CourseID, err error)
}

// Guard serializes mutations per certificate. The lock key is the
// hex-encoded certificate ID, shared with the expiry manager and the
// multi-signature executor.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ID validation helpers reduce repetition in service methods.

func requireCertificateID(certificateID id.CertificateID) error {
	if certificateID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "certificate ID required")
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

func wrapCertErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeCertificateExists, "certificate already exists")
	case errors.Is(err, sentinel.ErrLocked):
		return dErrors.New(dErrors.CodeConflict, "certificate is being modified by a concurrent operation")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func formatCourseIDs(courses []id.CourseID) string {
	out := make([]string, len(courses))
	for i, course := range courses {
		out[i] = course.String()
	}
	return strings.Join(out, ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
