package store

import (
	"context"
	"time"

	"laurel/internal/certificate/models"
	id "laurel/pkg/domain"
)

// Store persists certificates.
//
// Error Contract:
// - Return sentinel.ErrNotFound when the certificate does not exist
// - Return sentinel.ErrAlreadyExists when inserting a duplicate ID
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	// Insert persists a new certificate.
	Insert(ctx context.Context, cert *models.Certificate) error

	// InsertBatch persists all given certificates or none of them.
	InsertBatch(ctx context.Context, certs []*models.Certificate) error

	// Find retrieves a certificate by its identifier.
	Find(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error)

	// Update persists the current state of an existing certificate.
	Update(ctx context.Context, cert *models.Certificate) error

	// ListByStudent returns all certificates currently held by a student,
	// ordered by issue time.
	ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Certificate, error)

	// ListByInstructor returns all certificates issued by an instructor,
	// ordered by issue time.
	ListByInstructor(ctx context.Context, instructorID id.UserID) ([]*models.Certificate, error)

	// ListByStudentAndCourse returns a student's certificates for one course.
	// A student can hold several over time (re-issued after expiry).
	ListByStudentAndCourse(ctx context.Context, studentID id.UserID, courseID id.CourseID) ([]*models.Certificate, error)

	// ListDue returns up to limit Active certificates whose expiry instant
	// lies strictly before asOf, ordered by certificate ID, starting after
	// the given cursor. A zero cursor starts from the beginning.
	ListDue(ctx context.Context, asOf time.Time, after id.CertificateID, limit int) ([]*models.Certificate, error)

	// ListExpiringBetween returns up to limit Active certificates whose
	// expiry instant falls within [from, to], ordered by certificate ID,
	// starting after the given cursor.
	ListExpiringBetween(ctx context.Context, from, to time.Time, after id.CertificateID, limit int) ([]*models.Certificate, error)
}
