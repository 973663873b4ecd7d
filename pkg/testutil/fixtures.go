package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	certmodels "laurel/internal/certificate/models"
	id "laurel/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	UserID1        id.UserID
	UserID2        id.UserID
	UserID3        id.UserID
	RequestID1     id.RequestID
	CertificateID1 id.CertificateID
	CertificateID2 id.CertificateID
}{
	UserID1:        id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2:        id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	UserID3:        id.UserID(uuid.MustParse("33333333-3333-3333-3333-333333333333")),
	RequestID1:     id.RequestID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	CertificateID1: id.CertificateID{0x11},
	CertificateID2: id.CertificateID{0x22},
}

// CertificateBuilder provides a fluent interface for building test
// certificates.
type CertificateBuilder struct {
	cert *certmodels.Certificate
}

// NewCertificateBuilder creates a new CertificateBuilder with sensible
// defaults: an active certificate for CS-101 expiring in a year.
func NewCertificateBuilder() *CertificateBuilder {
	now := time.Now().UTC().Truncate(time.Second)
	expires := now.AddDate(1, 0, 0)
	return &CertificateBuilder{
		cert: &certmodels.Certificate{
			ID:                id.NewCertificateID(),
			CourseID:          "CS-101",
			StudentID:         TestIDs.UserID1,
			InstructorID:      TestIDs.UserID2,
			IssuedAt:          now,
			Title:             "Introduction to Computer Science",
			Status:            certmodels.StatusActive,
			ExpiresAt:         expires,
			OriginalExpiresAt: expires,
			UpdatedAt:         now,
		},
	}
}

func (b *CertificateBuilder) WithID(certificateID id.CertificateID) *CertificateBuilder {
	b.cert.ID = certificateID
	return b
}

func (b *CertificateBuilder) WithCourse(courseID id.CourseID) *CertificateBuilder {
	b.cert.CourseID = courseID
	return b
}

func (b *CertificateBuilder) WithStudent(studentID id.UserID) *CertificateBuilder {
	b.cert.StudentID = studentID
	return b
}

func (b *CertificateBuilder) WithInstructor(instructorID id.UserID) *CertificateBuilder {
	b.cert.InstructorID = instructorID
	return b
}

func (b *CertificateBuilder) WithTitle(title string) *CertificateBuilder {
	b.cert.Title = title
	return b
}

func (b *CertificateBuilder) WithStatus(status certmodels.Status) *CertificateBuilder {
	b.cert.Status = status
	return b
}

// WithExpiry sets both the current and original expiry; use WithRenewal
// afterwards to model a certificate whose expiry has moved.
func (b *CertificateBuilder) WithExpiry(expiresAt time.Time) *CertificateBuilder {
	b.cert.ExpiresAt = expiresAt
	b.cert.OriginalExpiresAt = expiresAt
	return b
}

// WithRenewal models an applied renewal: the expiry moves, the count
// increments, and the renewal timestamp is set.
func (b *CertificateBuilder) WithRenewal(newExpiresAt, renewedAt time.Time) *CertificateBuilder {
	b.cert.ExpiresAt = newExpiresAt
	b.cert.RenewalCount++
	b.cert.LastRenewedAt = &renewedAt
	return b
}

func (b *CertificateBuilder) WithMetadataURI(uri string) *CertificateBuilder {
	b.cert.MetadataURI = uri
	return b
}

// Build returns the constructed certificate.
func (b *CertificateBuilder) Build() *certmodels.Certificate {
	return b.cert
}

// UniqueCourseID returns a course identifier unique to this call, for
// tests that must not collide on graph edges.
func UniqueCourseID(prefix string) id.CourseID {
	return id.CourseID(fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8]))
}
