package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accessmodels "laurel/internal/access/models"
	accessservice "laurel/internal/access/service"
	accessstore "laurel/internal/access/store"
	"laurel/internal/certificate/models"
	"laurel/internal/certificate/store"
	"laurel/internal/platform/locks"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	audit "laurel/pkg/platform/audit"
	auditmemory "laurel/pkg/platform/audit/store/memory"
	"laurel/pkg/platform/audit/publisher"
	"laurel/pkg/requestcontext"
)

type stubEligibility struct {
	eligible bool
	missing  []id.CourseID
}

func (s *stubEligibility) CheckEligibility(_ context.Context, _ id.UserID, _ id.CourseID) (bool, []id.CourseID, error) {
	return s.eligible, s.missing, nil
}

type CertificateServiceSuite struct {
	suite.Suite
	svc         *Service
	certs       *store.InMemoryStore
	guard       *locks.MemoryGuard
	eligibility *stubEligibility
	auditStore  *auditmemory.InMemoryStore
	admin       id.UserID
	instructor  id.UserID
	now         time.Time
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}

func (s *CertificateServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.admin = id.UserID(uuid.New())
	s.instructor = id.UserID(uuid.New())

	authz := accessservice.New(accessstore.NewInMemoryStore())
	s.Require().NoError(authz.Bootstrap(context.Background(), s.admin))
	s.Require().NoError(authz.GrantRole(context.Background(), s.admin, s.instructor, accessmodels.RoleInstructor))

	s.certs = store.NewInMemoryStore()
	s.guard = locks.NewMemoryGuard()
	s.eligibility = &stubEligibility{eligible: true}
	s.auditStore = auditmemory.NewInMemoryStore()

	s.svc = New(s.certs, authz, s.eligibility, s.guard,
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithMaxMintBatch(3),
	)
}

func (s *CertificateServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *CertificateServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *CertificateServiceSuite) params(course string) models.MintParams {
	courseID, err := id.ParseCourseID(course)
	s.Require().NoError(err)
	return models.MintParams{
		CertificateID: id.NewCertificateID(),
		CourseID:      courseID,
		StudentID:     id.UserID(uuid.New()),
		Title:         "Certificate for " + course,
		ExpiresAt:     s.now.Add(365 * 24 * time.Hour),
	}
}

func (s *CertificateServiceSuite) TestMint() {
	params := s.params("CS-101")

	cert, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, cert.Status)
	s.Equal(s.instructor, cert.InstructorID)
	s.True(cert.IssuedAt.Equal(s.now))

	found, err := s.svc.Get(s.ctx(), params.CertificateID)
	s.Require().NoError(err)
	s.Equal(params.StudentID, found.StudentID)
}

func (s *CertificateServiceSuite) TestMintRequiresIssuePermission() {
	student := id.UserID(uuid.New())

	_, err := s.svc.Mint(s.ctx(), student, s.params("CS-101"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *CertificateServiceSuite) TestMintDuplicateID() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	_, err = s.svc.Mint(s.ctx(), s.instructor, params)
	s.True(dErrors.HasCode(err, dErrors.CodeCertificateExists))
}

func (s *CertificateServiceSuite) TestMintBlockedByPrerequisites() {
	missing, err := id.ParseCourseID("CS-100")
	s.Require().NoError(err)
	s.eligibility.eligible = false
	s.eligibility.missing = []id.CourseID{missing}

	params := s.params("CS-101")
	_, err = s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePrerequisitesNotMet))
	s.Contains(err.Error(), "CS-100")

	// Nothing written.
	_, err = s.svc.Get(s.ctx(), params.CertificateID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CertificateServiceSuite) TestMintEmitsAuditEvent() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	var found bool
	for _, e := range s.auditStore.All() {
		if e.Action == string(audit.EventCertificateMinted) {
			found = true
			s.Equal(audit.CategoryLifecycle, e.Category)
			s.Equal(params.CertificateID.String(), e.Subject)
		}
	}
	s.True(found, "expected certificate_minted audit event")
}

func (s *CertificateServiceSuite) TestMintBatchAllOrNothing() {
	good := s.params("CS-101")
	bad := s.params("CS-102")
	bad.Title = ""

	_, err := s.svc.MintBatch(s.ctx(), s.instructor, []models.MintParams{good, bad})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Get(s.ctx(), good.CertificateID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "valid items must not be written when any item fails")
}

func (s *CertificateServiceSuite) TestMintBatchBounded() {
	batch := []models.MintParams{
		s.params("CS-101"), s.params("CS-102"), s.params("CS-103"), s.params("CS-104"),
	}
	_, err := s.svc.MintBatch(s.ctx(), s.instructor, batch)
	s.True(dErrors.HasCode(err, dErrors.CodeBatchTooLarge))
}

func (s *CertificateServiceSuite) TestMintBatchRejectsDuplicateIDs() {
	first := s.params("CS-101")
	second := s.params("CS-102")
	second.CertificateID = first.CertificateID

	_, err := s.svc.MintBatch(s.ctx(), s.instructor, []models.MintParams{first, second})
	s.True(dErrors.HasCode(err, dErrors.CodeCertificateExists))
}

func (s *CertificateServiceSuite) TestMintBatchSuccess() {
	batch := []models.MintParams{s.params("CS-101"), s.params("CS-102")}

	certs, err := s.svc.MintBatch(s.ctx(), s.instructor, batch)
	s.Require().NoError(err)
	s.Len(certs, 2)

	for _, params := range batch {
		_, err := s.svc.Get(s.ctx(), params.CertificateID)
		s.NoError(err)
	}
}

func (s *CertificateServiceSuite) TestRevoke() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Revoke(s.ctx(), s.admin, params.CertificateID, "integrity violation"))

	cert, err := s.svc.Get(s.ctx(), params.CertificateID)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, cert.Status)

	// Terminal: a second revocation fails.
	err = s.svc.Revoke(s.ctx(), s.admin, params.CertificateID, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *CertificateServiceSuite) TestRevokeUnknownCertificate() {
	err := s.svc.Revoke(s.ctx(), s.admin, id.NewCertificateID(), "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CertificateServiceSuite) TestRevokeWhileLocked() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	release, err := s.guard.Acquire(context.Background(), params.CertificateID.String())
	s.Require().NoError(err)
	defer release()

	err = s.svc.Revoke(s.ctx(), s.admin, params.CertificateID, "contended")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *CertificateServiceSuite) TestTransferByHolder() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)
	newOwner := id.UserID(uuid.New())

	s.Require().NoError(s.svc.Transfer(s.ctx(), params.StudentID, params.CertificateID, newOwner, "account migration"))

	cert, err := s.svc.Get(s.ctx(), params.CertificateID)
	s.Require().NoError(err)
	s.Equal(newOwner, cert.StudentID)
	s.Equal(models.StatusTransferred, cert.Status)

	valid, err := s.svc.IsValid(s.ctx(), params.CertificateID)
	s.Require().NoError(err)
	s.False(valid, "transferred certificates no longer attest achievement")
}

func (s *CertificateServiceSuite) TestTransferByStrangerDenied() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	err = s.svc.Transfer(s.ctx(), id.UserID(uuid.New()), params.CertificateID, id.UserID(uuid.New()), "grab")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *CertificateServiceSuite) TestTransferByAdmin() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	err = s.svc.Transfer(s.ctx(), s.admin, params.CertificateID, id.UserID(uuid.New()), "administrative correction")
	s.NoError(err)
}

func (s *CertificateServiceSuite) TestUpdateMetadataURI() {
	params := s.params("CS-101")
	params.MetadataURI = "https://certs.example.edu/original.json"
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	err = s.svc.UpdateMetadataURI(s.ctx(), s.admin, params.CertificateID, "ipfs://QmCorrected", "artifact moved")
	s.Require().NoError(err)

	history, err := s.svc.MetadataHistory(s.ctx(), params.CertificateID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("https://certs.example.edu/original.json", history[0].PreviousURI)
	s.Equal("ipfs://QmCorrected", history[0].NewURI)
	s.Equal(s.admin, history[0].UpdatedBy)
}

func (s *CertificateServiceSuite) TestValidityFollowsClock() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	valid, err := s.svc.IsValid(s.ctx(), params.CertificateID)
	s.Require().NoError(err)
	s.True(valid)

	// Past expiry the record is still Active but no longer valid.
	later := s.ctxAt(params.ExpiresAt.Add(time.Second))
	valid, err = s.svc.IsValid(later, params.CertificateID)
	s.Require().NoError(err)
	s.False(valid)

	expired, err := s.svc.IsExpired(later, params.CertificateID)
	s.Require().NoError(err)
	s.True(expired)

	cert, err := s.svc.Get(later, params.CertificateID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, cert.Status, "validity is computed, not a sweep side effect")
}

func (s *CertificateServiceSuite) TestListByStudentAndInstructor() {
	params := s.params("CS-101")
	_, err := s.svc.Mint(s.ctx(), s.instructor, params)
	s.Require().NoError(err)

	byStudent, err := s.svc.ListByStudent(s.ctx(), params.StudentID)
	s.Require().NoError(err)
	s.Len(byStudent, 1)

	byInstructor, err := s.svc.ListByInstructor(s.ctx(), s.instructor)
	s.Require().NoError(err)
	s.Len(byInstructor, 1)
}
