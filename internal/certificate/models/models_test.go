package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// CertificateModelSuite tests certificate lifecycle invariants.
type CertificateModelSuite struct {
	suite.Suite
	issued time.Time
	expiry time.Time
}

func TestCertificateModelSuite(t *testing.T) {
	suite.Run(t, new(CertificateModelSuite))
}

func (s *CertificateModelSuite) SetupTest() {
	s.issued = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.expiry = s.issued.Add(365 * 24 * time.Hour)
}

func (s *CertificateModelSuite) params() MintParams {
	course, err := id.ParseCourseID("CS-101")
	s.Require().NoError(err)
	return MintParams{
		CertificateID: id.NewCertificateID(),
		CourseID:      course,
		StudentID:     id.UserID(uuid.New()),
		Title:         "Introduction to Computer Science",
		Description:   "Foundations of computing",
		MetadataURI:   "https://certs.example.edu/cs-101.json",
		ExpiresAt:     s.expiry,
	}
}

func (s *CertificateModelSuite) mint() *Certificate {
	cert, err := New(s.params(), id.UserID(uuid.New()), s.issued)
	s.Require().NoError(err)
	return cert
}

func (s *CertificateModelSuite) TestNewCertificate() {
	cert := s.mint()

	s.Equal(StatusActive, cert.Status)
	s.True(cert.ExpiresAt.Equal(s.expiry))
	s.True(cert.OriginalExpiresAt.Equal(s.expiry))
	s.Zero(cert.RenewalCount)
	s.Nil(cert.LastRenewedAt)
	s.True(cert.IssuedAt.Equal(s.issued))
	s.Empty(cert.History)
}

func (s *CertificateModelSuite) TestMintParamsValidation() {
	s.Run("expiry before issue date rejected", func() {
		p := s.params()
		p.ExpiresAt = s.issued.Add(-time.Second)
		_, err := New(p, id.UserID(uuid.New()), s.issued)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("expiry equal to issue date allowed", func() {
		p := s.params()
		p.ExpiresAt = s.issued
		_, err := New(p, id.UserID(uuid.New()), s.issued)
		s.NoError(err)
	})

	s.Run("missing title rejected", func() {
		p := s.params()
		p.Title = "   "
		_, err := New(p, id.UserID(uuid.New()), s.issued)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized title rejected", func() {
		p := s.params()
		p.Title = strings.Repeat("x", MaxTitleLength+1)
		_, err := New(p, id.UserID(uuid.New()), s.issued)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("metadata URI scheme enforced", func() {
		p := s.params()
		p.MetadataURI = "ftp://certs.example.edu/cs-101.json"
		_, err := New(p, id.UserID(uuid.New()), s.issued)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty metadata URI allowed", func() {
		p := s.params()
		p.MetadataURI = ""
		_, err := New(p, id.UserID(uuid.New()), s.issued)
		s.NoError(err)
	})

	s.Run("missing instructor rejected", func() {
		_, err := New(s.params(), id.UserID{}, s.issued)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CertificateModelSuite) TestRevoke() {
	now := s.issued.Add(time.Hour)

	s.Run("active certificate revokes", func() {
		cert := s.mint()
		s.Require().NoError(cert.Revoke(now))
		s.Equal(StatusRevoked, cert.Status)
	})

	s.Run("revoked is terminal", func() {
		cert := s.mint()
		s.Require().NoError(cert.Revoke(now))
		err := cert.Revoke(now.Add(time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("transferred certificate still revokes", func() {
		cert := s.mint()
		s.Require().NoError(cert.Transfer(id.UserID(uuid.New()), "holder rotation", now))
		s.NoError(cert.Revoke(now.Add(time.Hour)))
		s.Equal(StatusRevoked, cert.Status)
	})
}

func (s *CertificateModelSuite) TestExpire() {
	s.Run("past-due active certificate expires", func() {
		cert := s.mint()
		err := cert.Expire(s.expiry.Add(time.Second))
		s.Require().NoError(err)
		s.Equal(StatusExpired, cert.Status)
	})

	s.Run("not yet due", func() {
		cert := s.mint()
		err := cert.Expire(s.expiry.Add(-time.Second))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(StatusActive, cert.Status)
	})

	s.Run("expired is terminal", func() {
		cert := s.mint()
		s.Require().NoError(cert.Expire(s.expiry.Add(time.Second)))
		err := cert.Expire(s.expiry.Add(time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *CertificateModelSuite) TestRenew() {
	now := s.issued.Add(time.Hour)

	s.Run("renewal extends expiry and bumps count once", func() {
		cert := s.mint()
		newExpiry := s.expiry.Add(30 * 24 * time.Hour)

		s.Require().NoError(cert.Renew(newExpiry, now))

		s.True(cert.ExpiresAt.Equal(newExpiry))
		s.True(cert.OriginalExpiresAt.Equal(s.expiry), "original expiry never changes")
		s.Equal(1, cert.RenewalCount)
		s.Require().NotNil(cert.LastRenewedAt)
		s.True(cert.LastRenewedAt.Equal(now))
	})

	s.Run("renewal never shortens expiry", func() {
		cert := s.mint()
		err := cert.Renew(s.expiry.Add(-time.Hour), now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRenewal))
		s.True(cert.ExpiresAt.Equal(s.expiry))
		s.Zero(cert.RenewalCount)
	})

	s.Run("equal expiry is not an extension", func() {
		cert := s.mint()
		err := cert.Renew(s.expiry, now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRenewal))
	})

	s.Run("non-active certificate cannot renew", func() {
		cert := s.mint()
		s.Require().NoError(cert.Revoke(now))
		err := cert.Renew(s.expiry.Add(time.Hour), now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRenewal))
	})

	s.Run("repeated renewals increment count each time", func() {
		cert := s.mint()
		s.Require().NoError(cert.Renew(s.expiry.Add(24*time.Hour), now))
		s.Require().NoError(cert.Renew(s.expiry.Add(48*time.Hour), now.Add(time.Hour)))
		s.Equal(2, cert.RenewalCount)
		s.True(cert.OriginalExpiresAt.Equal(s.expiry))
	})
}

func (s *CertificateModelSuite) TestTransfer() {
	now := s.issued.Add(time.Hour)

	s.Run("transfer moves holder and marks status", func() {
		cert := s.mint()
		original := cert.StudentID
		newOwner := id.UserID(uuid.New())

		s.Require().NoError(cert.Transfer(newOwner, "holder rotation", now))

		s.Equal(newOwner, cert.StudentID)
		s.Equal(StatusTransferred, cert.Status)
		s.Require().Len(cert.History, 1)
		s.Equal(original, cert.History[0].UpdatedBy)
		s.False(cert.IsValid(now), "transferred certificates no longer attest achievement")
	})

	s.Run("transfer to current holder rejected", func() {
		cert := s.mint()
		err := cert.Transfer(cert.StudentID, "noop", now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("revoked certificate cannot transfer", func() {
		cert := s.mint()
		s.Require().NoError(cert.Revoke(now))
		err := cert.Transfer(id.UserID(uuid.New()), "too late", now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *CertificateModelSuite) TestUpdateMetadataURI() {
	now := s.issued.Add(time.Hour)
	updater := id.UserID(uuid.New())

	s.Run("update appends history entry", func() {
		cert := s.mint()
		previous := cert.MetadataURI

		err := cert.UpdateMetadataURI(updater, "ipfs://QmNewHash", "corrected artifact", now)
		s.Require().NoError(err)

		s.Equal("ipfs://QmNewHash", cert.MetadataURI)
		s.Require().Len(cert.History, 1)
		s.Equal(previous, cert.History[0].PreviousURI)
		s.Equal("ipfs://QmNewHash", cert.History[0].NewURI)
		s.Equal(updater, cert.History[0].UpdatedBy)
	})

	s.Run("history is append-only across updates", func() {
		cert := s.mint()
		s.Require().NoError(cert.UpdateMetadataURI(updater, "https://a.example/1", "first", now))
		s.Require().NoError(cert.UpdateMetadataURI(updater, "https://a.example/2", "second", now.Add(time.Minute)))
		s.Len(cert.History, 2)
		s.Equal("https://a.example/1", cert.History[1].PreviousURI)
	})

	s.Run("terminal certificate rejects updates", func() {
		cert := s.mint()
		s.Require().NoError(cert.Revoke(now))
		err := cert.UpdateMetadataURI(updater, "https://a.example/x", "late", now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *CertificateModelSuite) TestValidity() {
	cert := s.mint()

	s.True(cert.IsValid(s.expiry.Add(-time.Minute)))
	s.True(cert.IsValid(s.expiry), "validity includes the expiry instant")
	s.False(cert.IsValid(s.expiry.Add(time.Second)))
	s.False(cert.IsPastExpiry(s.expiry))
	s.True(cert.IsPastExpiry(s.expiry.Add(time.Second)))
}

func (s *CertificateModelSuite) TestCloneIsolatesHistory() {
	cert := s.mint()
	now := s.issued.Add(time.Hour)
	s.Require().NoError(cert.UpdateMetadataURI(id.UserID(uuid.New()), "https://a.example/1", "first", now))

	cp := cert.Clone()
	s.Require().NoError(cp.UpdateMetadataURI(id.UserID(uuid.New()), "https://a.example/2", "second", now))

	s.Len(cert.History, 1, "mutating the clone must not touch the original")
	s.Len(cp.History, 2)
}
