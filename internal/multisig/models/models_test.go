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

// RequestModelSuite tests the approval request state machine.
type RequestModelSuite struct {
	suite.Suite
	now     time.Time
	signers []id.UserID
}

func TestRequestModelSuite(t *testing.T) {
	suite.Run(t, new(RequestModelSuite))
}

func (s *RequestModelSuite) SetupTest() {
	s.now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	s.signers = []id.UserID{
		id.UserID(uuid.New()),
		id.UserID(uuid.New()),
		id.UserID(uuid.New()),
	}
}

func (s *RequestModelSuite) rule() QuorumConfig {
	return QuorumConfig{
		Threshold:      2,
		Signers:        s.signers,
		ProposalWindow: 72 * time.Hour,
	}
}

func (s *RequestModelSuite) revokeOp() Operation {
	op, err := NewRevokeOperation(id.NewCertificateID(), "credential obtained by plagiarism")
	s.Require().NoError(err)
	return op
}

func (s *RequestModelSuite) request() *Request {
	req, err := NewRequest(s.revokeOp(), id.UserID(uuid.New()), s.rule(), s.now)
	s.Require().NoError(err)
	return req
}

func (s *RequestModelSuite) TestOperationConstructors() {
	s.Run("revoke requires a reason", func() {
		_, err := NewRevokeOperation(id.NewCertificateID(), "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("revoke requires a certificate", func() {
		_, err := NewRevokeOperation(id.CertificateID{}, "reason")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized reason rejected", func() {
		_, err := NewRevokeOperation(id.NewCertificateID(), strings.Repeat("x", MaxReasonLength+1))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("bulk expiry rejects an empty batch", func() {
		_, err := NewBulkExpiryOperation(nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("bulk expiry rejects a zero ID in the batch", func() {
		_, err := NewBulkExpiryOperation([]id.CertificateID{id.NewCertificateID(), {}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("bulk expiry tolerates duplicates", func() {
		certID := id.NewCertificateID()
		op, err := NewBulkExpiryOperation([]id.CertificateID{certID, certID})
		s.NoError(err)
		s.Len(op.Targets(), 2)
	})

	s.Run("metadata override enforces the URI scheme", func() {
		_, err := NewMetadataOverrideOperation(id.NewCertificateID(), "ftp://certs.example.edu/new.json", "stale host")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("large renewal requires an expiry", func() {
		_, err := NewLargeRenewalOperation(id.NewCertificateID(), time.Time{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("decoded operation with two payloads rejected", func() {
		op := s.revokeOp()
		op.BulkExpiry = &BulkExpiryPayload{CertificateIDs: []id.CertificateID{id.NewCertificateID()}}
		s.True(dErrors.HasCode(op.Validate(), dErrors.CodeValidation))
	})

	s.Run("decoded operation with mismatched payload rejected", func() {
		op := Operation{
			Kind:       KindRevoke,
			BulkExpiry: &BulkExpiryPayload{CertificateIDs: []id.CertificateID{id.NewCertificateID()}},
		}
		s.True(dErrors.HasCode(op.Validate(), dErrors.CodeValidation))
	})
}

func (s *RequestModelSuite) TestParseOperationKind() {
	for _, valid := range []string{"revoke", "bulk_expiry", "metadata_override", "large_renewal"} {
		kind, err := ParseOperationKind(valid)
		s.NoError(err)
		s.True(kind.IsValid())
	}
	_, err := ParseOperationKind("delete_everything")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *RequestModelSuite) TestQuorumConfigValidation() {
	s.Run("valid", func() {
		s.NoError(s.rule().Validate())
	})

	s.Run("threshold below one", func() {
		rule := s.rule()
		rule.Threshold = 0
		s.True(dErrors.HasCode(rule.Validate(), dErrors.CodeValidation))
	})

	s.Run("threshold above signer count", func() {
		rule := s.rule()
		rule.Threshold = len(rule.Signers) + 1
		s.True(dErrors.HasCode(rule.Validate(), dErrors.CodeValidation))
	})

	s.Run("duplicate signer", func() {
		rule := s.rule()
		rule.Signers = append(rule.Signers, rule.Signers[0])
		s.True(dErrors.HasCode(rule.Validate(), dErrors.CodeValidation))
	})

	s.Run("empty signer ID", func() {
		rule := s.rule()
		rule.Signers = append(rule.Signers, id.UserID{})
		s.True(dErrors.HasCode(rule.Validate(), dErrors.CodeValidation))
	})

	s.Run("non-positive proposal window", func() {
		rule := s.rule()
		rule.ProposalWindow = 0
		s.True(dErrors.HasCode(rule.Validate(), dErrors.CodeValidation))
	})
}

func (s *RequestModelSuite) TestNewRequestFreezesTheRule() {
	rule := s.rule()
	req, err := NewRequest(s.revokeOp(), id.UserID(uuid.New()), rule, s.now)
	s.Require().NoError(err)

	s.Equal(StatusPending, req.Status)
	s.Equal(2, req.Threshold)
	s.Empty(req.SignedBy)
	s.True(req.Deadline.Equal(s.now.Add(72 * time.Hour)))
	s.False(req.ID.IsNil())

	// Mutating the rule after proposal must not reach the request.
	rule.Signers[0] = id.UserID(uuid.New())
	s.Equal(s.signers[0], req.Signers[0])
}

func (s *RequestModelSuite) TestSignToQuorum() {
	req := s.request()

	s.Require().NoError(req.Sign(s.signers[2], s.now.Add(time.Hour)))
	s.Equal(StatusPending, req.Status)
	s.Len(req.SignedBy, 1)

	// Signature order is irrelevant: any second distinct signer approves.
	s.Require().NoError(req.Sign(s.signers[0], s.now.Add(2*time.Hour)))
	s.Equal(StatusApproved, req.Status)
	s.Len(req.SignedBy, 2)
}

func (s *RequestModelSuite) TestSignRejectsIneligibleSigner() {
	req := s.request()
	err := req.Sign(id.UserID(uuid.New()), s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorizedSigner))
	s.Empty(req.SignedBy)
}

func (s *RequestModelSuite) TestSignRejectsDuplicateSignature() {
	req := s.request()
	s.Require().NoError(req.Sign(s.signers[0], s.now))
	err := req.Sign(s.signers[0], s.now.Add(time.Minute))
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadySigned))
	s.Len(req.SignedBy, 1)
}

func (s *RequestModelSuite) TestSignAfterTerminalStatus() {
	req := s.request()
	s.Require().NoError(req.Sign(s.signers[0], s.now))
	s.Require().NoError(req.Sign(s.signers[1], s.now))
	s.Require().NoError(req.MarkExecuted(s.now))

	err := req.Sign(s.signers[2], s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeRequestNotPending))
	s.Len(req.SignedBy, 2)
}

func (s *RequestModelSuite) TestSignPastDeadlineExpiresLazily() {
	req := s.request()
	late := req.Deadline.Add(time.Second)

	err := req.Sign(s.signers[0], late)
	s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
	s.Equal(StatusExpired, req.Status)

	// Subsequent signatures see the recorded expiry.
	err = req.Sign(s.signers[1], late)
	s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
}

func (s *RequestModelSuite) TestEnsureExecutable() {
	s.Run("pending request lacks signatures", func() {
		req := s.request()
		err := req.EnsureExecutable(s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientSignatures))
	})

	s.Run("approved request within the deadline executes", func() {
		req := s.request()
		s.Require().NoError(req.Sign(s.signers[0], s.now))
		s.Require().NoError(req.Sign(s.signers[1], s.now))
		s.NoError(req.EnsureExecutable(s.now.Add(time.Hour)))
	})

	s.Run("approved request past the deadline fails without expiring", func() {
		req := s.request()
		s.Require().NoError(req.Sign(s.signers[0], s.now))
		s.Require().NoError(req.Sign(s.signers[1], s.now))

		err := req.EnsureExecutable(req.Deadline.Add(time.Second))
		s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
		s.Equal(StatusApproved, req.Status)
	})

	s.Run("pending request past the deadline expires", func() {
		req := s.request()
		err := req.EnsureExecutable(req.Deadline.Add(time.Second))
		s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
		s.Equal(StatusExpired, req.Status)
	})

	s.Run("executed request reports already executed", func() {
		req := s.request()
		s.Require().NoError(req.Sign(s.signers[0], s.now))
		s.Require().NoError(req.Sign(s.signers[1], s.now))
		s.Require().NoError(req.MarkExecuted(s.now))

		err := req.EnsureExecutable(s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExecuted))
	})
}

func (s *RequestModelSuite) TestMarkExecutedRequiresApproval() {
	req := s.request()
	err := req.MarkExecuted(s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.Equal(StatusPending, req.Status)
}

func (s *RequestModelSuite) TestReject() {
	s.Run("pending request rejects", func() {
		req := s.request()
		s.NoError(req.Reject(s.now))
		s.Equal(StatusRejected, req.Status)
	})

	s.Run("approved request cannot be rejected", func() {
		req := s.request()
		s.Require().NoError(req.Sign(s.signers[0], s.now))
		s.Require().NoError(req.Sign(s.signers[1], s.now))

		err := req.Reject(s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeRequestNotPending))
		s.Equal(StatusApproved, req.Status)
	})

	s.Run("rejection past the deadline expires instead", func() {
		req := s.request()
		err := req.Reject(req.Deadline.Add(time.Second))
		s.True(dErrors.HasCode(err, dErrors.CodeRequestExpired))
		s.Equal(StatusExpired, req.Status)
	})
}

func (s *RequestModelSuite) TestCloneIsIndependent() {
	req := s.request()
	s.Require().NoError(req.Sign(s.signers[0], s.now))

	cp := req.Clone()
	cp.SignedBy[0] = id.UserID(uuid.New())
	cp.Signers[0] = id.UserID(uuid.New())
	cp.Operation.Revoke.Reason = "tampered"

	s.Equal(s.signers[0], req.SignedBy[0])
	s.Equal(s.signers[0], req.Signers[0])
	s.Equal("credential obtained by plagiarism", req.Operation.Revoke.Reason)
}

func (s *RequestModelSuite) TestTargets() {
	certID := id.NewCertificateID()

	op, err := NewMetadataOverrideOperation(certID, "https://certs.example.edu/new.json", "host migration")
	s.Require().NoError(err)
	s.Equal([]id.CertificateID{certID}, op.Targets())

	batch := []id.CertificateID{id.NewCertificateID(), id.NewCertificateID(), id.NewCertificateID()}
	op, err = NewBulkExpiryOperation(batch)
	s.Require().NoError(err)
	s.Equal(batch, op.Targets())
}
