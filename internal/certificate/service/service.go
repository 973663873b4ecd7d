package service

import (
	"context"
	"fmt"
	"log/slog"

	accessmodels "laurel/internal/access/models"
	certmetrics "laurel/internal/certificate/metrics"
	"laurel/internal/certificate/models"
	"laurel/internal/platform/config"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/audit"
	"laurel/pkg/requestcontext"
)

// Service owns the certificate record lifecycle. Issuance is gated on the
// prerequisite graph; revocation and metadata overrides arrive here only
// through the multi-signature executor; renewals and sweeps mutate records
// through the expiry manager against the same store.
type Service struct {
	certs          CertificateStore
	authz          Authorizer
	eligibility    EligibilityChecker
	guard          Guard
	maxMintBatch   int
	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *certmetrics.Metrics
	audit          *audit.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *certmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxMintBatch overrides the batch mint limit.
func WithMaxMintBatch(limit int) Option {
	return func(s *Service) {
		s.maxMintBatch = limit
	}
}

func New(certs CertificateStore, authz Authorizer, eligibility EligibilityChecker, guard Guard, opts ...Option) *Service {
	s := &Service{
		certs:        certs,
		authz:        authz,
		eligibility:  eligibility,
		guard:        guard,
		maxMintBatch: config.DefaultMaxMintBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxMintBatch <= 0 {
		s.maxMintBatch = config.DefaultMaxMintBatch
	}
	s.audit = audit.NewLogger(s.logger, s.auditPublisher)
	return s
}

// Mint issues a certificate. The issuer must hold IssueCertificate and the
// student must satisfy every mandatory prerequisite of the course.
func (s *Service) Mint(ctx context.Context, issuer id.UserID, params models.MintParams) (*models.Certificate, error) {
	if err := s.authz.RequirePermission(ctx, issuer, accessmodels.PermissionIssueCertificate); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	cert, err := models.New(params, issuer, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkEligibility(ctx, params.StudentID, params.CourseID); err != nil {
		return nil, err
	}

	if err := s.certs.Insert(ctx, cert); err != nil {
		return nil, wrapCertErr(err, "insert certificate")
	}

	s.audit.Log(ctx, string(audit.EventCertificateMinted),
		"certificate_id", cert.ID.String(),
		"course_id", cert.CourseID.String(),
		"user_id", cert.StudentID.String(),
		"issuer_id", issuer.String(),
		"expires_at", formatTime(cert.ExpiresAt),
	)
	if s.metrics != nil {
		s.metrics.AddMinted(1)
	}
	return cert, nil
}

// MintBatch issues up to the batch limit of certificates atomically: every
// entry is validated, including prerequisite eligibility, before any record
// is written.
func (s *Service) MintBatch(ctx context.Context, issuer id.UserID, batch []models.MintParams) ([]*models.Certificate, error) {
	if err := s.authz.RequirePermission(ctx, issuer, accessmodels.PermissionIssueCertificate); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "batch is empty")
	}
	if len(batch) > s.maxMintBatch {
		return nil, dErrors.New(dErrors.CodeBatchTooLarge,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(batch), s.maxMintBatch))
	}

	now := requestcontext.Now(ctx)
	certs := make([]*models.Certificate, 0, len(batch))
	seen := make(map[id.CertificateID]struct{}, len(batch))
	for i, params := range batch {
		cert, err := models.New(params, issuer, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation,
				fmt.Sprintf("batch item %d: %v", i, err))
		}
		if _, dup := seen[params.CertificateID]; dup {
			return nil, dErrors.New(dErrors.CodeCertificateExists,
				fmt.Sprintf("batch item %d repeats an earlier certificate ID", i))
		}
		seen[params.CertificateID] = struct{}{}
		if err := s.checkEligibility(ctx, params.StudentID, params.CourseID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation,
				fmt.Sprintf("batch item %d: %v", i, err))
		}
		certs = append(certs, cert)
	}

	if err := s.certs.InsertBatch(ctx, certs); err != nil {
		return nil, wrapCertErr(err, "insert certificate batch")
	}

	s.audit.Log(ctx, string(audit.EventCertificateBatchMinted),
		"user_id", issuer.String(),
		"count", len(certs),
	)
	if s.metrics != nil {
		s.metrics.AddMinted(len(certs))
	}
	return certs, nil
}

// Revoke terminally revokes a certificate. It is not exposed as a direct
// API operation: revocation requires quorum, so calls arrive from the
// multi-signature executor with the proposer as actor.
func (s *Service) Revoke(ctx context.Context, actor id.UserID, certificateID id.CertificateID, reason string) error {
	if err := requireCertificateID(certificateID); err != nil {
		return err
	}

	release, err := s.guard.Acquire(ctx, certificateID.String())
	if err != nil {
		return wrapCertErr(err, "lock certificate")
	}
	defer release()

	cert, err := s.certs.Find(ctx, certificateID)
	if err != nil {
		return wrapCertErr(err, "find certificate")
	}
	if err := cert.Revoke(requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.certs.Update(ctx, cert); err != nil {
		return wrapCertErr(err, "update certificate")
	}

	s.audit.Log(ctx, string(audit.EventCertificateRevoked),
		"certificate_id", certificateID.String(),
		"user_id", cert.StudentID.String(),
		"actor_id", actor.String(),
		"reason", reason,
	)
	if s.metrics != nil {
		s.metrics.IncrementRevocations()
	}
	return nil
}

// Transfer moves a certificate to a new holder. The caller must be the
// current holder or hold TransferCertificate. The record keeps its identity
// but stops attesting achievement: its status becomes Transferred.
func (s *Service) Transfer(ctx context.Context, caller id.UserID, certificateID id.CertificateID, newOwner id.UserID, reason string) error {
	if err := requireCertificateID(certificateID); err != nil {
		return err
	}
	if err := requireUserID(newOwner); err != nil {
		return err
	}

	release, err := s.guard.Acquire(ctx, certificateID.String())
	if err != nil {
		return wrapCertErr(err, "lock certificate")
	}
	defer release()

	cert, err := s.certs.Find(ctx, certificateID)
	if err != nil {
		return wrapCertErr(err, "find certificate")
	}
	if caller != cert.StudentID {
		if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionTransferCertificate); err != nil {
			return err
		}
	}
	if err := cert.Transfer(newOwner, reason, requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.certs.Update(ctx, cert); err != nil {
		return wrapCertErr(err, "update certificate")
	}

	s.audit.Log(ctx, string(audit.EventCertificateTransferred),
		"certificate_id", certificateID.String(),
		"user_id", newOwner.String(),
		"previous_holder_id", formatPreviousHolder(cert),
		"actor_id", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementTransfers()
	}
	return nil
}

// UpdateMetadataURI rewrites the metadata URI and appends an audit entry to
// the record's history. Like Revoke, it is invoked by the multi-signature
// executor once a MetadataOverride request reaches quorum.
func (s *Service) UpdateMetadataURI(ctx context.Context, updatedBy id.UserID, certificateID id.CertificateID, newURI, reason string) error {
	if err := requireCertificateID(certificateID); err != nil {
		return err
	}

	release, err := s.guard.Acquire(ctx, certificateID.String())
	if err != nil {
		return wrapCertErr(err, "lock certificate")
	}
	defer release()

	cert, err := s.certs.Find(ctx, certificateID)
	if err != nil {
		return wrapCertErr(err, "find certificate")
	}
	if err := cert.UpdateMetadataURI(updatedBy, newURI, reason, requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.certs.Update(ctx, cert); err != nil {
		return wrapCertErr(err, "update certificate")
	}

	s.audit.Log(ctx, string(audit.EventMetadataUpdated),
		"certificate_id", certificateID.String(),
		"user_id", cert.StudentID.String(),
		"actor_id", updatedBy.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementMetadataUpdates()
	}
	return nil
}

// Get retrieves a certificate record. Reads are unauthenticated: anyone may
// verify a credential.
func (s *Service) Get(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error) {
	if err := requireCertificateID(certificateID); err != nil {
		return nil, err
	}
	cert, err := s.certs.Find(ctx, certificateID)
	if err != nil {
		return nil, wrapCertErr(err, "find certificate")
	}
	return cert, nil
}

// ListByStudent returns the certificates a student currently holds.
func (s *Service) ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Certificate, error) {
	if err := requireUserID(studentID); err != nil {
		return nil, err
	}
	certs, err := s.certs.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, wrapCertErr(err, "list certificates by student")
	}
	return certs, nil
}

// ListByInstructor returns the certificates an instructor has issued.
func (s *Service) ListByInstructor(ctx context.Context, instructorID id.UserID) ([]*models.Certificate, error) {
	if err := requireUserID(instructorID); err != nil {
		return nil, err
	}
	certs, err := s.certs.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, wrapCertErr(err, "list certificates by instructor")
	}
	return certs, nil
}

// MetadataHistory returns the append-only metadata audit trail.
func (s *Service) MetadataHistory(ctx context.Context, certificateID id.CertificateID) ([]models.MetadataUpdateEntry, error) {
	cert, err := s.Get(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	return cert.History, nil
}

// IsValid reports whether the certificate currently attests achievement:
// Active and within its expiry window.
func (s *Service) IsValid(ctx context.Context, certificateID id.CertificateID) (bool, error) {
	cert, err := s.Get(ctx, certificateID)
	if err != nil {
		return false, err
	}
	return cert.IsValid(requestcontext.Now(ctx)), nil
}

// IsExpired reports whether the certificate's expiry instant has passed,
// regardless of recorded status.
func (s *Service) IsExpired(ctx context.Context, certificateID id.CertificateID) (bool, error) {
	cert, err := s.Get(ctx, certificateID)
	if err != nil {
		return false, err
	}
	return cert.IsPastExpiry(requestcontext.Now(ctx)), nil
}

func (s *Service) checkEligibility(ctx context.Context, studentID id.UserID, courseID id.CourseID) error {
	if s.eligibility == nil {
		return nil
	}
	eligible, missing, err := s.eligibility.CheckEligibility(ctx, studentID, courseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check prerequisite eligibility")
	}
	if !eligible {
		return dErrors.New(dErrors.CodePrerequisitesNotMet,
			"prerequisites not met for "+courseID.String()+": "+formatCourseIDs(missing))
	}
	return nil
}

// formatPreviousHolder reads the transfer history entry written by the model
// transition; the record's StudentID already points at the new holder.
func formatPreviousHolder(cert *models.Certificate) string {
	if len(cert.History) == 0 {
		return ""
	}
	return cert.History[len(cert.History)-1].UpdatedBy.String()
}
