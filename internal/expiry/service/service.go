// Package service implements the certificate lifecycle manager: expiry
// sweeps that transition lapsed certificates, holder notices scheduled at
// most once per certificate, and renewals that either apply immediately or
// route through the approval workflow when the extension is large.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	certmodels "laurel/internal/certificate/models"
	"laurel/internal/expiry/models"
	emetrics "laurel/internal/expiry/metrics"
	"laurel/internal/platform/config"
	"laurel/internal/platform/tracing"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/audit"
	"laurel/pkg/requestcontext"
)

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *emetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer tracing.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMaxSweepBatch caps how many certificates one sweep call may touch.
func WithMaxSweepBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSweepBatch = n
		}
	}
}

// WithRenewalWindow sets how close to expiry a certificate must be before
// a renewal request is accepted. Zero disables the window check.
func WithRenewalWindow(window time.Duration) Option {
	return func(s *Service) {
		if window >= 0 {
			s.renewalWindow = window
		}
	}
}

// WithNotificationLead sets how far ahead of expiry holders are notified.
func WithNotificationLead(lead time.Duration) Option {
	return func(s *Service) {
		if lead > 0 {
			s.notificationLead = lead
		}
	}
}

// Service coordinates expiry sweeps, notices, and renewals over the shared
// certificate store.
type Service struct {
	certs   CertificateStore
	records Store
	router  ApprovalRouter
	policy  RenewalPolicy
	guard   Guard

	maxSweepBatch    int
	renewalWindow    time.Duration
	notificationLead time.Duration

	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *emetrics.Metrics
	tracer         tracing.Tracer
	audit          *audit.Logger
}

func New(certs CertificateStore, records Store, router ApprovalRouter, policy RenewalPolicy, guard Guard, opts ...Option) *Service {
	s := &Service{
		certs:            certs,
		records:          records,
		router:           router,
		policy:           policy,
		guard:            guard,
		maxSweepBatch:    config.DefaultSweepBatchSize,
		renewalWindow:    config.DefaultRenewalWindow,
		notificationLead: config.DefaultNotificationLead,
		logger:           slog.Default(),
		tracer:           tracing.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = audit.NewLogger(s.logger, s.auditPublisher)
	return s
}

// ScanAndExpire transitions every lapsed Active certificate in the batch to
// Expired and schedules an expiry notice for its holder. Certificates that
// are terminal, busy, not yet due, or unknown are counted, not failed: the
// sweep always makes what progress it can.
func (s *Service) ScanAndExpire(ctx context.Context, batch []id.CertificateID) (result *models.SweepResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanExpirySweep,
		tracing.Int(tracing.AttrBatchSize, len(batch)))
	defer func() { span.End(err) }()

	if len(batch) > s.maxSweepBatch {
		return nil, dErrors.New(dErrors.CodeBatchTooLarge,
			fmt.Sprintf("sweep batch of %d exceeds the limit of %d", len(batch), s.maxSweepBatch))
	}

	now := requestcontext.Now(ctx)
	result = &models.SweepResult{BatchSize: len(batch)}
	for _, certificateID := range batch {
		s.expireOne(ctx, certificateID, now, result)
	}
	span.SetAttributes(tracing.Int(tracing.AttrExpiredCount, result.Expired))

	if s.metrics != nil {
		s.metrics.IncrementSweeps()
		s.metrics.AddExpired(result.Expired)
		s.metrics.AddSkipped(result.Skipped)
	}
	return result, nil
}

// SweepDue expires one page of due certificates, keyset-paginated so
// repeated calls walk the whole backlog. Returns the page's result and the
// cursor for the next page; a zero cursor means the backlog is exhausted.
func (s *Service) SweepDue(ctx context.Context, after id.CertificateID, limit int) (*models.SweepResult, id.CertificateID, error) {
	if limit <= 0 || limit > s.maxSweepBatch {
		limit = s.maxSweepBatch
	}
	now := requestcontext.Now(ctx)

	certs, err := s.certs.ListDue(ctx, now, after, limit)
	if err != nil {
		return nil, id.CertificateID{}, wrapCertErr(err, "list due certificates")
	}

	result := &models.SweepResult{BatchSize: len(certs)}
	for _, cert := range certs {
		s.expireOne(ctx, cert.ID, now, result)
	}
	if s.metrics != nil {
		s.metrics.IncrementSweeps()
		s.metrics.AddExpired(result.Expired)
		s.metrics.AddSkipped(result.Skipped)
	}

	var next id.CertificateID
	if len(certs) == limit {
		next = certs[len(certs)-1].ID
	}
	return result, next, nil
}

// expireOne handles a single sweep candidate under the certificate's lock.
// Failures are counted and logged, never returned: one bad record must not
// stall the sweep.
func (s *Service) expireOne(ctx context.Context, certificateID id.CertificateID, now time.Time, result *models.SweepResult) {
	release, err := s.guard.Acquire(ctx, certificateID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			s.logger.DebugContext(ctx, "sweep candidate busy, skipping",
				"certificate_id", certificateID.String())
		} else {
			s.logger.ErrorContext(ctx, "sweep lock failed",
				"certificate_id", certificateID.String(), "error", err)
		}
		result.Skipped++
		return
	}
	defer release()

	cert, err := s.certs.Find(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			result.Missing++
			return
		}
		s.logger.ErrorContext(ctx, "sweep candidate load failed",
			"certificate_id", certificateID.String(), "error", err)
		result.Skipped++
		return
	}
	if !cert.IsActive() {
		result.Skipped++
		return
	}
	if !cert.IsPastExpiry(now) {
		result.NotDue++
		return
	}

	if err := cert.Expire(now); err != nil {
		s.logger.ErrorContext(ctx, "expiry transition rejected",
			"certificate_id", certificateID.String(), "error", err)
		result.Skipped++
		return
	}
	if err := s.certs.Update(ctx, cert); err != nil {
		s.logger.ErrorContext(ctx, "expired certificate not persisted",
			"certificate_id", certificateID.String(), "error", err)
		result.Skipped++
		return
	}
	result.Expired++

	// The holder is owed a notice even when the advance one was never
	// scheduled; the per-certificate key makes this a no-op otherwise.
	s.ensureNotice(ctx, cert, now, now)

	s.audit.Log(ctx, string(audit.EventCertificateExpired),
		"certificate_id", cert.ID.String(),
		"user_id", cert.StudentID.String(),
		"course_id", cert.CourseID.String(),
	)
}

// ScheduleUpcoming schedules advance notices for one page of certificates
// entering the notification lead window. Returns how many notices were
// newly scheduled and the cursor for the next page; a zero cursor means the
// window is fully covered.
func (s *Service) ScheduleUpcoming(ctx context.Context, after id.CertificateID, limit int) (int, id.CertificateID, error) {
	if limit <= 0 || limit > s.maxSweepBatch {
		limit = s.maxSweepBatch
	}
	now := requestcontext.Now(ctx)

	certs, err := s.certs.ListExpiringBetween(ctx, now, now.Add(s.notificationLead), after, limit)
	if err != nil {
		return 0, id.CertificateID{}, wrapCertErr(err, "list expiring certificates")
	}

	scheduled := 0
	for _, cert := range certs {
		noticeAt := cert.ExpiresAt.Add(-s.notificationLead)
		if noticeAt.Before(now) {
			noticeAt = now
		}
		if s.ensureNotice(ctx, cert, noticeAt, now) {
			scheduled++
		}
	}

	var next id.CertificateID
	if len(certs) == limit {
		next = certs[len(certs)-1].ID
	}
	return scheduled, next, nil
}

// ensureNotice schedules the certificate's expiry notice if none exists.
// Returns true only when a notice was newly created. Failures are logged,
// not returned: notices ride along with sweeps and must not fail them.
func (s *Service) ensureNotice(ctx context.Context, cert *certmodels.Certificate, noticeAt, now time.Time) bool {
	_, err := s.records.FindNotificationByCertificate(ctx, cert.ID)
	if err == nil {
		return false
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "notice lookup failed",
			"certificate_id", cert.ID.String(), "error", err)
		return false
	}

	notification, err := models.NewExpiryNotification(cert.ID, cert.StudentID, noticeAt, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "notice rejected",
			"certificate_id", cert.ID.String(), "error", err)
		return false
	}
	if err := s.records.ScheduleNotification(ctx, notification); err != nil {
		// A concurrent sweep won the insert; the holder still gets exactly
		// one notice.
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return false
		}
		s.logger.ErrorContext(ctx, "notice not persisted",
			"certificate_id", cert.ID.String(), "error", err)
		return false
	}
	if s.metrics != nil {
		s.metrics.IncrementNotificationsScheduled()
	}
	return true
}

// RequestRenewal validates and records an extension of the certificate's
// expiry. The holder or the issuing instructor may request one; every check
// completes before anything is written. Small extensions apply in this
// call; extensions past the policy threshold route through the approval
// workflow and stay pending until quorum executes them.
func (s *Service) RequestRenewal(ctx context.Context, requester id.UserID, certificateID id.CertificateID, newExpiry time.Time) (*models.RenewalRequest, error) {
	if err := requireUserID(requester); err != nil {
		return nil, err
	}
	if err := requireCertificateID(certificateID); err != nil {
		return nil, err
	}
	if newExpiry.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "new expiry is required")
	}

	release, err := s.guard.Acquire(ctx, certificateID.String())
	if err != nil {
		return nil, wrapCertErr(err, "lock certificate")
	}
	defer release()

	cert, err := s.certs.Find(ctx, certificateID)
	if err != nil {
		return nil, wrapCertErr(err, "find certificate")
	}
	if requester != cert.StudentID && requester != cert.InstructorID {
		return nil, dErrors.New(dErrors.CodeUnauthorized,
			"only the certificate holder or the issuing instructor may request renewal")
	}

	now := requestcontext.Now(ctx)
	if !cert.IsActive() {
		return nil, dErrors.New(dErrors.CodeInvalidRenewal, "certificate is not active")
	}
	if !newExpiry.After(cert.ExpiresAt) {
		return nil, dErrors.New(dErrors.CodeInvalidRenewal, "new expiry must extend the current expiry")
	}
	if s.renewalWindow > 0 && cert.ExpiresAt.Sub(now) > s.renewalWindow {
		return nil, dErrors.New(dErrors.CodeInvalidRenewal,
			"certificate is not yet within the renewal window")
	}
	if _, err := s.records.FindPendingRenewal(ctx, certificateID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict,
			"a renewal for this certificate is already awaiting approval")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapRenewalErr(err, "check pending renewal")
	}

	rule, err := s.policy.RenewalRule(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load renewal rule")
	}
	extension := newExpiry.Sub(cert.ExpiresAt)
	if rule.MaxExtension > 0 && extension > rule.MaxExtension {
		return nil, dErrors.New(dErrors.CodeInvalidRenewal,
			fmt.Sprintf("extension of %s exceeds the maximum of %s", extension, rule.MaxExtension))
	}

	if rule.LargeExtensionThreshold > 0 && extension > rule.LargeExtensionThreshold {
		return s.routeLargeRenewal(ctx, requester, cert, newExpiry, now)
	}

	previous := cert.ExpiresAt
	if err := s.applyLocked(ctx, cert, newExpiry, now); err != nil {
		return nil, err
	}
	renewal, err := models.NewAppliedRenewal(certificateID, requester, previous, newExpiry, now)
	if err != nil {
		return nil, err
	}
	if err := s.records.InsertRenewal(ctx, renewal); err != nil {
		return nil, wrapRenewalErr(err, "insert renewal")
	}

	s.audit.Log(ctx, string(audit.EventRenewalRequested),
		"certificate_id", certificateID.String(),
		"user_id", requester.String(),
		"new_expires_at", formatTime(newExpiry),
		"outcome", string(models.RenewalApplied),
	)
	if s.metrics != nil {
		s.metrics.IncrementRenewalsRequested(string(models.RenewalApplied))
	}
	return renewal, nil
}

// routeLargeRenewal parks the extension behind the approval workflow. The
// certificate is untouched until the approval request executes.
func (s *Service) routeLargeRenewal(ctx context.Context, requester id.UserID, cert *certmodels.Certificate, newExpiry, now time.Time) (*models.RenewalRequest, error) {
	approvalID, err := s.router.SubmitLargeRenewal(ctx, requester, cert.ID, newExpiry)
	if err != nil {
		return nil, err
	}

	renewal, err := models.NewPendingRenewal(cert.ID, requester, cert.ExpiresAt, newExpiry, approvalID, now)
	if err != nil {
		return nil, err
	}
	if err := s.records.InsertRenewal(ctx, renewal); err != nil {
		return nil, wrapRenewalErr(err, "insert renewal")
	}

	s.audit.Log(ctx, string(audit.EventRenewalRequested),
		"certificate_id", cert.ID.String(),
		"user_id", requester.String(),
		"new_expires_at", formatTime(newExpiry),
		"outcome", string(models.RenewalPendingApproval),
		"approval_request_id", approvalID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRenewalsRequested(string(models.RenewalPendingApproval))
	}
	return renewal, nil
}

// ApplyRenewal puts an approved extension on the certificate. Invoked by
// the approval workflow's executor once a large renewal reaches quorum; a
// renewal that no longer fits the certificate (revoked meanwhile, expiry
// already past the proposed instant) fails here and the approval request
// stays retryable.
func (s *Service) ApplyRenewal(ctx context.Context, certificateID id.CertificateID, newExpiry time.Time) error {
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
	now := requestcontext.Now(ctx)
	if err := s.applyLocked(ctx, cert, newExpiry, now); err != nil {
		return err
	}

	s.closePendingRenewal(ctx, certificateID, newExpiry, now)
	return nil
}

// applyLocked performs the extension under an already-held certificate
// lock: model transition, persist, audit.
func (s *Service) applyLocked(ctx context.Context, cert *certmodels.Certificate, newExpiry, now time.Time) error {
	if err := cert.Renew(newExpiry, now); err != nil {
		return err
	}
	if err := s.certs.Update(ctx, cert); err != nil {
		return wrapCertErr(err, "update certificate")
	}

	s.audit.Log(ctx, string(audit.EventCertificateRenewed),
		"certificate_id", cert.ID.String(),
		"user_id", cert.StudentID.String(),
		"new_expires_at", formatTime(newExpiry),
		"renewal_count", cert.RenewalCount,
	)
	if s.metrics != nil {
		s.metrics.IncrementRenewalsApplied()
	}
	return nil
}

// closePendingRenewal marks the pending record applied after the extension
// is already on the certificate. Failures are logged, not returned: the
// certificate is the source of truth, and surfacing an error here would
// make the approval executor retry an extension that can never apply twice.
func (s *Service) closePendingRenewal(ctx context.Context, certificateID id.CertificateID, newExpiry, now time.Time) {
	renewal, err := s.records.FindPendingRenewal(ctx, certificateID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "pending renewal lookup failed",
				"certificate_id", certificateID.String(), "error", err)
		}
		return
	}
	if !renewal.Matches(newExpiry) {
		s.logger.WarnContext(ctx, "pending renewal does not match applied expiry",
			"certificate_id", certificateID.String(),
			"renewal_id", renewal.ID.String(),
			"proposed", formatTime(renewal.NewExpiresAt),
			"applied", formatTime(newExpiry))
		return
	}
	if err := renewal.MarkApplied(now); err != nil {
		s.logger.ErrorContext(ctx, "pending renewal not closeable",
			"renewal_id", renewal.ID.String(), "error", err)
		return
	}
	if err := s.records.UpdateRenewal(ctx, renewal); err != nil {
		s.logger.ErrorContext(ctx, "applied renewal not persisted",
			"renewal_id", renewal.ID.String(), "error", err)
		return
	}

	s.audit.Log(ctx, string(audit.EventRenewalApplied),
		"certificate_id", certificateID.String(),
		"renewal_id", renewal.ID.String(),
		"approval_request_id", approvalIDString(renewal.ApprovalRequestID),
	)
}

// ListRenewals returns a certificate's renewal history, oldest first.
func (s *Service) ListRenewals(ctx context.Context, certificateID id.CertificateID) ([]*models.RenewalRequest, error) {
	if err := requireCertificateID(certificateID); err != nil {
		return nil, err
	}
	renewals, err := s.records.ListRenewalsByCertificate(ctx, certificateID)
	if err != nil {
		return nil, wrapRenewalErr(err, "list renewals")
	}
	return renewals, nil
}

// GetNotification returns the certificate's expiry notice, if one has been
// scheduled.
func (s *Service) GetNotification(ctx context.Context, certificateID id.CertificateID) (*models.ExpiryNotification, error) {
	if err := requireCertificateID(certificateID); err != nil {
		return nil, err
	}
	notification, err := s.records.FindNotificationByCertificate(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no expiry notice scheduled for this certificate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find notification")
	}
	return notification, nil
}

// DeliverNotice marks the certificate's expiry notice delivered. Returns
// false when the notice was already delivered; delivery never happens
// twice.
func (s *Service) DeliverNotice(ctx context.Context, certificateID id.CertificateID) (bool, error) {
	if err := requireCertificateID(certificateID); err != nil {
		return false, err
	}
	notification, err := s.records.FindNotificationByCertificate(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "no expiry notice scheduled for this certificate")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "find notification")
	}

	now := requestcontext.Now(ctx)
	if !notification.MarkDelivered(now) {
		return false, nil
	}
	if err := s.records.UpdateNotification(ctx, notification); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "update notification")
	}

	s.audit.Log(ctx, string(audit.EventExpiryNoticeSent),
		"certificate_id", certificateID.String(),
		"user_id", notification.StudentID.String(),
		"notice_at", formatTime(notification.NoticeAt),
	)
	if s.metrics != nil {
		s.metrics.IncrementNotificationsDelivered()
	}
	return true, nil
}

// DeliverDueNotices delivers one page of due, undelivered notices. Per-item
// failures are logged and skipped so one bad record cannot stall the pass.
func (s *Service) DeliverDueNotices(ctx context.Context, limit int) (int, error) {
	if limit <= 0 || limit > s.maxSweepBatch {
		limit = s.maxSweepBatch
	}
	now := requestcontext.Now(ctx)

	due, err := s.records.ListDueNotifications(ctx, now, limit)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "list due notifications")
	}

	delivered := 0
	for _, notification := range due {
		sent, err := s.DeliverNotice(ctx, notification.CertificateID)
		if err != nil {
			s.logger.ErrorContext(ctx, "notice delivery failed",
				"certificate_id", notification.CertificateID.String(), "error", err)
			continue
		}
		if sent {
			delivered++
		}
	}
	return delivered, nil
}

func approvalIDString(approvalID *id.RequestID) string {
	if approvalID == nil {
		return ""
	}
	return approvalID.String()
}
