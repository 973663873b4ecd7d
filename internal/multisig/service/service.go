package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	accessmodels "laurel/internal/access/models"
	msmetrics "laurel/internal/multisig/metrics"
	"laurel/internal/multisig/models"
	"laurel/internal/platform/config"
	"laurel/internal/platform/tracing"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/audit"
	"laurel/pkg/requestcontext"
)

// Service coordinates the approval lifecycle for sensitive certificate
// operations: propose, collect signatures to quorum, execute exactly once.
// The quorum rule is copied from the active policy at proposal time; from
// then on the request is self-contained and policy changes cannot touch it.
type Service struct {
	requests       RequestStore
	authz          Authorizer
	policy         PolicySource
	executor       Executor
	guard          Guard
	maxBulkBatch   int
	sweepBatch     int
	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *msmetrics.Metrics
	tracer         tracing.Tracer
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

func WithMetrics(m *msmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMaxBulkBatch overrides the bulk-expiry proposal size limit.
func WithMaxBulkBatch(limit int) Option {
	return func(s *Service) {
		s.maxBulkBatch = limit
	}
}

// WithSweepBatchSize overrides how many stale requests one sweep expires.
func WithSweepBatchSize(limit int) Option {
	return func(s *Service) {
		s.sweepBatch = limit
	}
}

func New(requests RequestStore, authz Authorizer, policy PolicySource, executor Executor, guard Guard, opts ...Option) *Service {
	s := &Service{
		requests:     requests,
		authz:        authz,
		policy:       policy,
		executor:     executor,
		guard:        guard,
		maxBulkBatch: config.DefaultMaxBulkBatch,
		sweepBatch:   config.DefaultSweepBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxBulkBatch <= 0 {
		s.maxBulkBatch = config.DefaultMaxBulkBatch
	}
	if s.sweepBatch <= 0 {
		s.sweepBatch = config.DefaultSweepBatchSize
	}
	if s.tracer == nil {
		s.tracer = tracing.NewNoop()
	}
	s.audit = audit.NewLogger(s.logger, s.auditPublisher)
	return s
}

// Propose opens an approval request on behalf of an authorized caller. The
// proposer must hold ProposeMultiSig plus the permission guarding the
// operation category itself.
func (s *Service) Propose(ctx context.Context, proposer id.UserID, op models.Operation) (*models.Request, error) {
	if err := s.authz.RequirePermission(ctx, proposer, accessmodels.PermissionProposeMultiSig); err != nil {
		return nil, err
	}
	if perm, guarded := proposePermission(op.Kind); guarded {
		if err := s.authz.RequirePermission(ctx, proposer, perm); err != nil {
			return nil, err
		}
	}
	return s.Submit(ctx, proposer, op)
}

// Submit opens an approval request without a permission check. It exists
// for in-process collaborators that have already established authority —
// the renewal router proposes large renewals on behalf of certificate
// holders who hold no propose permission of their own.
func (s *Service) Submit(ctx context.Context, proposer id.UserID, op models.Operation) (*models.Request, error) {
	if err := requireUserID(proposer); err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if op.Kind == models.KindBulkExpiry && len(op.BulkExpiry.CertificateIDs) > s.maxBulkBatch {
		return nil, dErrors.New(dErrors.CodeBatchTooLarge,
			fmt.Sprintf("batch of %d exceeds the limit of %d", len(op.BulkExpiry.CertificateIDs), s.maxBulkBatch))
	}

	rule, err := s.policy.QuorumRule(ctx, op.Kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load quorum rule")
	}

	req, err := models.NewRequest(op, proposer, rule, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.requests.InsertRequest(ctx, req); err != nil {
		return nil, wrapRequestErr(err, "insert request")
	}
	if err := s.appendTrail(ctx, req.ID, proposer, models.ActionProposed, string(op.Kind)); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, string(audit.EventApprovalProposed),
		"approval_request_id", req.ID.String(),
		"user_id", proposer.String(),
		"kind", string(op.Kind),
		"threshold", req.Threshold,
		"deadline", formatTime(req.Deadline),
		"targets", formatCertificateIDs(op.Targets()),
	)
	if s.metrics != nil {
		s.metrics.IncrementProposed(string(op.Kind))
	}
	return req, nil
}

// Sign records one signature. Authorization is membership in the signer
// set frozen at proposal time, deliberately not a role check: role churn
// after proposal must never invalidate an in-flight request. Reaching the
// threshold approves the request in the same step.
func (s *Service) Sign(ctx context.Context, signer id.UserID, requestID id.RequestID) (*models.Request, error) {
	if err := requireUserID(signer); err != nil {
		return nil, err
	}
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, requestID.String())
	if err != nil {
		return nil, wrapRequestErr(err, "lock request")
	}
	defer release()

	req, err := s.requests.FindRequest(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err, "find request")
	}

	prev := req.Status
	if signErr := req.Sign(signer, requestcontext.Now(ctx)); signErr != nil {
		s.persistLazyExpiry(ctx, req, prev, signer)
		return nil, signErr
	}

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, wrapRequestErr(err, "update request")
	}
	if err := s.appendTrail(ctx, req.ID, signer, models.ActionSigned,
		fmt.Sprintf("signature %d of %d", len(req.SignedBy), req.Threshold)); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, string(audit.EventApprovalSigned),
		"approval_request_id", req.ID.String(),
		"user_id", signer.String(),
		"signatures", len(req.SignedBy),
		"threshold", req.Threshold,
	)
	if s.metrics != nil {
		s.metrics.IncrementSignatures()
	}

	if req.Status == models.StatusApproved {
		if err := s.appendTrail(ctx, req.ID, signer, models.ActionApproved, "quorum reached"); err != nil {
			return nil, err
		}
		s.audit.Log(ctx, string(audit.EventApprovalQuorumReached),
			"approval_request_id", req.ID.String(),
			"user_id", signer.String(),
		)
		if s.metrics != nil {
			s.metrics.IncrementQuorumsReached()
		}
	}
	return req, nil
}

// Execute runs the bound operation of an Approved request exactly once.
// Any authenticated caller may trigger execution; the quorum already
// authorized the operation itself. The request is marked Executed only
// after the operation succeeds: a failure inside the bound operation
// leaves the request Approved and retryable.
func (s *Service) Execute(ctx context.Context, executor id.UserID, requestID id.RequestID) (result *models.Request, err error) {
	if err := requireUserID(executor); err != nil {
		return nil, err
	}
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracing.SpanMultiSigExecute,
		tracing.String(tracing.AttrRequestID, requestID.String()),
	)
	defer func() { span.End(err) }()

	release, err := s.guard.Acquire(ctx, requestID.String())
	if err != nil {
		return nil, wrapRequestErr(err, "lock request")
	}
	defer release()

	req, err := s.requests.FindRequest(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err, "find request")
	}
	span.SetAttributes(tracing.String(tracing.AttrOperationKind, string(req.Operation.Kind)))

	now := requestcontext.Now(ctx)
	prev := req.Status
	if execErr := req.EnsureExecutable(now); execErr != nil {
		s.persistLazyExpiry(ctx, req, prev, executor)
		return nil, execErr
	}

	if dispatchErr := s.dispatch(ctx, req); dispatchErr != nil {
		if s.metrics != nil {
			s.metrics.IncrementExecuteFailed(string(req.Operation.Kind))
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "bound operation failed",
				"request_id", req.ID.String(),
				"kind", string(req.Operation.Kind),
				"error", dispatchErr,
			)
		}
		return nil, dErrors.Wrap(dispatchErr, dErrors.CodeInternal, "execute bound operation")
	}

	if err := req.MarkExecuted(now); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, wrapRequestErr(err, "update request")
	}
	if err := s.appendTrail(ctx, req.ID, executor, models.ActionExecuted, string(req.Operation.Kind)); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, string(audit.EventApprovalExecuted),
		"approval_request_id", req.ID.String(),
		"user_id", executor.String(),
		"kind", string(req.Operation.Kind),
		"targets", formatCertificateIDs(req.Operation.Targets()),
	)
	if s.metrics != nil {
		s.metrics.IncrementExecuted(string(req.Operation.Kind))
	}
	return req, nil
}

// Reject closes a Pending request without execution. Only the proposer or
// a caller holding RejectProposal may do so.
func (s *Service) Reject(ctx context.Context, caller id.UserID, requestID id.RequestID, reason string) (*models.Request, error) {
	if err := requireUserID(caller); err != nil {
		return nil, err
	}
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	if len(reason) > models.MaxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, "reason exceeds maximum length")
	}

	release, err := s.guard.Acquire(ctx, requestID.String())
	if err != nil {
		return nil, wrapRequestErr(err, "lock request")
	}
	defer release()

	req, err := s.requests.FindRequest(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err, "find request")
	}
	if caller != req.Proposer {
		if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionRejectProposal); err != nil {
			return nil, err
		}
	}

	prev := req.Status
	if rejectErr := req.Reject(requestcontext.Now(ctx)); rejectErr != nil {
		s.persistLazyExpiry(ctx, req, prev, caller)
		return nil, rejectErr
	}

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, wrapRequestErr(err, "update request")
	}
	if err := s.appendTrail(ctx, req.ID, caller, models.ActionRejected, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, string(audit.EventApprovalRejected),
		"approval_request_id", req.ID.String(),
		"user_id", caller.String(),
		"reason", strings.TrimSpace(reason),
	)
	if s.metrics != nil {
		s.metrics.IncrementRejected()
	}
	return req, nil
}

// ExpireStale sweeps Pending requests past their deadline, one bounded
// batch per call. It is idempotent housekeeping callable by anyone and run
// periodically by the expiry worker; per-request failures are logged and
// skipped so one bad record never stalls the sweep.
func (s *Service) ExpireStale(ctx context.Context, caller id.UserID) (int, error) {
	now := requestcontext.Now(ctx)
	due, err := s.requests.ListPendingBefore(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, wrapRequestErr(err, "list stale requests")
	}

	expired := 0
	for _, stale := range due {
		swept, err := s.expireOne(ctx, caller, stale.ID, now)
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "failed to expire stale request",
					"request_id", stale.ID.String(),
					"error", err,
				)
			}
			continue
		}
		if swept {
			expired++
		}
	}
	return expired, nil
}

// GetRequest retrieves one approval request. Reads are unauthenticated:
// the request list is the governance public record.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	req, err := s.requests.FindRequest(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err, "find request")
	}
	return req, nil
}

// ListAuditTrail returns a request's immutable audit trail in append order.
func (s *Service) ListAuditTrail(ctx context.Context, requestID id.RequestID) ([]*models.AuditEntry, error) {
	if _, err := s.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	trail, err := s.requests.ListAuditTrail(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err, "list audit trail")
	}
	return trail, nil
}

// expireOne transitions a single stale request under its lock. A request
// locked by a concurrent operation is skipped; the next sweep catches it.
func (s *Service) expireOne(ctx context.Context, caller id.UserID, requestID id.RequestID, now time.Time) (bool, error) {
	release, err := s.guard.Acquire(ctx, requestID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrLocked) {
			return false, nil
		}
		return false, wrapRequestErr(err, "lock request")
	}
	defer release()

	req, err := s.requests.FindRequest(ctx, requestID)
	if err != nil {
		return false, wrapRequestErr(err, "find request")
	}
	if !req.ExpireIfDue(now) {
		return false, nil
	}
	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return false, wrapRequestErr(err, "update request")
	}
	s.recordExpiry(ctx, req, caller)
	return true, nil
}

// persistLazyExpiry stores the Pending→Expired transition a failed Sign,
// Execute, or Reject triggered on a request past its deadline. The caller
// still returns the original error; persistence problems here are logged
// rather than allowed to mask it.
func (s *Service) persistLazyExpiry(ctx context.Context, req *models.Request, prev models.RequestStatus, actor id.UserID) {
	if prev != models.StatusPending || req.Status != models.StatusExpired {
		return
	}
	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to persist request expiry",
				"request_id", req.ID.String(),
				"error", err,
			)
		}
		return
	}
	s.recordExpiry(ctx, req, actor)
}

func (s *Service) recordExpiry(ctx context.Context, req *models.Request, actor id.UserID) {
	if err := s.appendTrail(ctx, req.ID, actor, models.ActionExpired, "deadline passed"); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to append audit entry",
				"request_id", req.ID.String(),
				"error", err,
			)
		}
	}

	attributes := []any{"approval_request_id", req.ID.String()}
	if !actor.IsNil() {
		attributes = append(attributes, "user_id", actor.String())
	}
	s.audit.Log(ctx, string(audit.EventApprovalExpired), attributes...)
	if s.metrics != nil {
		s.metrics.IncrementExpired()
	}
}

// dispatch runs the bound operation. The switch is exhaustive over the
// closed kind set; the proposer is the acting identity for operations that
// attribute their effect to a person.
func (s *Service) dispatch(ctx context.Context, req *models.Request) error {
	op := req.Operation
	switch op.Kind {
	case models.KindRevoke:
		return s.executor.RevokeCertificate(ctx, req.Proposer, op.Revoke.CertificateID, op.Revoke.Reason)
	case models.KindBulkExpiry:
		return s.executor.ExpireBatch(ctx, op.BulkExpiry.CertificateIDs)
	case models.KindMetadataOverride:
		p := op.MetadataOverride
		return s.executor.OverrideMetadata(ctx, req.Proposer, p.CertificateID, p.NewMetadataURI, p.Reason)
	case models.KindLargeRenewal:
		return s.executor.ApplyRenewal(ctx, op.LargeRenewal.CertificateID, op.LargeRenewal.NewExpiresAt)
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "no handler for operation kind "+string(op.Kind))
	}
}

func (s *Service) appendTrail(ctx context.Context, requestID id.RequestID, actor id.UserID, action models.AuditAction, note string) error {
	entry := &models.AuditEntry{
		RequestID:   requestID,
		Actor:       actor,
		Action:      action,
		Note:        note,
		Fingerprint: requestcontext.DeviceFingerprint(ctx),
		Timestamp:   requestcontext.Now(ctx),
	}
	if err := s.requests.AppendAuditEntry(ctx, entry); err != nil {
		return wrapRequestErr(err, "append audit entry")
	}
	return nil
}

// proposePermission maps an operation kind to the extra permission its
// proposal requires beyond ProposeMultiSig. Bulk expiry and large renewals
// need no extra grant: the quorum is their gate.
func proposePermission(kind models.OperationKind) (accessmodels.Permission, bool) {
	switch kind {
	case models.KindRevoke:
		return accessmodels.PermissionRevokeCertificate, true
	case models.KindMetadataOverride:
		return accessmodels.PermissionUpdateMetadata, true
	default:
		return "", false
	}
}

func formatCertificateIDs(ids []id.CertificateID) string {
	out := make([]string, len(ids))
	for i, certID := range ids {
		out[i] = certID.String()
	}
	return strings.Join(out, ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
