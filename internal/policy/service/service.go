// Package service manages the versioned governance policy: loading
// operator-authored YAML documents, activating a version, and rolling back
// to the previous one. Exactly one version is active; quorum rules and
// renewal thresholds are read from it at operation time.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	accessmodels "laurel/internal/access/models"
	pmetrics "laurel/internal/policy/metrics"
	"laurel/internal/policy/models"
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

func WithMetrics(m *pmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service coordinates policy loads, activations, and rollbacks.
type Service struct {
	store Store
	authz Authorizer
	guard Guard

	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *pmetrics.Metrics
	audit          *audit.Logger
}

func New(store Store, authz Authorizer, guard Guard, opts ...Option) *Service {
	s := &Service{
		store:  store,
		authz:  authz,
		guard:  guard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = audit.NewLogger(s.logger, s.auditPublisher)
	return s
}

// Load parses, validates, and stores a new policy version. The version is
// numbered but NOT active: activation is a separate, audited step so a
// bad document cannot take effect by upload alone.
func (s *Service) Load(ctx context.Context, caller id.UserID, source []byte) (*models.Version, error) {
	if err := requireUserID(caller); err != nil {
		return nil, err
	}
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionManagePolicy); err != nil {
		return nil, err
	}

	doc, err := models.ParseDocument(source)
	if err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, lockKey)
	if err != nil {
		return nil, wrapVersionErr(err, "lock policy")
	}
	defer release()

	version, err := s.insertNext(ctx, doc, source, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "policy version loaded",
		"policy_version", version.Number,
		"checksum", version.Checksum,
		"user_id", caller.String())
	return version, nil
}

// insertNext numbers and persists a parsed document under the held guard.
func (s *Service) insertNext(ctx context.Context, doc *models.Document, source []byte, now time.Time) (*models.Version, error) {
	latest, err := s.store.LatestNumber(ctx)
	if err != nil {
		return nil, wrapVersionErr(err, "latest policy version")
	}
	version, err := models.NewVersion(latest+1, doc, source, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertVersion(ctx, version); err != nil {
		return nil, wrapVersionErr(err, "insert policy version")
	}
	return version, nil
}

// Activate makes the named version the active policy. Consumers pick up
// the new rules on their next read; in-flight approval requests keep the
// config they copied at proposal.
func (s *Service) Activate(ctx context.Context, caller id.UserID, number int) (*models.Version, error) {
	if err := requireUserID(caller); err != nil {
		return nil, err
	}
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionManagePolicy); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, lockKey)
	if err != nil {
		return nil, wrapVersionErr(err, "lock policy")
	}
	defer release()

	version, err := s.store.FindVersion(ctx, number)
	if err != nil {
		return nil, wrapVersionErr(err, "find policy version")
	}
	if version.Active {
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("policy version %d is already active", number))
	}

	now := requestcontext.Now(ctx)
	if err := s.store.SetActive(ctx, number, now); err != nil {
		return nil, wrapVersionErr(err, "activate policy version")
	}
	version.Active = true
	version.ActivatedAt = &now

	s.audit.Log(ctx, string(audit.EventPolicyActivated),
		"policy_version", strconv.Itoa(version.Number),
		"checksum", version.Checksum,
		"user_id", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementChanges("activated")
		s.metrics.SetActiveVersion(version.Number)
	}
	return version, nil
}

// Rollback reactivates the version that was active before the current
// one. Repeated rollbacks ping-pong between the two most recently active
// versions; that is the operator's undo, not a history walk.
func (s *Service) Rollback(ctx context.Context, caller id.UserID) (*models.Version, error) {
	if err := requireUserID(caller); err != nil {
		return nil, err
	}
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionManagePolicy); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, lockKey)
	if err != nil {
		return nil, wrapVersionErr(err, "lock policy")
	}
	defer release()

	active, err := s.store.ActiveVersion(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active policy version")
		}
		return nil, wrapVersionErr(err, "find active policy version")
	}

	target, err := s.previouslyActive(ctx, active.Number)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := s.store.SetActive(ctx, target.Number, now); err != nil {
		return nil, wrapVersionErr(err, "activate policy version")
	}
	target.Active = true
	target.ActivatedAt = &now

	s.audit.Log(ctx, string(audit.EventPolicyRolledBack),
		"policy_version", strconv.Itoa(target.Number),
		"from_version", strconv.Itoa(active.Number),
		"user_id", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementChanges("rolled_back")
		s.metrics.SetActiveVersion(target.Number)
	}
	return target, nil
}

// previouslyActive finds the most recently active version other than the
// current one.
func (s *Service) previouslyActive(ctx context.Context, currentNumber int) (*models.Version, error) {
	versions, err := s.store.ListVersions(ctx)
	if err != nil {
		return nil, wrapVersionErr(err, "list policy versions")
	}

	var target *models.Version
	for _, version := range versions {
		if version.Number == currentNumber || version.ActivatedAt == nil {
			continue
		}
		if target == nil || version.ActivatedAt.After(*target.ActivatedAt) {
			target = version
		}
	}
	if target == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no previous policy version to roll back to")
	}
	return target, nil
}

// Active returns the active policy version.
func (s *Service) Active(ctx context.Context) (*models.Version, error) {
	version, err := s.store.ActiveVersion(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active policy version")
		}
		return nil, wrapVersionErr(err, "find active policy version")
	}
	return version, nil
}

// History returns every loaded version, oldest first.
func (s *Service) History(ctx context.Context) ([]*models.Version, error) {
	versions, err := s.store.ListVersions(ctx)
	if err != nil {
		return nil, wrapVersionErr(err, "list policy versions")
	}
	return versions, nil
}

// Seed ensures an active policy exists at startup: an empty store gets
// the given document as version 1, already active. With versions present
// it returns the active one, reactivating the latest if a crash left none
// active. No permission check; the server calls this before serving.
func (s *Service) Seed(ctx context.Context, source []byte) (*models.Version, error) {
	release, err := s.guard.Acquire(ctx, lockKey)
	if err != nil {
		return nil, wrapVersionErr(err, "lock policy")
	}
	defer release()

	now := requestcontext.Now(ctx)
	latest, err := s.store.LatestNumber(ctx)
	if err != nil {
		return nil, wrapVersionErr(err, "latest policy version")
	}

	if latest == 0 {
		doc, err := models.ParseDocument(source)
		if err != nil {
			return nil, err
		}
		version, err := s.insertNext(ctx, doc, source, now)
		if err != nil {
			return nil, err
		}
		return s.activateSeed(ctx, version.Number, now)
	}

	active, err := s.store.ActiveVersion(ctx)
	if err == nil {
		if s.metrics != nil {
			s.metrics.SetActiveVersion(active.Number)
		}
		return active, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, wrapVersionErr(err, "find active policy version")
	}
	return s.activateSeed(ctx, latest, now)
}

// activateSeed activates a version as the system, outside any caller's
// session.
func (s *Service) activateSeed(ctx context.Context, number int, now time.Time) (*models.Version, error) {
	if err := s.store.SetActive(ctx, number, now); err != nil {
		return nil, wrapVersionErr(err, "activate policy version")
	}
	version, err := s.store.FindVersion(ctx, number)
	if err != nil {
		return nil, wrapVersionErr(err, "find policy version")
	}

	s.audit.Log(ctx, string(audit.EventPolicyActivated),
		"policy_version", strconv.Itoa(version.Number),
		"checksum", version.Checksum,
	)
	if s.metrics != nil {
		s.metrics.IncrementChanges("activated")
		s.metrics.SetActiveVersion(version.Number)
	}
	return version, nil
}
