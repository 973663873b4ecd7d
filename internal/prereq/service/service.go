package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	accessmodels "laurel/internal/access/models"
	certmodels "laurel/internal/certificate/models"
	"laurel/internal/platform/config"
	"laurel/internal/platform/tracing"
	prereqmetrics "laurel/internal/prereq/metrics"
	"laurel/internal/prereq/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/audit"
	"laurel/pkg/requestcontext"
)

// Service owns the prerequisite graph: course dependency edges, per-student
// overrides, eligibility checks, and learning-path construction. The graph
// is acyclic at all times; the invariant is enforced at edge insertion so
// reads never have to repair state.
type Service struct {
	graph          GraphStore
	certs          CertificateReader
	authz          Authorizer
	maxGraphNodes  int
	maxDepth       int
	logger         *slog.Logger
	auditPublisher audit.Emitter
	metrics        *prereqmetrics.Metrics
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

func WithMetrics(m *prereqmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithGraphLimits overrides the node and traversal-depth caps.
func WithGraphLimits(maxNodes, maxDepth int) Option {
	return func(s *Service) {
		s.maxGraphNodes = maxNodes
		s.maxDepth = maxDepth
	}
}

func New(graph GraphStore, certs CertificateReader, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		graph:         graph,
		certs:         certs,
		authz:         authz,
		maxGraphNodes: config.DefaultMaxGraphNodes,
		maxDepth:      config.DefaultMaxTraversalDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxGraphNodes <= 0 {
		s.maxGraphNodes = config.DefaultMaxGraphNodes
	}
	if s.maxDepth <= 0 {
		s.maxDepth = config.DefaultMaxTraversalDepth
	}
	if s.tracer == nil {
		s.tracer = tracing.NewNoop()
	}
	s.audit = audit.NewLogger(s.logger, s.auditPublisher)
	return s
}

// RegisterPrerequisite inserts a dependency edge: courseID requires
// requiredID. The edge is committed only after a reachability check proves
// it closes no cycle; a rejected insertion leaves the graph untouched.
func (s *Service) RegisterPrerequisite(ctx context.Context, caller id.UserID, courseID, requiredID id.CourseID, mandatory bool) (*models.Prerequisite, error) {
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionManagePrerequisites); err != nil {
		return nil, err
	}

	edge, err := models.NewPrerequisite(courseID, requiredID, mandatory, caller, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	edges, err := s.graph.ListAllEdges(ctx)
	if err != nil {
		return nil, wrapEdgeErr(err, "load graph")
	}
	if nodes := countNodes(edges, courseID, requiredID); nodes > s.maxGraphNodes {
		return nil, dErrors.New(dErrors.CodeGraphTooLarge,
			fmt.Sprintf("graph would have %d courses, limit is %d", nodes, s.maxGraphNodes))
	}

	// The new edge closes a cycle exactly when courseID is already
	// reachable from requiredID.
	reachable, err := pathExists(buildAdjacency(edges), requiredID, courseID, s.maxDepth)
	if err != nil {
		return nil, err
	}
	if reachable {
		return nil, dErrors.New(dErrors.CodeCycleDetected,
			fmt.Sprintf("%s -> %s would create a cycle", courseID, requiredID))
	}

	if err := s.graph.InsertEdge(ctx, edge); err != nil {
		return nil, wrapEdgeErr(err, "insert prerequisite")
	}

	s.audit.Log(ctx, string(audit.EventPrerequisiteSet),
		"course_id", courseID.String(),
		"required_course_id", requiredID.String(),
		"mandatory", fmt.Sprintf("%t", mandatory),
		"user_id", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementEdgesRegistered()
	}
	return edge, nil
}

// RemovePrerequisite deletes one edge. Removing an edge cannot violate
// acyclicity, so no traversal is needed.
func (s *Service) RemovePrerequisite(ctx context.Context, caller id.UserID, courseID, requiredID id.CourseID) error {
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionManagePrerequisites); err != nil {
		return err
	}
	if err := requireCourseID(courseID); err != nil {
		return err
	}
	if err := requireCourseID(requiredID); err != nil {
		return err
	}

	if err := s.graph.DeleteEdge(ctx, courseID, requiredID); err != nil {
		return wrapEdgeErr(err, "delete prerequisite")
	}

	s.audit.Log(ctx, string(audit.EventPrerequisiteRemoved),
		"course_id", courseID.String(),
		"required_course_id", requiredID.String(),
		"user_id", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementEdgesRemoved()
	}
	return nil
}

// CheckEligibility reports whether the student satisfies every mandatory
// prerequisite of the course. Each requirement is met by an Active,
// unexpired certificate or a live override. The result lists every unmet
// requirement, not just the first; non-mandatory edges never block. Pure
// read: calling it twice without intervening mutation yields the same
// result.
func (s *Service) CheckEligibility(ctx context.Context, studentID id.UserID, courseID id.CourseID) (result *models.CheckResult, err error) {
	if err := requireUserID(studentID); err != nil {
		return nil, err
	}
	if err := requireCourseID(courseID); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracing.SpanEligibilityCheck,
		tracing.String(tracing.AttrStudentID, studentID.String()),
		tracing.String(tracing.AttrCourseID, courseID.String()),
	)
	defer func() { span.End(err) }()

	closure, err := s.loadMandatoryClosure(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	violations := make([]models.Violation, 0)
	for _, required := range closure {
		met, reason, err := s.requirementMet(ctx, studentID, required, now)
		if err != nil {
			return nil, err
		}
		if !met {
			violations = append(violations, models.Violation{RequiredCourseID: required, Reason: reason})
		}
	}

	result = &models.CheckResult{
		StudentID:  studentID,
		CourseID:   courseID,
		Satisfied:  len(violations) == 0,
		Violations: violations,
	}
	span.SetAttributes(tracing.Int(tracing.AttrViolationCount, len(violations)))
	if s.metrics != nil {
		s.metrics.ObserveEligibilityCheck(result.Satisfied)
	}
	return result, nil
}

// BuildLearningPath returns the mandatory closure of a course in
// topological order, ending with the course itself: taking the courses in
// the returned order satisfies every prerequisite along the way.
func (s *Service) BuildLearningPath(ctx context.Context, courseID id.CourseID) (path []id.CourseID, err error) {
	if err := requireCourseID(courseID); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracing.SpanLearningPath,
		tracing.String(tracing.AttrCourseID, courseID.String()),
	)
	defer func() { span.End(err) }()

	edges, err := s.graph.ListAllEdges(ctx)
	if err != nil {
		return nil, wrapEdgeErr(err, "load graph")
	}
	if nodes := countNodes(edges, courseID); nodes > s.maxGraphNodes {
		return nil, dErrors.New(dErrors.CodeGraphTooLarge,
			fmt.Sprintf("graph has %d courses, limit is %d", nodes, s.maxGraphNodes))
	}

	path, err = topologicalPath(buildAdjacency(edges), courseID, s.maxDepth)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.Int(tracing.AttrPathLength, len(path)))
	return path, nil
}

// GrantOverride exempts a student from one required course. The override
// takes effect for future eligibility checks only; already-issued
// certificates are never retroactively validated.
func (s *Service) GrantOverride(ctx context.Context, caller, studentID id.UserID, courseID id.CourseID, reason string, expiresAt *time.Time) (*models.Override, error) {
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionGrantOverride); err != nil {
		return nil, err
	}

	override, err := models.NewOverride(studentID, courseID, caller, reason, expiresAt, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.graph.InsertOverride(ctx, override); err != nil {
		return nil, wrapOverrideErr(err, "insert override")
	}

	attrs := []any{
		"user_id", studentID.String(),
		"course_id", courseID.String(),
		"granted_by", caller.String(),
		"reason", override.Reason,
	}
	if expiresAt != nil {
		attrs = append(attrs, "expires_at", formatTime(*expiresAt))
	}
	s.audit.Log(ctx, string(audit.EventOverrideGranted), attrs...)
	if s.metrics != nil {
		s.metrics.IncrementOverridesGranted()
	}
	return override, nil
}

// RevokeOverride removes a student's override for one course.
func (s *Service) RevokeOverride(ctx context.Context, caller, studentID id.UserID, courseID id.CourseID) error {
	if err := s.authz.RequirePermission(ctx, caller, accessmodels.PermissionGrantOverride); err != nil {
		return err
	}
	if err := requireUserID(studentID); err != nil {
		return err
	}
	if err := requireCourseID(courseID); err != nil {
		return err
	}

	if err := s.graph.DeleteOverride(ctx, studentID, courseID); err != nil {
		return wrapOverrideErr(err, "delete override")
	}

	s.audit.Log(ctx, string(audit.EventOverrideRevoked),
		"user_id", studentID.String(),
		"course_id", courseID.String(),
		"revoked_by", caller.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementOverridesRevoked()
	}
	return nil
}

// ListPrerequisites returns the direct requirements of one course.
func (s *Service) ListPrerequisites(ctx context.Context, courseID id.CourseID) ([]*models.Prerequisite, error) {
	if err := requireCourseID(courseID); err != nil {
		return nil, err
	}
	edges, err := s.graph.ListEdges(ctx, courseID)
	if err != nil {
		return nil, wrapEdgeErr(err, "list prerequisites")
	}
	return edges, nil
}

// ListOverrides returns all overrides a student holds.
func (s *Service) ListOverrides(ctx context.Context, studentID id.UserID) ([]*models.Override, error) {
	if err := requireUserID(studentID); err != nil {
		return nil, err
	}
	overrides, err := s.graph.ListOverrides(ctx, studentID)
	if err != nil {
		return nil, wrapOverrideErr(err, "list overrides")
	}
	return overrides, nil
}

// loadMandatoryClosure loads the graph, applies the size cap, and computes
// the course's transitive mandatory requirements.
func (s *Service) loadMandatoryClosure(ctx context.Context, courseID id.CourseID) ([]id.CourseID, error) {
	edges, err := s.graph.ListAllEdges(ctx)
	if err != nil {
		return nil, wrapEdgeErr(err, "load graph")
	}
	if nodes := countNodes(edges, courseID); nodes > s.maxGraphNodes {
		return nil, dErrors.New(dErrors.CodeGraphTooLarge,
			fmt.Sprintf("graph has %d courses, limit is %d", nodes, s.maxGraphNodes))
	}
	return mandatoryClosure(buildAdjacency(edges), courseID, s.maxDepth)
}

// requirementMet checks one required course: a valid certificate satisfies
// it, else a live override does. When neither holds, the reason names the
// student's best standing for the course.
func (s *Service) requirementMet(ctx context.Context, studentID id.UserID, courseID id.CourseID, now time.Time) (bool, string, error) {
	certs, err := s.certs.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return false, "", dErrors.Wrap(err, dErrors.CodeInternal, "read certificates")
	}
	for _, cert := range certs {
		if cert.IsValid(now) {
			return true, "", nil
		}
	}

	override, err := s.graph.FindOverride(ctx, studentID, courseID)
	switch {
	case err == nil:
		if override.IsLive(now) {
			return true, "", nil
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return false, "", dErrors.Wrap(err, dErrors.CodeInternal, "read override")
	}

	return false, violationReason(certs), nil
}

// violationReason names why the student's standing for a course does not
// satisfy the requirement. With several certificates on file, the most
// recently issued one speaks for the standing.
func violationReason(certs []*certmodels.Certificate) string {
	if len(certs) == 0 {
		return models.ReasonNoCertificate
	}
	switch certs[len(certs)-1].Status {
	case certmodels.StatusRevoked:
		return models.ReasonCertificateRevoked
	case certmodels.StatusTransferred:
		return models.ReasonCertificateTransferred
	default:
		// Active past its expiry, or already swept to Expired.
		return models.ReasonCertificateExpired
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
