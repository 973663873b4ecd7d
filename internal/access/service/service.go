package service

import (
	"context"
	"errors"
	"log/slog"

	accessmetrics "laurel/internal/access/metrics"
	"laurel/internal/access/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/requestcontext"
)

// Service resolves caller roles and enforces permissions. Role lookups happen
// per check, never from token claims, so revocations take effect immediately.
type Service struct {
	roles          RoleStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *accessmetrics.Metrics
	audit          *auditEmitter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *accessmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(roles RoleStore, opts ...Option) *Service {
	s := &Service{roles: roles}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = newAuditEmitter(s.logger, s.auditPublisher)
	return s
}

// Bootstrap seeds the initial super admin exactly once. A second call fails
// with CodeConflict regardless of which user it names.
func (s *Service) Bootstrap(ctx context.Context, adminUserID id.UserID) error {
	if err := requireUserID(adminUserID); err != nil {
		return err
	}

	count, err := s.roles.CountByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return wrapRoleErr(err, "count super admins")
	}
	if count > 0 {
		return dErrors.New(dErrors.CodeConflict, "already initialized")
	}

	now := requestcontext.Now(ctx)
	assignment := &models.RoleAssignment{
		UserID:    adminUserID,
		Role:      models.RoleSuperAdmin,
		GrantedBy: adminUserID, // self-granted at bootstrap
		GrantedAt: now,
		UpdatedAt: now,
	}
	if err := s.roles.Upsert(ctx, assignment); err != nil {
		return wrapRoleErr(err, "bootstrap super admin")
	}

	s.audit.emit(ctx, "role_assigned",
		"user_id", adminUserID.String(),
		"role", string(models.RoleSuperAdmin),
		"bootstrap", true,
	)
	if s.metrics != nil {
		s.metrics.IncrementRoleGrants()
	}
	return nil
}

// GrantRole assigns a role to a user. The actor must hold ManageRoles.
func (s *Service) GrantRole(ctx context.Context, actor, userID id.UserID, role models.Role) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return err
	}
	if err := s.RequirePermission(ctx, actor, models.PermissionManageRoles); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	assignment := &models.RoleAssignment{
		UserID:    userID,
		Role:      role,
		GrantedBy: actor,
		GrantedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.roles.Find(ctx, userID); err == nil {
		assignment.GrantedAt = existing.GrantedAt
	}
	if err := s.roles.Upsert(ctx, assignment); err != nil {
		return wrapRoleErr(err, "grant role")
	}

	s.audit.emit(ctx, "role_assigned",
		"user_id", userID.String(),
		"role", string(role),
		"actor_id", actor.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRoleGrants()
	}
	return nil
}

// RevokeRole removes a user's role assignment, demoting them to student.
// The actor must hold ManageRoles. The last super admin cannot be revoked.
func (s *Service) RevokeRole(ctx context.Context, actor, userID id.UserID) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if err := s.RequirePermission(ctx, actor, models.PermissionManageRoles); err != nil {
		return err
	}

	existing, err := s.roles.Find(ctx, userID)
	if err != nil {
		return wrapRoleErr(err, "find role assignment")
	}
	if existing.Role == models.RoleSuperAdmin {
		count, err := s.roles.CountByRole(ctx, models.RoleSuperAdmin)
		if err != nil {
			return wrapRoleErr(err, "count super admins")
		}
		if count <= 1 {
			return dErrors.New(dErrors.CodeConflict, "cannot revoke the last super admin")
		}
	}

	if err := s.roles.Delete(ctx, userID); err != nil {
		return wrapRoleErr(err, "revoke role")
	}

	s.audit.emit(ctx, "role_revoked",
		"user_id", userID.String(),
		"previous_role", string(existing.Role),
		"actor_id", actor.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementRoleRevocations()
	}
	return nil
}

// RoleOf resolves a user's effective role. Users without an assignment are
// students.
func (s *Service) RoleOf(ctx context.Context, userID id.UserID) (models.Role, error) {
	if err := requireUserID(userID); err != nil {
		return "", err
	}
	assignment, err := s.roles.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.RoleStudent, nil
		}
		return "", wrapRoleErr(err, "find role assignment")
	}
	return assignment.Role, nil
}

// GetRole returns the explicit assignment for a user, or NotFound when the
// user has never been granted one.
func (s *Service) GetRole(ctx context.Context, actor, userID id.UserID) (*models.RoleAssignment, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if err := s.RequirePermission(ctx, actor, models.PermissionManageRoles); err != nil {
		return nil, err
	}
	assignment, err := s.roles.Find(ctx, userID)
	if err != nil {
		return nil, wrapRoleErr(err, "find role assignment")
	}
	return assignment, nil
}

// ListRoles returns every explicit assignment. The actor must hold
// ManageRoles.
func (s *Service) ListRoles(ctx context.Context, actor id.UserID) ([]*models.RoleAssignment, error) {
	if err := s.RequirePermission(ctx, actor, models.PermissionManageRoles); err != nil {
		return nil, err
	}
	assignments, err := s.roles.List(ctx)
	if err != nil {
		return nil, wrapRoleErr(err, "list role assignments")
	}
	return assignments, nil
}

// PrincipalFor builds the caller identity services receive explicitly.
func (s *Service) PrincipalFor(ctx context.Context, userID id.UserID) (models.Principal, error) {
	role, err := s.RoleOf(ctx, userID)
	if err != nil {
		return models.Principal{}, err
	}
	return models.Principal{UserID: userID, Role: role}, nil
}

// RequirePermission fails with CodeUnauthorized unless the caller's current
// role holds the permission.
func (s *Service) RequirePermission(ctx context.Context, caller id.UserID, perm models.Permission) error {
	if err := requireUserID(caller); err != nil {
		return err
	}
	role, err := s.RoleOf(ctx, caller)
	if err != nil {
		return err
	}
	if !role.Has(perm) {
		if s.metrics != nil {
			s.metrics.IncrementPermissionDenials(string(perm))
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "permission denied",
				"user_id", caller.String(),
				"role", string(role),
				"permission", string(perm),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return dErrors.New(dErrors.CodeUnauthorized, "caller lacks permission: "+string(perm))
	}
	return nil
}
