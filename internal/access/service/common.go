package service

import (
	"context"
	"errors"
	"log/slog"

	"laurel/internal/access/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/attrs"
	"laurel/pkg/platform/audit"
	"laurel/pkg/requestcontext"
)

// Store interfaces define persistence contracts.

type RoleStore interface {
	Upsert(ctx context.Context, assignment *models.RoleAssignment) error
	Find(ctx context.Context, userID id.UserID) (*models.RoleAssignment, error)
	Delete(ctx context.Context, userID id.UserID) error
	List(ctx context.Context) ([]*models.RoleAssignment, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// ID validation helpers reduce repetition in service methods.

func requireUserID(userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	return nil
}

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapRoleErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "role assignment not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

// auditEmitter handles audit logging and event emission.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, event string, attributes ...any) {
	attributes = e.enrichAttributes(ctx, attributes)
	e.logToText(ctx, event, attributes)
	e.emitToAudit(ctx, event, attributes)
}

func (e *auditEmitter) enrichAttributes(ctx context.Context, attributes []any) []any {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	return attributes
}

func (e *auditEmitter) logToText(ctx context.Context, event string, attributes []any) {
	if e.logger == nil {
		return
	}
	args := append(attributes, "event", event, "log_type", "audit")
	e.logger.InfoContext(ctx, event, args...)
}

func (e *auditEmitter) emitToAudit(ctx context.Context, event string, attributes []any) {
	if e.publisher == nil {
		return
	}
	userIDStr := attrs.ExtractString(attributes, "user_id")
	userID, err := id.ParseUserID(userIDStr)
	if err != nil && userIDStr != "" && e.logger != nil {
		e.logger.WarnContext(ctx, "failed to parse user_id for audit event",
			"user_id", userIDStr,
			"event", event,
			"error", err,
		)
	}
	if err := e.publisher.Emit(ctx, audit.Event{
		Category: audit.AuditEvent(event).Category(),
		UserID:   userID,
		Subject:  userIDStr,
		Action:   event,
		ActorID:  attrs.ExtractString(attributes, "actor_id"),
	}); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to emit audit event",
			"event", event,
			"error", err,
		)
	}
}
