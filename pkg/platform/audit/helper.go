package audit

import (
	"context"
	"log/slog"

	id "laurel/pkg/domain"
	"laurel/pkg/platform/attrs"
	"laurel/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger provides structured audit logging with optional event emission.
// Use this in services to standardize audit logging patterns.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger.
// textLogger is used for structured logging; emitter is optional for event persistence.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log logs an audit event to text and optionally emits to the audit store.
// Automatically enriches with request_id from context.
//
// Usage:
//
//	logger.Log(ctx, "certificate_minted", "user_id", ownerID.String(), "certificate_id", certID.String())
func (l *Logger) Log(ctx context.Context, event string, attributes ...any) {
	// Enrich with request_id from context
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}

	// Log to text
	l.logToText(ctx, event, attributes)

	// Emit to audit store
	l.emitToAudit(ctx, event, requestID, attributes)
}

func (l *Logger) logToText(ctx context.Context, event string, attributes []any) {
	if l.textLogger == nil {
		return
	}
	args := append(attributes, "event", event, "log_type", "audit")
	l.textLogger.InfoContext(ctx, event, args...)
}

func (l *Logger) emitToAudit(ctx context.Context, event, requestID string, attributes []any) {
	if l.emitter == nil {
		return
	}

	// Extract known fields from attributes
	userIDStr := attrs.ExtractString(attributes, "user_id")
	subject := attrs.ExtractString(attributes, "certificate_id")
	if subject == "" {
		subject = attrs.ExtractString(attributes, "course_id")
	}
	if subject == "" {
		subject = attrs.ExtractString(attributes, "approval_request_id")
	}
	if subject == "" {
		subject = attrs.ExtractString(attributes, "policy_version")
	}
	if subject == "" {
		subject = userIDStr
	}

	// Best-effort user ID parsing - ignore parse errors for audit
	userID, _ := id.ParseUserID(userIDStr) //nolint:errcheck // best-effort extraction for audit

	err := l.emitter.Emit(ctx, Event{
		Category:  AuditEvent(event).Category(),
		UserID:    userID,
		Subject:   subject,
		Action:    event,
		RequestID: requestID,
	})
	if err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", event,
		)
	}
}
