// Package tracing provides a lightweight tracing abstraction for governance
// operations.
//
// The interface keeps the service packages decoupled from OpenTelemetry:
// graph traversals, multi-signature executions, and expiry sweeps emit spans
// through it without importing otel directly.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracing

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// If err is non-nil, the span is marked as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	// The returned context carries the span and should be passed to child
	// operations. The span must be ended by calling Span.End().
	//
	// Example:
	//   ctx, span := tracer.Start(ctx, tracing.SpanEligibilityCheck,
	//       tracing.String("course_id", courseID.String()),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the governance services.
const (
	SpanEligibilityCheck = "prereq.check_eligibility"
	SpanLearningPath     = "prereq.learning_path"
	SpanMultiSigExecute  = "multisig.execute"
	SpanExpirySweep      = "expiry.sweep"
)

// Attribute keys used by the governance services.
const (
	AttrCourseID       = "course_id"
	AttrStudentID      = "student_id"
	AttrCertificateID  = "certificate_id"
	AttrRequestID      = "approval_request_id"
	AttrOperationKind  = "operation_kind"
	AttrViolationCount = "violation_count"
	AttrPathLength     = "path_length"
	AttrBatchSize      = "batch_size"
	AttrExpiredCount   = "expired_count"
	AttrSkippedCount   = "skipped_count"
)
