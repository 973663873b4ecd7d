package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	id "laurel/pkg/domain"
	"laurel/pkg/platform/audit"
)

// eventPayload is the JSON shape written into the outbox and later published
// to Kafka. Typed IDs are flattened to strings so downstream consumers do not
// need our domain types.
type eventPayload struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

// Sink stages audit events in the outbox for reliable delivery. It satisfies
// audit.Store so domain services stay unaware of the publishing pipeline.
// When next is set, events are also forwarded to it so queries keep working.
type Sink struct {
	store Store
	next  audit.Store
}

// NewSink creates a sink writing to the given outbox store.
func NewSink(store Store, opts ...SinkOption) *Sink {
	s := &Sink{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithNextStore forwards every event to a queryable audit store after staging.
func WithNextStore(next audit.Store) SinkOption {
	return func(s *Sink) { s.next = next }
}

// Append stages the event as an outbox entry and forwards it when configured.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(eventPayload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp,
		UserID:    userIDString(event.UserID),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	entry := NewEntry(aggregateTypeFor(event.Action), event.Subject, event.Action, payload)
	if !event.Timestamp.IsZero() {
		entry.CreatedAt = event.Timestamp
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append outbox entry: %w", err)
	}

	if s.next != nil {
		return s.next.Append(ctx, event)
	}
	return nil
}

// ListByUser delegates to the next store when present.
func (s *Sink) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	if s.next == nil {
		return nil, nil
	}
	return s.next.ListByUser(ctx, userID)
}

// ListBySubject delegates to the next store when present.
func (s *Sink) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	if s.next == nil {
		return nil, nil
	}
	return s.next.ListBySubject(ctx, subject)
}

func userIDString(userID id.UserID) string {
	if userID.IsNil() {
		return ""
	}
	return userID.String()
}

// aggregateTypeFor maps an audit action onto the aggregate its subject
// identifies, keeping outbox partitioning stable per aggregate.
func aggregateTypeFor(action string) string {
	switch {
	case strings.HasPrefix(action, "certificate_"),
		strings.HasPrefix(action, "expiry_"),
		strings.HasPrefix(action, "renewal_"):
		return "certificate"
	case strings.HasPrefix(action, "prerequisite_"),
		strings.HasPrefix(action, "override_"):
		return "course"
	case strings.HasPrefix(action, "approval_"):
		return "approval_request"
	case strings.HasPrefix(action, "role_"):
		return "role"
	case strings.HasPrefix(action, "policy_"):
		return "policy"
	default:
		return "event"
	}
}
