package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	id "laurel/pkg/domain"
	audit "laurel/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	entries []*Entry
}

func (s *recordingStore) Append(_ context.Context, entry *Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingStore) FetchUnprocessed(_ context.Context, _ int) ([]*Entry, error) {
	return nil, nil
}

func (s *recordingStore) MarkProcessed(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (s *recordingStore) CountPending(_ context.Context) (int64, error) {
	return int64(len(s.entries)), nil
}

func (s *recordingStore) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type recordingAuditStore struct {
	events []audit.Event
}

func (s *recordingAuditStore) Append(_ context.Context, event audit.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *recordingAuditStore) ListByUser(_ context.Context, _ id.UserID) ([]audit.Event, error) {
	return s.events, nil
}

func (s *recordingAuditStore) ListBySubject(_ context.Context, _ string) ([]audit.Event, error) {
	return s.events, nil
}

func TestSink_StagesEntryWithPayload(t *testing.T) {
	store := &recordingStore{}
	sink := NewSink(store)

	userID := id.UserID(uuid.New())
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	err := sink.Append(context.Background(), audit.Event{
		Category:  audit.CategoryLifecycle,
		Timestamp: ts,
		UserID:    userID,
		Subject:   "cert-0a1b",
		Action:    string(audit.EventCertificateMinted),
		RequestID: "req-1",
	})
	require.NoError(t, err)
	require.Len(t, store.entries, 1)

	entry := store.entries[0]
	assert.Equal(t, "certificate", entry.AggregateType)
	assert.Equal(t, "cert-0a1b", entry.AggregateID)
	assert.Equal(t, string(audit.EventCertificateMinted), entry.EventType)
	assert.Equal(t, ts, entry.CreatedAt)
	assert.True(t, entry.IsPending())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, "lifecycle", payload["category"])
	assert.Equal(t, userID.String(), payload["user_id"])
	assert.Equal(t, "cert-0a1b", payload["subject"])
	assert.Equal(t, "req-1", payload["request_id"])
}

func TestSink_ForwardsToNextStore(t *testing.T) {
	store := &recordingStore{}
	next := &recordingAuditStore{}
	sink := NewSink(store, WithNextStore(next))

	err := sink.Append(context.Background(), audit.Event{
		Subject: "CS201",
		Action:  string(audit.EventPrerequisiteSet),
	})
	require.NoError(t, err)

	assert.Len(t, store.entries, 1)
	require.Len(t, next.events, 1)
	assert.Equal(t, string(audit.EventPrerequisiteSet), next.events[0].Action)
}

func TestSink_OmitsNilUserID(t *testing.T) {
	store := &recordingStore{}
	sink := NewSink(store)

	err := sink.Append(context.Background(), audit.Event{
		Subject: "cert-1",
		Action:  string(audit.EventCertificateExpired),
	})
	require.NoError(t, err)
	require.Len(t, store.entries, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.entries[0].Payload, &payload))
	_, present := payload["user_id"]
	assert.False(t, present, "nil user ID should be omitted from payload")
}

func TestAggregateTypeFor(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{string(audit.EventCertificateMinted), "certificate"},
		{string(audit.EventCertificateRenewed), "certificate"},
		{string(audit.EventExpiryNoticeSent), "certificate"},
		{string(audit.EventRenewalApplied), "certificate"},
		{string(audit.EventPrerequisiteSet), "course"},
		{string(audit.EventOverrideGranted), "course"},
		{string(audit.EventApprovalExecuted), "approval_request"},
		{string(audit.EventRoleAssigned), "role"},
		{string(audit.EventPolicyActivated), "policy"},
		{"something_else", "event"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregateTypeFor(tt.action))
		})
	}
}
