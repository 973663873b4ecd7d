// Package memory provides an in-memory outbox store for tests and
// single-instance deployments without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"laurel/pkg/platform/audit/outbox"
)

// Store keeps outbox entries in memory. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries []*outbox.Entry
}

// New creates an empty in-memory outbox store.
func New() *Store {
	return &Store{}
}

// Append inserts a new entry.
func (s *Store) Append(_ context.Context, entry *outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

// FetchUnprocessed returns up to limit pending entries, oldest first.
func (s *Store) FetchUnprocessed(_ context.Context, limit int) ([]*outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*outbox.Entry
	for _, e := range s.entries {
		if e.IsPending() {
			cp := *e
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkProcessed stamps an entry as published.
func (s *Store) MarkProcessed(_ context.Context, entryID uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == entryID && e.ProcessedAt == nil {
			t := processedAt
			e.ProcessedAt = &t
		}
	}
	return nil
}

// CountPending returns the number of unprocessed entries.
func (s *Store) CountPending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, e := range s.entries {
		if e.IsPending() {
			count++
		}
	}
	return count, nil
}

// DeleteProcessedBefore removes processed entries older than the cutoff.
func (s *Store) DeleteProcessedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*outbox.Entry
	var deleted int64
	for _, e := range s.entries {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return deleted, nil
}
