package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"laurel/internal/multisig/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
)

// InMemoryStore keeps requests and audit trails in process memory.
// Suitable for tests and single-instance development setups.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
	trails   map[id.RequestID][]*models.AuditEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[id.RequestID]*models.Request),
		trails:   make(map[id.RequestID][]*models.AuditEntry),
	}
}

func (s *InMemoryStore) InsertRequest(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrAlreadyExists)
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *InMemoryStore) FindRequest(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, exists := s.requests[requestID]
	if !exists {
		return nil, fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
	}
	return req.Clone(), nil
}

func (s *InMemoryStore) UpdateRequest(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; !exists {
		return fmt.Errorf("request %s: %w", req.ID, sentinel.ErrNotFound)
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *InMemoryStore) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Request, 0)
	for _, req := range s.requests {
		if req.Status == models.StatusPending && cutoff.After(req.Deadline) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) AppendAuditEntry(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.trails[entry.RequestID] = append(s.trails[entry.RequestID], &cp)
	return nil
}

func (s *InMemoryStore) ListAuditTrail(_ context.Context, requestID id.RequestID) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := s.trails[requestID]
	out := make([]*models.AuditEntry, 0, len(trail))
	for _, entry := range trail {
		cp := *entry
		out = append(out, &cp)
	}
	return out, nil
}
