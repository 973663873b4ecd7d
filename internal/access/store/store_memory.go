package store

import (
	"context"
	"sort"
	"sync"

	"laurel/internal/access/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
)

// InMemoryStore stores role assignments in memory for tests and
// single-instance deployments.
type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[id.UserID]*models.RoleAssignment
}

// NewInMemoryStore constructs an empty in-memory role store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assignments: make(map[id.UserID]*models.RoleAssignment)}
}

func (s *InMemoryStore) Upsert(_ context.Context, assignment *models.RoleAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *assignment
	s.assignments[assignment.UserID] = &cp
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, userID id.UserID) (*models.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.assignments[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *assignment
	return &cp, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.assignments, userID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RoleAssignment, 0, len(s.assignments))
	for _, assignment := range s.assignments {
		cp := *assignment
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}

func (s *InMemoryStore) CountByRole(_ context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, assignment := range s.assignments {
		if assignment.Role == role {
			count++
		}
	}
	return count, nil
}
