package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"laurel/internal/policy/models"
	"laurel/internal/sentinel"
)

// InMemoryStore keeps policy versions in process. Suitable for tests and
// single-instance deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	versions map[int]*models.Version
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{versions: make(map[int]*models.Version)}
}

func (s *InMemoryStore) InsertVersion(_ context.Context, version *models.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.versions[version.Number]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.versions[version.Number] = version.Clone()
	return nil
}

func (s *InMemoryStore) FindVersion(_ context.Context, number int) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, exists := s.versions[number]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return version.Clone(), nil
}

func (s *InMemoryStore) ActiveVersion(_ context.Context) (*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, version := range s.versions {
		if version.Active {
			return version.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListVersions(_ context.Context) ([]*models.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Version, 0, len(s.versions))
	for _, version := range s.versions {
		out = append(out, version.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemoryStore) LatestNumber(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := 0
	for number := range s.versions {
		if number > latest {
			latest = number
		}
	}
	return latest, nil
}

func (s *InMemoryStore) SetActive(_ context.Context, number int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.versions[number]
	if !exists {
		return sentinel.ErrNotFound
	}
	for _, version := range s.versions {
		version.Active = false
	}
	target.Active = true
	activatedAt := now
	target.ActivatedAt = &activatedAt
	return nil
}
