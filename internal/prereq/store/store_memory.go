package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"laurel/internal/prereq/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
)

type edgeKey struct {
	course   id.CourseID
	required id.CourseID
}

type overrideKey struct {
	student id.UserID
	course  id.CourseID
}

// InMemoryStore is an in-memory implementation of Store for tests and
// local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	edges     map[edgeKey]*models.Prerequisite
	overrides map[overrideKey]*models.Override
}

// NewInMemoryStore creates an empty in-memory prerequisite store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		edges:     make(map[edgeKey]*models.Prerequisite),
		overrides: make(map[overrideKey]*models.Override),
	}
}

func (s *InMemoryStore) InsertEdge(_ context.Context, edge *models.Prerequisite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{course: edge.CourseID, required: edge.RequiredCourseID}
	if _, exists := s.edges[key]; exists {
		return fmt.Errorf("prerequisite %s -> %s: %w", edge.CourseID, edge.RequiredCourseID, sentinel.ErrAlreadyExists)
	}
	s.edges[key] = edge.Clone()
	return nil
}

func (s *InMemoryStore) DeleteEdge(_ context.Context, courseID, requiredID id.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{course: courseID, required: requiredID}
	if _, exists := s.edges[key]; !exists {
		return fmt.Errorf("prerequisite %s -> %s: %w", courseID, requiredID, sentinel.ErrNotFound)
	}
	delete(s.edges, key)
	return nil
}

func (s *InMemoryStore) ListEdges(_ context.Context, courseID id.CourseID) ([]*models.Prerequisite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Prerequisite, 0)
	for key, edge := range s.edges {
		if key.course == courseID {
			out = append(out, edge.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequiredCourseID.String() < out[j].RequiredCourseID.String()
	})
	return out, nil
}

func (s *InMemoryStore) ListAllEdges(_ context.Context) ([]*models.Prerequisite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Prerequisite, 0, len(s.edges))
	for _, edge := range s.edges {
		out = append(out, edge.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID.String() < out[j].CourseID.String()
		}
		return out[i].RequiredCourseID.String() < out[j].RequiredCourseID.String()
	})
	return out, nil
}

func (s *InMemoryStore) InsertOverride(_ context.Context, override *models.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := overrideKey{student: override.StudentID, course: override.CourseID}
	if _, exists := s.overrides[key]; exists {
		return fmt.Errorf("override for %s on %s: %w", override.StudentID, override.CourseID, sentinel.ErrAlreadyExists)
	}
	s.overrides[key] = override.Clone()
	return nil
}

func (s *InMemoryStore) DeleteOverride(_ context.Context, studentID id.UserID, courseID id.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := overrideKey{student: studentID, course: courseID}
	if _, exists := s.overrides[key]; !exists {
		return fmt.Errorf("override for %s on %s: %w", studentID, courseID, sentinel.ErrNotFound)
	}
	delete(s.overrides, key)
	return nil
}

func (s *InMemoryStore) FindOverride(_ context.Context, studentID id.UserID, courseID id.CourseID) (*models.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	override, exists := s.overrides[overrideKey{student: studentID, course: courseID}]
	if !exists {
		return nil, fmt.Errorf("override for %s on %s: %w", studentID, courseID, sentinel.ErrNotFound)
	}
	return override.Clone(), nil
}

func (s *InMemoryStore) ListOverrides(_ context.Context, studentID id.UserID) ([]*models.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Override, 0)
	for key, override := range s.overrides {
		if key.student == studentID {
			out = append(out, override.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CourseID.String() < out[j].CourseID.String()
	})
	return out, nil
}
