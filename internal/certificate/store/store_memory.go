package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"laurel/internal/certificate/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
)

// InMemoryStore keeps certificates in memory for tests and single-instance
// deployments.
type InMemoryStore struct {
	mu    sync.RWMutex
	certs map[id.CertificateID]*models.Certificate
}

// NewInMemoryStore constructs an empty in-memory certificate store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{certs: make(map[id.CertificateID]*models.Certificate)}
}

func (s *InMemoryStore) Insert(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certs[cert.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.certs[cert.ID] = cert.Clone()
	return nil
}

func (s *InMemoryStore) InsertBatch(_ context.Context, certs []*models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: check every ID before writing any.
	seen := make(map[id.CertificateID]struct{}, len(certs))
	for _, cert := range certs {
		if _, ok := s.certs[cert.ID]; ok {
			return sentinel.ErrAlreadyExists
		}
		if _, ok := seen[cert.ID]; ok {
			return sentinel.ErrAlreadyExists
		}
		seen[cert.ID] = struct{}{}
	}
	for _, cert := range certs {
		s.certs[cert.ID] = cert.Clone()
	}
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, certificateID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[certificateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cert.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certs[cert.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.certs[cert.ID] = cert.Clone()
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, studentID id.UserID) ([]*models.Certificate, error) {
	return s.collect(func(cert *models.Certificate) bool {
		return cert.StudentID == studentID
	}, byIssuedAt), nil
}

func (s *InMemoryStore) ListByInstructor(_ context.Context, instructorID id.UserID) ([]*models.Certificate, error) {
	return s.collect(func(cert *models.Certificate) bool {
		return cert.InstructorID == instructorID
	}, byIssuedAt), nil
}

func (s *InMemoryStore) ListByStudentAndCourse(_ context.Context, studentID id.UserID, courseID id.CourseID) ([]*models.Certificate, error) {
	return s.collect(func(cert *models.Certificate) bool {
		return cert.StudentID == studentID && cert.CourseID == courseID
	}, byIssuedAt), nil
}

func (s *InMemoryStore) ListDue(_ context.Context, asOf time.Time, after id.CertificateID, limit int) ([]*models.Certificate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	out := s.collect(func(cert *models.Certificate) bool {
		return cert.Status == models.StatusActive && cert.ExpiresAt.Before(asOf)
	}, byID)
	return paginate(out, after, limit), nil
}

func (s *InMemoryStore) ListExpiringBetween(_ context.Context, from, to time.Time, after id.CertificateID, limit int) ([]*models.Certificate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	out := s.collect(func(cert *models.Certificate) bool {
		if cert.Status != models.StatusActive {
			return false
		}
		return !cert.ExpiresAt.Before(from) && !cert.ExpiresAt.After(to)
	}, byID)
	return paginate(out, after, limit), nil
}

type sortOrder int

const (
	byIssuedAt sortOrder = iota
	byID
)

func (s *InMemoryStore) collect(match func(*models.Certificate) bool, order sortOrder) []*models.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Certificate, 0)
	for _, cert := range s.certs {
		if match(cert) {
			out = append(out, cert.Clone())
		}
	}
	switch order {
	case byIssuedAt:
		sort.Slice(out, func(i, j int) bool {
			if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
				return out[i].IssuedAt.Before(out[j].IssuedAt)
			}
			return out[i].ID.String() < out[j].ID.String()
		})
	case byID:
		sort.Slice(out, func(i, j int) bool {
			return out[i].ID.String() < out[j].ID.String()
		})
	}
	return out
}

func paginate(certs []*models.Certificate, after id.CertificateID, limit int) []*models.Certificate {
	start := 0
	if !after.IsZero() {
		cursor := after.String()
		start = sort.Search(len(certs), func(i int) bool {
			return certs[i].ID.String() > cursor
		})
	}
	end := start + limit
	if end > len(certs) {
		end = len(certs)
	}
	return certs[start:end]
}
