package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"laurel/internal/expiry/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
)

// InMemoryStore keeps renewals and notifications in process memory.
// Suitable for tests and single-instance development setups.
type InMemoryStore struct {
	mu            sync.RWMutex
	renewals      map[id.RenewalID]*models.RenewalRequest
	notifications map[id.CertificateID]*models.ExpiryNotification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		renewals:      make(map[id.RenewalID]*models.RenewalRequest),
		notifications: make(map[id.CertificateID]*models.ExpiryNotification),
	}
}

func (s *InMemoryStore) InsertRenewal(_ context.Context, renewal *models.RenewalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.renewals[renewal.ID]; exists {
		return fmt.Errorf("renewal %s: %w", renewal.ID, sentinel.ErrAlreadyExists)
	}
	s.renewals[renewal.ID] = renewal.Clone()
	return nil
}

func (s *InMemoryStore) FindRenewal(_ context.Context, renewalID id.RenewalID) (*models.RenewalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	renewal, exists := s.renewals[renewalID]
	if !exists {
		return nil, fmt.Errorf("renewal %s: %w", renewalID, sentinel.ErrNotFound)
	}
	return renewal.Clone(), nil
}

func (s *InMemoryStore) UpdateRenewal(_ context.Context, renewal *models.RenewalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.renewals[renewal.ID]; !exists {
		return fmt.Errorf("renewal %s: %w", renewal.ID, sentinel.ErrNotFound)
	}
	s.renewals[renewal.ID] = renewal.Clone()
	return nil
}

func (s *InMemoryStore) FindPendingRenewal(_ context.Context, certificateID id.CertificateID) (*models.RenewalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, renewal := range s.renewals {
		if renewal.CertificateID == certificateID && renewal.IsPending() {
			return renewal.Clone(), nil
		}
	}
	return nil, fmt.Errorf("pending renewal for certificate %s: %w", certificateID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListRenewalsByCertificate(_ context.Context, certificateID id.CertificateID) ([]*models.RenewalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RenewalRequest, 0)
	for _, renewal := range s.renewals {
		if renewal.CertificateID == certificateID {
			out = append(out, renewal.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) ScheduleNotification(_ context.Context, notification *models.ExpiryNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[notification.CertificateID]; exists {
		return fmt.Errorf("notification for certificate %s: %w", notification.CertificateID, sentinel.ErrAlreadyExists)
	}
	s.notifications[notification.CertificateID] = notification.Clone()
	return nil
}

func (s *InMemoryStore) FindNotificationByCertificate(_ context.Context, certificateID id.CertificateID) (*models.ExpiryNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notification, exists := s.notifications[certificateID]
	if !exists {
		return nil, fmt.Errorf("notification for certificate %s: %w", certificateID, sentinel.ErrNotFound)
	}
	return notification.Clone(), nil
}

func (s *InMemoryStore) UpdateNotification(_ context.Context, notification *models.ExpiryNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[notification.CertificateID]; !exists {
		return fmt.Errorf("notification for certificate %s: %w", notification.CertificateID, sentinel.ErrNotFound)
	}
	s.notifications[notification.CertificateID] = notification.Clone()
	return nil
}

func (s *InMemoryStore) ListDueNotifications(_ context.Context, asOf time.Time, limit int) ([]*models.ExpiryNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ExpiryNotification, 0)
	for _, notification := range s.notifications {
		if notification.IsDue(asOf) {
			out = append(out, notification.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NoticeAt.Equal(out[j].NoticeAt) {
			return out[i].NoticeAt.Before(out[j].NoticeAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
