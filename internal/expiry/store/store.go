// Package store persists renewal requests and expiry notifications.
package store

import (
	"context"
	"time"

	"laurel/internal/expiry/models"
	id "laurel/pkg/domain"
)

// Store is the persistence contract for the lifecycle manager.
//
// Error contract:
//   - InsertRenewal returns sentinel.ErrAlreadyExists for a duplicate
//     renewal ID.
//   - FindRenewal, UpdateRenewal, FindNotificationByCertificate, and
//     UpdateNotification return sentinel.ErrNotFound for unknown records.
//   - FindPendingRenewal returns sentinel.ErrNotFound when the certificate
//     has no renewal awaiting approval.
//   - ScheduleNotification returns sentinel.ErrAlreadyExists when a notice
//     already exists for the certificate: one notice per certificate, ever.
type Store interface {
	InsertRenewal(ctx context.Context, renewal *models.RenewalRequest) error
	FindRenewal(ctx context.Context, renewalID id.RenewalID) (*models.RenewalRequest, error)
	// UpdateRenewal replaces the stored record. Callers mutate a copy and
	// write it back while holding the certificate's exclusion lock.
	UpdateRenewal(ctx context.Context, renewal *models.RenewalRequest) error
	// FindPendingRenewal returns the certificate's renewal awaiting
	// approval. At most one can be pending per certificate.
	FindPendingRenewal(ctx context.Context, certificateID id.CertificateID) (*models.RenewalRequest, error)
	// ListRenewalsByCertificate returns a certificate's renewals oldest
	// first, so the response reads as a history.
	ListRenewalsByCertificate(ctx context.Context, certificateID id.CertificateID) ([]*models.RenewalRequest, error)

	ScheduleNotification(ctx context.Context, notification *models.ExpiryNotification) error
	FindNotificationByCertificate(ctx context.Context, certificateID id.CertificateID) (*models.ExpiryNotification, error)
	UpdateNotification(ctx context.Context, notification *models.ExpiryNotification) error
	// ListDueNotifications returns up to limit undelivered notices whose
	// notice instant has passed, ordered by notice instant then ID so
	// delivery passes are deterministic.
	ListDueNotifications(ctx context.Context, asOf time.Time, limit int) ([]*models.ExpiryNotification, error)
}
