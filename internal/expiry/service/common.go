package service

import (
	"context"
	"errors"
	"time"

	certmodels "laurel/internal/certificate/models"
	"laurel/internal/expiry/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

//go:generate mockgen -source=common.go -destination=mocks/mocks.go -package=mocks

// CertificateStore is the slice of the certificate store the lifecycle
// manager drives: single-record reads and writes for transitions, plus the
// keyset-paginated listings the sweeper walks.
type CertificateStore interface {
	Find(ctx context.Context, certificateID id.CertificateID) (*certmodels.Certificate, error)
	Update(ctx context.Context, cert *certmodels.Certificate) error
	// ListDue returns up to limit Active certificates whose expiry instant
	// passed before asOf, keyset-paginated by certificate ID.
	ListDue(ctx context.Context, asOf time.Time, after id.CertificateID, limit int) ([]*certmodels.Certificate, error)
	// ListExpiringBetween returns up to limit Active certificates expiring
	// inside [from, to], keyset-paginated by certificate ID.
	ListExpiringBetween(ctx context.Context, from, to time.Time, after id.CertificateID, limit int) ([]*certmodels.Certificate, error)
}

// RenewalStore persists renewal requests.
type RenewalStore interface {
	InsertRenewal(ctx context.Context, renewal *models.RenewalRequest) error
	FindRenewal(ctx context.Context, renewalID id.RenewalID) (*models.RenewalRequest, error)
	UpdateRenewal(ctx context.Context, renewal *models.RenewalRequest) error
	FindPendingRenewal(ctx context.Context, certificateID id.CertificateID) (*models.RenewalRequest, error)
	ListRenewalsByCertificate(ctx context.Context, certificateID id.CertificateID) ([]*models.RenewalRequest, error)
}

// NotificationStore persists expiry notices, at most one per certificate.
type NotificationStore interface {
	ScheduleNotification(ctx context.Context, notification *models.ExpiryNotification) error
	FindNotificationByCertificate(ctx context.Context, certificateID id.CertificateID) (*models.ExpiryNotification, error)
	UpdateNotification(ctx context.Context, notification *models.ExpiryNotification) error
	ListDueNotifications(ctx context.Context, asOf time.Time, limit int) ([]*models.ExpiryNotification, error)
}

// Store is the full persistence contract for the lifecycle manager.
type Store interface {
	RenewalStore
	NotificationStore
}

// ApprovalRouter parks a large renewal behind the approval workflow.
// Implemented by the multi-signature coordinator.
type ApprovalRouter interface {
	// SubmitLargeRenewal opens an approval request binding the extension
	// and returns its identifier.
	SubmitLargeRenewal(ctx context.Context, requester id.UserID, certificateID id.CertificateID, newExpiry time.Time) (id.RequestID, error)
}

// RenewalPolicy resolves the active extension bounds. Implemented by the
// governance policy service.
type RenewalPolicy interface {
	RenewalRule(ctx context.Context) (models.RenewalRule, error)
}

// Guard serializes mutations per certificate. Must be the same guard
// instance the certificate service uses: the lock key is the hex-encoded
// certificate ID, so sweeps, renewals, and direct mutations exclude each
// other.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func requireCertificateID(certificateID id.CertificateID) error {
	if certificateID.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "certificate ID required")
	}
	return nil
}

func requireUserID(userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	return nil
}

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapCertErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	case errors.Is(err, sentinel.ErrLocked):
		return dErrors.New(dErrors.CodeConflict, "certificate is being modified by a concurrent operation")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapRenewalErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "renewal request not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeConflict, "renewal request already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
