package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"laurel/internal/expiry/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists renewals and notifications in PostgreSQL.
// Certificate identifiers are stored hex-encoded to match the certificates
// table; a partial unique index keeps at most one pending renewal per
// certificate, and the notifications table is keyed by certificate so the
// one-notice-per-certificate rule holds under concurrent sweeps.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed lifecycle store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed lifecycle store bound to a
// transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const renewalColumns = `renewal_id, certificate_id, requester_id, previous_expires_at, new_expires_at, status, approval_request_id, created_at, applied_at`

func (s *PostgresStore) InsertRenewal(ctx context.Context, renewal *models.RenewalRequest) error {
	query := `
		INSERT INTO renewals (` + renewalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(renewal.ID),
		renewal.CertificateID.String(),
		uuid.UUID(renewal.RequesterID),
		renewal.PreviousExpiresAt,
		renewal.NewExpiresAt,
		string(renewal.Status),
		approvalRequestValue(renewal.ApprovalRequestID),
		renewal.CreatedAt,
		renewal.AppliedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("renewal already exists: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert renewal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRenewal(ctx context.Context, renewalID id.RenewalID) (*models.RenewalRequest, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM renewals
		WHERE renewal_id = $1
	`
	renewal, err := scanRenewal(s.execer().QueryRowContext(ctx, query, uuid.UUID(renewalID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find renewal: %w", err)
	}
	return renewal, nil
}

func (s *PostgresStore) UpdateRenewal(ctx context.Context, renewal *models.RenewalRequest) error {
	query := `
		UPDATE renewals
		SET status = $2, approval_request_id = $3, applied_at = $4
		WHERE renewal_id = $1
	`
	res, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(renewal.ID),
		string(renewal.Status),
		approvalRequestValue(renewal.ApprovalRequestID),
		renewal.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("update renewal: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update renewal rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindPendingRenewal(ctx context.Context, certificateID id.CertificateID) (*models.RenewalRequest, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM renewals
		WHERE certificate_id = $1 AND status = $2
	`
	renewal, err := scanRenewal(s.execer().QueryRowContext(ctx, query,
		certificateID.String(), string(models.RenewalPendingApproval)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pending renewal: %w", err)
	}
	return renewal, nil
}

func (s *PostgresStore) ListRenewalsByCertificate(ctx context.Context, certificateID id.CertificateID) ([]*models.RenewalRequest, error) {
	query := `
		SELECT ` + renewalColumns + `
		FROM renewals
		WHERE certificate_id = $1
		ORDER BY created_at, renewal_id
	`
	rows, err := s.execer().QueryContext(ctx, query, certificateID.String())
	if err != nil {
		return nil, fmt.Errorf("list renewals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.RenewalRequest, 0)
	for rows.Next() {
		renewal, err := scanRenewal(rows)
		if err != nil {
			return nil, fmt.Errorf("list renewals: scan: %w", err)
		}
		out = append(out, renewal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list renewals: iterate: %w", err)
	}
	return out, nil
}

const notificationColumns = `notification_id, certificate_id, student_id, notice_at, delivered, delivered_at, created_at`

func (s *PostgresStore) ScheduleNotification(ctx context.Context, notification *models.ExpiryNotification) error {
	query := `
		INSERT INTO expiry_notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(notification.ID),
		notification.CertificateID.String(),
		uuid.UUID(notification.StudentID),
		notification.NoticeAt,
		notification.Delivered,
		notification.DeliveredAt,
		notification.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("notification already scheduled: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("schedule notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindNotificationByCertificate(ctx context.Context, certificateID id.CertificateID) (*models.ExpiryNotification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM expiry_notifications
		WHERE certificate_id = $1
	`
	notification, err := scanNotification(s.execer().QueryRowContext(ctx, query, certificateID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return notification, nil
}

func (s *PostgresStore) UpdateNotification(ctx context.Context, notification *models.ExpiryNotification) error {
	query := `
		UPDATE expiry_notifications
		SET notice_at = $2, delivered = $3, delivered_at = $4
		WHERE certificate_id = $1
	`
	res, err := s.execer().ExecContext(ctx, query,
		notification.CertificateID.String(),
		notification.NoticeAt,
		notification.Delivered,
		notification.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notification rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListDueNotifications(ctx context.Context, asOf time.Time, limit int) ([]*models.ExpiryNotification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM expiry_notifications
		WHERE delivered = FALSE AND notice_at <= $1
		ORDER BY notice_at, notification_id
		LIMIT $2
	`
	rows, err := s.execer().QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ExpiryNotification, 0)
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("list due notifications: scan: %w", err)
		}
		out = append(out, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due notifications: iterate: %w", err)
	}
	return out, nil
}

func approvalRequestValue(approvalID *id.RequestID) any {
	if approvalID == nil {
		return nil
	}
	return uuid.UUID(*approvalID)
}

type storeRow interface {
	Scan(dest ...any) error
}

func scanRenewal(row storeRow) (*models.RenewalRequest, error) {
	var (
		renewal       models.RenewalRequest
		renewalID     uuid.UUID
		certificateID string
		requesterID   uuid.UUID
		status        string
		approvalID    uuid.NullUUID
		appliedAt     sql.NullTime
	)
	if err := row.Scan(
		&renewalID, &certificateID, &requesterID, &renewal.PreviousExpiresAt,
		&renewal.NewExpiresAt, &status, &approvalID, &renewal.CreatedAt, &appliedAt,
	); err != nil {
		return nil, err
	}
	parsedCert, err := id.ParseCertificateID(certificateID)
	if err != nil {
		return nil, fmt.Errorf("stored certificate ID invalid: %w", err)
	}
	renewal.ID = id.RenewalID(renewalID)
	renewal.CertificateID = parsedCert
	renewal.RequesterID = id.UserID(requesterID)
	renewal.Status = models.RenewalStatus(status)
	if approvalID.Valid {
		a := id.RequestID(approvalID.UUID)
		renewal.ApprovalRequestID = &a
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		renewal.AppliedAt = &t
	}
	return &renewal, nil
}

func scanNotification(row storeRow) (*models.ExpiryNotification, error) {
	var (
		notification   models.ExpiryNotification
		notificationID uuid.UUID
		certificateID  string
		studentID      uuid.UUID
		deliveredAt    sql.NullTime
	)
	if err := row.Scan(
		&notificationID, &certificateID, &studentID, &notification.NoticeAt,
		&notification.Delivered, &deliveredAt, &notification.CreatedAt,
	); err != nil {
		return nil, err
	}
	parsedCert, err := id.ParseCertificateID(certificateID)
	if err != nil {
		return nil, fmt.Errorf("stored certificate ID invalid: %w", err)
	}
	notification.ID = id.NotificationID(notificationID)
	notification.CertificateID = parsedCert
	notification.StudentID = id.UserID(studentID)
	if deliveredAt.Valid {
		t := deliveredAt.Time
		notification.DeliveredAt = &t
	}
	return &notification, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
