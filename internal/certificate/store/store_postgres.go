package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"laurel/internal/certificate/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists certificates in PostgreSQL. Certificate IDs are
// stored hex-encoded; the encoding is fixed-width lowercase hex, so TEXT
// ordering matches byte ordering and keyset cursors work unchanged.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed certificate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed certificate store bound to a
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

const certificateColumns = `
	certificate_id, course_id, student_id, instructor_id, issued_at,
	title, description, metadata_uri, status, expires_at,
	original_expires_at, renewal_count, last_renewed_at, updated_at, history
`

func (s *PostgresStore) Insert(ctx context.Context, cert *models.Certificate) error {
	return insertOne(ctx, s.execer(), cert)
}

func (s *PostgresStore) InsertBatch(ctx context.Context, certs []*models.Certificate) error {
	if len(certs) == 0 {
		return nil
	}
	if s.tx != nil {
		for _, cert := range certs {
			if err := insertOne(ctx, s.tx, cert); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, cert := range certs {
		if err := insertOne(ctx, tx, cert); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

func insertOne(ctx context.Context, exec dbExecutor, cert *models.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is required")
	}
	history, err := json.Marshal(cert.History)
	if err != nil {
		return fmt.Errorf("marshal metadata history: %w", err)
	}

	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = exec.ExecContext(ctx, query,
		cert.ID.String(),
		cert.CourseID.String(),
		uuid.UUID(cert.StudentID),
		uuid.UUID(cert.InstructorID),
		cert.IssuedAt,
		cert.Title,
		cert.Description,
		cert.MetadataURI,
		string(cert.Status),
		cert.ExpiresAt,
		cert.OriginalExpiresAt,
		cert.RenewalCount,
		nullTime(cert.LastRenewedAt),
		cert.UpdatedAt,
		history,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("certificate already exists: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE certificate_id = $1
	`
	cert, err := scanCertificate(s.execer().QueryRowContext(ctx, query, certificateID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) Update(ctx context.Context, cert *models.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is required")
	}
	history, err := json.Marshal(cert.History)
	if err != nil {
		return fmt.Errorf("marshal metadata history: %w", err)
	}

	query := `
		UPDATE certificates
		SET student_id = $2,
			title = $3,
			description = $4,
			metadata_uri = $5,
			status = $6,
			expires_at = $7,
			renewal_count = $8,
			last_renewed_at = $9,
			updated_at = $10,
			history = $11
		WHERE certificate_id = $1
	`
	res, err := s.execer().ExecContext(ctx, query,
		cert.ID.String(),
		uuid.UUID(cert.StudentID),
		cert.Title,
		cert.Description,
		cert.MetadataURI,
		string(cert.Status),
		cert.ExpiresAt,
		cert.RenewalCount,
		nullTime(cert.LastRenewedAt),
		cert.UpdatedAt,
		history,
	)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE student_id = $1
		ORDER BY issued_at, certificate_id
	`
	return s.queryMany(ctx, "list by student", query, uuid.UUID(studentID))
}

func (s *PostgresStore) ListByInstructor(ctx context.Context, instructorID id.UserID) ([]*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE instructor_id = $1
		ORDER BY issued_at, certificate_id
	`
	return s.queryMany(ctx, "list by instructor", query, uuid.UUID(instructorID))
}

func (s *PostgresStore) ListByStudentAndCourse(ctx context.Context, studentID id.UserID, courseID id.CourseID) ([]*models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE student_id = $1 AND course_id = $2
		ORDER BY issued_at, certificate_id
	`
	return s.queryMany(ctx, "list by student and course", query, uuid.UUID(studentID), courseID.String())
}

func (s *PostgresStore) ListDue(ctx context.Context, asOf time.Time, after id.CertificateID, limit int) ([]*models.Certificate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE status = $1 AND expires_at < $2 AND certificate_id > $3
		ORDER BY certificate_id
		LIMIT $4
	`
	return s.queryMany(ctx, "list due", query,
		string(models.StatusActive), asOf, cursorValue(after), limit)
}

func (s *PostgresStore) ListExpiringBetween(ctx context.Context, from, to time.Time, after id.CertificateID, limit int) ([]*models.Certificate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE status = $1 AND expires_at >= $2 AND expires_at <= $3 AND certificate_id > $4
		ORDER BY certificate_id
		LIMIT $5
	`
	return s.queryMany(ctx, "list expiring", query,
		string(models.StatusActive), from, to, cursorValue(after), limit)
}

func (s *PostgresStore) queryMany(ctx context.Context, op, query string, args ...any) ([]*models.Certificate, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan certificate: %w", op, err)
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate certificates: %w", op, err)
	}
	return out, nil
}

type certificateRow interface {
	Scan(dest ...any) error
}

func scanCertificate(row certificateRow) (*models.Certificate, error) {
	var (
		cert          models.Certificate
		certificateID string
		courseID      string
		studentID     uuid.UUID
		instructorID  uuid.UUID
		status        string
		lastRenewedAt sql.NullTime
		history       []byte
	)
	if err := row.Scan(
		&certificateID, &courseID, &studentID, &instructorID, &cert.IssuedAt,
		&cert.Title, &cert.Description, &cert.MetadataURI, &status, &cert.ExpiresAt,
		&cert.OriginalExpiresAt, &cert.RenewalCount, &lastRenewedAt, &cert.UpdatedAt, &history,
	); err != nil {
		return nil, err
	}

	parsedID, err := id.ParseCertificateID(certificateID)
	if err != nil {
		return nil, fmt.Errorf("stored certificate ID invalid: %w", err)
	}
	cert.ID = parsedID
	cert.CourseID = id.CourseID(courseID)
	cert.StudentID = id.UserID(studentID)
	cert.InstructorID = id.UserID(instructorID)
	cert.Status = models.Status(status)
	if lastRenewedAt.Valid {
		t := lastRenewedAt.Time
		cert.LastRenewedAt = &t
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &cert.History); err != nil {
			return nil, fmt.Errorf("unmarshal metadata history: %w", err)
		}
	}
	return &cert, nil
}

// cursorValue renders a keyset cursor; the zero ID becomes the empty string,
// which sorts before every hex-encoded identifier.
func cursorValue(after id.CertificateID) string {
	if after.IsZero() {
		return ""
	}
	return after.String()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
