package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"laurel/internal/prereq/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists prerequisite edges and overrides in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed prerequisite store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed prerequisite store bound to a
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

func (s *PostgresStore) InsertEdge(ctx context.Context, edge *models.Prerequisite) error {
	query := `
		INSERT INTO course_prerequisites (course_id, required_course_id, mandatory, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer().ExecContext(ctx, query,
		edge.CourseID.String(),
		edge.RequiredCourseID.String(),
		edge.Mandatory,
		uuid.UUID(edge.CreatedBy),
		edge.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("prerequisite already exists: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert prerequisite: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteEdge(ctx context.Context, courseID, requiredID id.CourseID) error {
	query := `
		DELETE FROM course_prerequisites
		WHERE course_id = $1 AND required_course_id = $2
	`
	res, err := s.execer().ExecContext(ctx, query, courseID.String(), requiredID.String())
	if err != nil {
		return fmt.Errorf("delete prerequisite: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prerequisite rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const edgeColumns = `course_id, required_course_id, mandatory, created_by, created_at`

func (s *PostgresStore) ListEdges(ctx context.Context, courseID id.CourseID) ([]*models.Prerequisite, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM course_prerequisites
		WHERE course_id = $1
		ORDER BY required_course_id
	`
	return s.queryEdges(ctx, "list prerequisites", query, courseID.String())
}

func (s *PostgresStore) ListAllEdges(ctx context.Context) ([]*models.Prerequisite, error) {
	query := `
		SELECT ` + edgeColumns + `
		FROM course_prerequisites
		ORDER BY course_id, required_course_id
	`
	return s.queryEdges(ctx, "list graph", query)
}

func (s *PostgresStore) queryEdges(ctx context.Context, op, query string, args ...any) ([]*models.Prerequisite, error) {
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]*models.Prerequisite, 0)
	for rows.Next() {
		var (
			edge      models.Prerequisite
			course    string
			required  string
			createdBy uuid.UUID
		)
		if err := rows.Scan(&course, &required, &edge.Mandatory, &createdBy, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan edge: %w", op, err)
		}
		edge.CourseID = id.CourseID(course)
		edge.RequiredCourseID = id.CourseID(required)
		edge.CreatedBy = id.UserID(createdBy)
		out = append(out, &edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate edges: %w", op, err)
	}
	return out, nil
}

func (s *PostgresStore) InsertOverride(ctx context.Context, override *models.Override) error {
	query := `
		INSERT INTO prerequisite_overrides (student_id, course_id, granted_by, reason, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(override.StudentID),
		override.CourseID.String(),
		uuid.UUID(override.GrantedBy),
		override.Reason,
		override.GrantedAt,
		nullTime(override.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("override already exists: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert override: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteOverride(ctx context.Context, studentID id.UserID, courseID id.CourseID) error {
	query := `
		DELETE FROM prerequisite_overrides
		WHERE student_id = $1 AND course_id = $2
	`
	res, err := s.execer().ExecContext(ctx, query, uuid.UUID(studentID), courseID.String())
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete override rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const overrideColumns = `student_id, course_id, granted_by, reason, granted_at, expires_at`

func (s *PostgresStore) FindOverride(ctx context.Context, studentID id.UserID, courseID id.CourseID) (*models.Override, error) {
	query := `
		SELECT ` + overrideColumns + `
		FROM prerequisite_overrides
		WHERE student_id = $1 AND course_id = $2
	`
	override, err := scanOverride(s.execer().QueryRowContext(ctx, query, uuid.UUID(studentID), courseID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find override: %w", err)
	}
	return override, nil
}

func (s *PostgresStore) ListOverrides(ctx context.Context, studentID id.UserID) ([]*models.Override, error) {
	query := `
		SELECT ` + overrideColumns + `
		FROM prerequisite_overrides
		WHERE student_id = $1
		ORDER BY course_id
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Override, 0)
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("list overrides: scan: %w", err)
		}
		out = append(out, override)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overrides: iterate: %w", err)
	}
	return out, nil
}

type overrideRow interface {
	Scan(dest ...any) error
}

func scanOverride(row overrideRow) (*models.Override, error) {
	var (
		override  models.Override
		studentID uuid.UUID
		courseID  string
		grantedBy uuid.UUID
		expiresAt sql.NullTime
	)
	if err := row.Scan(&studentID, &courseID, &grantedBy, &override.Reason, &override.GrantedAt, &expiresAt); err != nil {
		return nil, err
	}
	override.StudentID = id.UserID(studentID)
	override.CourseID = id.CourseID(courseID)
	override.GrantedBy = id.UserID(grantedBy)
	if expiresAt.Valid {
		t := expiresAt.Time
		override.ExpiresAt = &t
	}
	return &override, nil
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
