package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"laurel/internal/access/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"

	"github.com/google/uuid"
)

// PostgresStore persists role assignments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed role store bound to a transaction.
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

func (s *PostgresStore) Upsert(ctx context.Context, assignment *models.RoleAssignment) error {
	if assignment == nil {
		return fmt.Errorf("role assignment is required")
	}
	query := `
		INSERT INTO role_assignments (user_id, role, granted_by, granted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET role = EXCLUDED.role,
		    granted_by = EXCLUDED.granted_by,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(assignment.UserID),
		string(assignment.Role),
		uuid.UUID(assignment.GrantedBy),
		assignment.GrantedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert role assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID id.UserID) (*models.RoleAssignment, error) {
	query := `
		SELECT user_id, role, granted_by, granted_at, updated_at
		FROM role_assignments
		WHERE user_id = $1
	`
	assignment, err := scanAssignment(s.execer().QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find role assignment: %w", err)
	}
	return assignment, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	query := `DELETE FROM role_assignments WHERE user_id = $1`

	res, err := s.execer().ExecContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete role assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.RoleAssignment, error) {
	query := `
		SELECT user_id, role, granted_by, granted_at, updated_at
		FROM role_assignments
		ORDER BY granted_at
	`
	rows, err := s.execer().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.RoleAssignment
	for rows.Next() {
		assignment, err := scanAssignmentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role assignments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByRole(ctx context.Context, role models.Role) (int, error) {
	query := `SELECT COUNT(*) FROM role_assignments WHERE role = $1`

	var count int
	if err := s.execer().QueryRowContext(ctx, query, string(role)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count role assignments: %w", err)
	}
	return count, nil
}

func scanAssignment(row *sql.Row) (*models.RoleAssignment, error) {
	var (
		userID    uuid.UUID
		role      string
		grantedBy uuid.UUID
		a         models.RoleAssignment
	)
	if err := row.Scan(&userID, &role, &grantedBy, &a.GrantedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.UserID = id.UserID(userID)
	a.Role = models.Role(role)
	a.GrantedBy = id.UserID(grantedBy)
	return &a, nil
}

func scanAssignmentRow(rows *sql.Rows) (*models.RoleAssignment, error) {
	var (
		userID    uuid.UUID
		role      string
		grantedBy uuid.UUID
		a         models.RoleAssignment
	)
	if err := rows.Scan(&userID, &role, &grantedBy, &a.GrantedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan role assignment: %w", err)
	}
	a.UserID = id.UserID(userID)
	a.Role = models.Role(role)
	a.GrantedBy = id.UserID(grantedBy)
	return &a, nil
}
