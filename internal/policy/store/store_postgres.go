package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"laurel/internal/policy/models"
	"laurel/internal/sentinel"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists policy versions in PostgreSQL. The raw YAML
// source is the stored form; documents are re-parsed on read so the bytes
// an operator loaded are exactly the bytes history returns. A partial
// unique index keeps at most one row active.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed policy store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed policy store bound to a
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

const versionColumns = `version, source, checksum, created_at, activated_at, active`

func (s *PostgresStore) InsertVersion(ctx context.Context, version *models.Version) error {
	query := `
		INSERT INTO policy_versions (` + versionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		version.Number,
		string(version.Source),
		version.Checksum,
		version.CreatedAt,
		version.ActivatedAt,
		version.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("policy version already exists: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert policy version: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindVersion(ctx context.Context, number int) (*models.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM policy_versions
		WHERE version = $1
	`
	version, err := scanVersion(s.execer().QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find policy version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) ActiveVersion(ctx context.Context) (*models.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM policy_versions
		WHERE active = TRUE
	`
	version, err := scanVersion(s.execer().QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active policy version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) ListVersions(ctx context.Context) ([]*models.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM policy_versions
		ORDER BY version
	`
	rows, err := s.execer().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list policy versions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only iterator

	var out []*models.Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy version: %w", err)
		}
		out = append(out, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy versions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) LatestNumber(ctx context.Context) (int, error) {
	query := `SELECT COALESCE(MAX(version), 0) FROM policy_versions`

	var latest int
	if err := s.execer().QueryRowContext(ctx, query).Scan(&latest); err != nil {
		return 0, fmt.Errorf("latest policy version: %w", err)
	}
	return latest, nil
}

func (s *PostgresStore) SetActive(ctx context.Context, number int, now time.Time) error {
	if s.tx != nil {
		return setActive(ctx, s.tx, number, now)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin policy activation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := setActive(ctx, tx, number, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit policy activation: %w", err)
	}
	return nil
}

func setActive(ctx context.Context, exec dbExecutor, number int, now time.Time) error {
	if _, err := exec.ExecContext(ctx,
		`UPDATE policy_versions SET active = FALSE WHERE active = TRUE`); err != nil {
		return fmt.Errorf("deactivate policy version: %w", err)
	}

	res, err := exec.ExecContext(ctx,
		`UPDATE policy_versions SET active = TRUE, activated_at = $2 WHERE version = $1`,
		number, now)
	if err != nil {
		return fmt.Errorf("activate policy version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate policy version: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type row interface {
	Scan(dest ...any) error
}

func scanVersion(r row) (*models.Version, error) {
	var (
		version     models.Version
		source      string
		activatedAt sql.NullTime
	)
	if err := r.Scan(
		&version.Number,
		&source,
		&version.Checksum,
		&version.CreatedAt,
		&activatedAt,
		&version.Active,
	); err != nil {
		return nil, err
	}

	doc, err := models.ParseDocument([]byte(source))
	if err != nil {
		return nil, fmt.Errorf("stored policy document: %w", err)
	}
	version.Document = *doc
	version.Source = []byte(source)
	if activatedAt.Valid {
		version.ActivatedAt = &activatedAt.Time
	}
	return &version, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
