package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"laurel/internal/multisig/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists approval requests in PostgreSQL. The operation
// payload and signer sets travel as JSONB; the audit trail is an
// append-only table ordered by sequence number.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a PostgreSQL-backed request store bound to a
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

func (s *PostgresStore) InsertRequest(ctx context.Context, req *models.Request) error {
	operation, signers, signedBy, err := encodeRequest(req)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO multisig_requests (request_id, operation, proposer, threshold, signers, signed_by, status, created_at, deadline, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.execer().ExecContext(ctx, query,
		uuid.UUID(req.ID),
		operation,
		uuid.UUID(req.Proposer),
		req.Threshold,
		signers,
		signedBy,
		string(req.Status),
		req.CreatedAt,
		req.Deadline,
		req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("request already exists: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

const requestColumns = `request_id, operation, proposer, threshold, signers, signed_by, status, created_at, deadline, updated_at`

func (s *PostgresStore) FindRequest(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM multisig_requests
		WHERE request_id = $1
	`
	req, err := scanRequest(s.execer().QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) UpdateRequest(ctx context.Context, req *models.Request) error {
	operation, signers, signedBy, err := encodeRequest(req)
	if err != nil {
		return err
	}
	query := `
		UPDATE multisig_requests
		SET operation = $2, proposer = $3, threshold = $4, signers = $5, signed_by = $6, status = $7, created_at = $8, deadline = $9, updated_at = $10
		WHERE request_id = $1
	`
	res, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(req.ID),
		operation,
		uuid.UUID(req.Proposer),
		req.Threshold,
		signers,
		signedBy,
		string(req.Status),
		req.CreatedAt,
		req.Deadline,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM multisig_requests
		WHERE status = $1 AND deadline < $2
		ORDER BY deadline, request_id
		LIMIT $3
	`
	rows, err := s.execer().QueryContext(ctx, query, string(models.StatusPending), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list pending requests: scan: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending requests: iterate: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO multisig_audit_entries (request_id, actor, action, note, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer().ExecContext(ctx, query,
		uuid.UUID(entry.RequestID),
		uuid.UUID(entry.Actor),
		string(entry.Action),
		entry.Note,
		entry.Fingerprint,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditTrail(ctx context.Context, requestID id.RequestID) ([]*models.AuditEntry, error) {
	query := `
		SELECT request_id, actor, action, note, fingerprint, created_at
		FROM multisig_audit_entries
		WHERE request_id = $1
		ORDER BY seq
	`
	rows, err := s.execer().QueryContext(ctx, query, uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AuditEntry, 0)
	for rows.Next() {
		var (
			entry     models.AuditEntry
			requestID uuid.UUID
			actor     uuid.UUID
			action    string
		)
		if err := rows.Scan(&requestID, &actor, &action, &entry.Note, &entry.Fingerprint, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("list audit trail: scan: %w", err)
		}
		entry.RequestID = id.RequestID(requestID)
		entry.Actor = id.UserID(actor)
		entry.Action = models.AuditAction(action)
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit trail: iterate: %w", err)
	}
	return out, nil
}

// encodeRequest serializes the JSONB-bound fields of a request.
func encodeRequest(req *models.Request) (operation, signers, signedBy []byte, err error) {
	operation, err = json.Marshal(req.Operation)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode operation: %w", err)
	}
	signers, err = json.Marshal(req.Signers)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode signers: %w", err)
	}
	signedBy, err = json.Marshal(req.SignedBy)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode signed_by: %w", err)
	}
	return operation, signers, signedBy, nil
}

type requestRow interface {
	Scan(dest ...any) error
}

func scanRequest(row requestRow) (*models.Request, error) {
	var (
		req       models.Request
		requestID uuid.UUID
		operation []byte
		proposer  uuid.UUID
		signers   []byte
		signedBy  []byte
		status    string
	)
	if err := row.Scan(&requestID, &operation, &proposer, &req.Threshold, &signers, &signedBy, &status, &req.CreatedAt, &req.Deadline, &req.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(operation, &req.Operation); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	if err := json.Unmarshal(signers, &req.Signers); err != nil {
		return nil, fmt.Errorf("decode signers: %w", err)
	}
	if err := json.Unmarshal(signedBy, &req.SignedBy); err != nil {
		return nil, fmt.Errorf("decode signed_by: %w", err)
	}
	req.ID = id.RequestID(requestID)
	req.Proposer = id.UserID(proposer)
	req.Status = models.RequestStatus(status)
	return &req, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
