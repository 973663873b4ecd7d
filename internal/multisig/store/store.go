// Package store persists approval requests and their audit trails.
package store

import (
	"context"
	"time"

	"laurel/internal/multisig/models"
	id "laurel/pkg/domain"
)

// Store is the persistence contract for approval requests.
//
// Error contract:
//   - InsertRequest returns sentinel.ErrAlreadyExists for a duplicate
//     request ID.
//   - FindRequest and UpdateRequest return sentinel.ErrNotFound for an
//     unknown request.
//   - Audit entries are append-only: there is no update or delete.
type Store interface {
	InsertRequest(ctx context.Context, req *models.Request) error
	FindRequest(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	// UpdateRequest replaces the stored record. Transition preconditions
	// live on the model; callers mutate a copy and write it back while
	// holding the request's exclusion lock.
	UpdateRequest(ctx context.Context, req *models.Request) error
	// ListPendingBefore returns up to limit Pending requests whose deadline
	// has passed the cutoff, ordered by deadline then request ID so sweeps
	// are deterministic.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Request, error)

	AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error
	// ListAuditTrail returns a request's audit entries in append order.
	ListAuditTrail(ctx context.Context, requestID id.RequestID) ([]*models.AuditEntry, error)
}
