package service

import (
	"context"
	"errors"
	"time"

	accessmodels "laurel/internal/access/models"
	"laurel/internal/multisig/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// RequestStore is the persistence contract the coordinator needs.
// Implemented by the multisig store.
type RequestStore interface {
	InsertRequest(ctx context.Context, req *models.Request) error
	FindRequest(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	UpdateRequest(ctx context.Context, req *models.Request) error
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Request, error)
	AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error
	ListAuditTrail(ctx context.Context, requestID id.RequestID) ([]*models.AuditEntry, error)
}

// Authorizer resolves whether a caller holds a governance permission.
// Implemented by the access service.
type Authorizer interface {
	RequirePermission(ctx context.Context, caller id.UserID, perm accessmodels.Permission) error
}

// PolicySource supplies the quorum rule for an operation category at
// proposal time. The rule is copied into the request and never consulted
// again, so policy changes cannot invalidate in-flight requests.
// Implemented by the policy service.
type PolicySource interface {
	QuorumRule(ctx context.Context, kind models.OperationKind) (models.QuorumConfig, error)
}

// Executor runs approved operations against the certificate store. One
// method per operation kind keeps the dispatch closed: adding a kind
// without a handler does not compile. Implemented by an adapter over the
// certificate and expiry services.
type Executor interface {
	RevokeCertificate(ctx context.Context, actor id.UserID, certificateID id.CertificateID, reason string) error
	ExpireBatch(ctx context.Context, certificateIDs []id.CertificateID) error
	OverrideMetadata(ctx context.Context, actor id.UserID, certificateID id.CertificateID, newURI, reason string) error
	ApplyRenewal(ctx context.Context, certificateID id.CertificateID, newExpiry time.Time) error
}

// Guard serializes mutations per request. The lock key is the request ID,
// so signatures, execution, and rejection of the same request never
// interleave while unrelated requests proceed concurrently.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func requireUserID(userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	return nil
}

func requireRequestID(requestID id.RequestID) error {
	if requestID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "request ID required")
	}
	return nil
}

func wrapRequestErr(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "approval request not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeConflict, "approval request already exists")
	case errors.Is(err, sentinel.ErrLocked):
		return dErrors.New(dErrors.CodeConflict, "approval request is being modified by a concurrent operation")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
