package service

import (
	"context"
	"errors"
	"time"

	accessmodels "laurel/internal/access/models"
	"laurel/internal/policy/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// Store is the slice of the policy store the service drives.
type Store interface {
	InsertVersion(ctx context.Context, version *models.Version) error
	FindVersion(ctx context.Context, number int) (*models.Version, error)
	ActiveVersion(ctx context.Context) (*models.Version, error)
	ListVersions(ctx context.Context) ([]*models.Version, error)
	LatestNumber(ctx context.Context) (int, error)
	SetActive(ctx context.Context, number int, now time.Time) error
}

// Authorizer resolves whether a caller holds a governance permission.
// Implemented by the access service.
type Authorizer interface {
	RequirePermission(ctx context.Context, caller id.UserID, perm accessmodels.Permission) error
}

// Guard serializes policy changes. Loads, activations, and rollbacks all
// contend on one well-known key so version numbering and the single
// active version stay consistent.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// lockKey is the single guard key every policy mutation acquires.
const lockKey = "policy"

func requireUserID(userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID is required")
	}
	return nil
}

func wrapVersionErr(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "policy version not found")
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeConflict, "policy version already exists")
	case errors.Is(err, sentinel.ErrLocked):
		return dErrors.New(dErrors.CodeConflict, "a policy change is already in progress")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, op)
	}
}
