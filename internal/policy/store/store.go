// Package store persists governance policy versions.
package store

import (
	"context"
	"time"

	"laurel/internal/policy/models"
)

// Store is the persistence contract for the versioned policy.
//
// Error contract:
//   - InsertVersion returns sentinel.ErrAlreadyExists for a duplicate
//     version number.
//   - FindVersion and SetActive return sentinel.ErrNotFound for an
//     unknown version number.
//   - ActiveVersion returns sentinel.ErrNotFound when no version is
//     active.
type Store interface {
	InsertVersion(ctx context.Context, version *models.Version) error
	FindVersion(ctx context.Context, number int) (*models.Version, error)
	ActiveVersion(ctx context.Context) (*models.Version, error)
	// ListVersions returns every version ordered by number ascending.
	ListVersions(ctx context.Context) ([]*models.Version, error)
	// LatestNumber returns the highest loaded version number, zero when
	// the store is empty.
	LatestNumber(ctx context.Context) (int, error)
	// SetActive atomically deactivates the currently active version and
	// activates number, stamping its activation time. The deactivated
	// version keeps its last activation time so rollback can order
	// versions by when they held office.
	SetActive(ctx context.Context, number int, now time.Time) error
}
