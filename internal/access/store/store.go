package store

import (
	"context"

	"laurel/internal/access/models"
	id "laurel/pkg/domain"
)

// Store persists role assignments.
//
// Error Contract:
// - Return sentinel.ErrNotFound when the requested assignment does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	Upsert(ctx context.Context, assignment *models.RoleAssignment) error
	Find(ctx context.Context, userID id.UserID) (*models.RoleAssignment, error)
	Delete(ctx context.Context, userID id.UserID) error
	List(ctx context.Context) ([]*models.RoleAssignment, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}
