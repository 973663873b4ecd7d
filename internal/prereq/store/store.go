package store

import (
	"context"

	"laurel/internal/prereq/models"
	id "laurel/pkg/domain"
)

// Store persists prerequisite edges and overrides.
//
// Error Contract:
// - Return sentinel.ErrNotFound when the edge or override does not exist
// - Return sentinel.ErrAlreadyExists when inserting a duplicate
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	// InsertEdge persists a new prerequisite edge. The (course, required)
	// pair is unique.
	InsertEdge(ctx context.Context, edge *models.Prerequisite) error

	// DeleteEdge removes one edge.
	DeleteEdge(ctx context.Context, courseID, requiredID id.CourseID) error

	// ListEdges returns the direct requirements of one course, ordered by
	// required course ID.
	ListEdges(ctx context.Context, courseID id.CourseID) ([]*models.Prerequisite, error)

	// ListAllEdges returns every edge in the graph, ordered by
	// (course, required). Traversals load the whole graph in one read so
	// cycle checks and closures see a consistent snapshot; the graph size
	// cap keeps this bounded.
	ListAllEdges(ctx context.Context) ([]*models.Prerequisite, error)

	// InsertOverride persists a new override. The (student, course) pair is
	// unique; re-granting requires an explicit revoke first.
	InsertOverride(ctx context.Context, override *models.Override) error

	// DeleteOverride removes one override.
	DeleteOverride(ctx context.Context, studentID id.UserID, courseID id.CourseID) error

	// FindOverride retrieves the override a student holds for one course.
	FindOverride(ctx context.Context, studentID id.UserID, courseID id.CourseID) (*models.Override, error)

	// ListOverrides returns all overrides held by a student, ordered by
	// course ID.
	ListOverrides(ctx context.Context, studentID id.UserID) ([]*models.Override, error)
}
