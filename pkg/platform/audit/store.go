package audit

import (
	"context"

	id "laurel/pkg/domain"
)

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	// Append adds an event to the trail.
	Append(ctx context.Context, event Event) error

	// ListByUser returns events acted by or concerning a user, newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)

	// ListBySubject returns events for a subject (certificate, course, or
	// request ID), newest first.
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
