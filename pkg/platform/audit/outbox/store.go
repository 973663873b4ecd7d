package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines persistence operations for outbox entries.
type Store interface {
	// Append inserts a new entry into the outbox.
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	// MarkProcessed stamps an entry as published.
	MarkProcessed(ctx context.Context, entryID uuid.UUID, processedAt time.Time) error

	// CountPending returns the number of unprocessed entries.
	CountPending(ctx context.Context) (int64, error)

	// DeleteProcessedBefore removes processed entries older than the cutoff.
	// Returns the number of rows deleted.
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
