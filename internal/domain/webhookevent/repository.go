package webhookevent

import (
	"context"
	"time"
)

type Repository interface {
	// Seen reports whether an event id has already been recorded.
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records an event id after its effects have been applied.
	// It returns false when a concurrent delivery recorded the id first.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
