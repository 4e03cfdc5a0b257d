package match

import (
	"context"
	"time"
)

// Repository is the canonical match store. Upsert is the only mutation path.
type Repository interface {
	Get(ctx context.Context, id string) (Match, bool, error)
	List(ctx context.Context) ([]Match, error)
	ListByStatus(ctx context.Context, status string) ([]Match, error)

	// Upsert creates or replaces the record for m.ID atomically. The store
	// keeps LastSyncedAt monotonically non-decreasing and never overwrites
	// an existing FinalResult.
	Upsert(ctx context.Context, m Match) error

	// RecordSyncError bumps the record's error counter and message. It is a
	// diagnostic side channel: callers never let its failure fail a sync.
	RecordSyncError(ctx context.Context, id, message string, at time.Time) error
}
