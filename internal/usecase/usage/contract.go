package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
)

// Store persists per-user per-day counters. Increment must be atomic per key.
type Store interface {
	Get(ctx context.Context, key domusage.Key) (domusage.Record, error)
	Increment(ctx context.Context, key domusage.Key, words int64, now time.Time) (domusage.Record, error)
	Reset(ctx context.Context, key domusage.Key) error
}
