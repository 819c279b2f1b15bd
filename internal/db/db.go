package db

import (
	"context"
	"time"
)

// Store is the database facade used by the usage repository.
type Store interface {
	Pinger
	HashStore
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash reads.
type HashStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// HashIncr is a single hash field increment.
type HashIncr struct {
	Field string
	By    int64
}

// HashCounters is the outcome of an atomic hash increment.
type HashCounters struct {
	Values    []int64   // new field values, in increment order
	CreatedAt time.Time // first write to the key
}

// CounterStore increments hash counters atomically.
type CounterStore interface {
	// HIncrAtomic applies all increments to key in one server-side step, stamps
	// created/updated timestamps, sets ttl when the key has none, and returns the
	// new field values with the key's creation time.
	HIncrAtomic(ctx context.Context, key string, now time.Time, ttl time.Duration, incrs ...HashIncr) (HashCounters, error)
}
