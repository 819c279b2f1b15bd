package usage

import (
	"context"
	"sync"
	"time"

	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
)

// MemoryStore keeps usage rows in process memory. Rows from past days are
// dropped on the next write.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[domusage.Key]domusage.Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{rows: make(map[domusage.Key]domusage.Record)}
}

// Get returns the row for key, or a zero Record when it does not exist.
func (s *MemoryStore) Get(_ context.Context, key domusage.Key) (domusage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rows[key]; ok {
		return rec, nil
	}
	return domusage.Record{Key: key}, nil
}

// Increment adds words and one request to the row, creating it if absent.
func (s *MemoryStore) Increment(_ context.Context, key domusage.Key, words int64, now time.Time) (domusage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[key]
	if !ok {
		s.evictBefore(key.Date)
		rec = domusage.Record{Key: key, CreatedAt: now.UTC()}
	}
	rec.WordsUsed += words
	rec.RequestsCount++
	rec.UpdatedAt = now.UTC()
	s.rows[key] = rec
	return rec, nil
}

// Reset deletes the row for key.
func (s *MemoryStore) Reset(_ context.Context, key domusage.Key) error {
	s.mu.Lock()
	delete(s.rows, key)
	s.mu.Unlock()
	return nil
}

// evictBefore drops rows older than date. Caller holds mu.
func (s *MemoryStore) evictBefore(date string) {
	for k := range s.rows {
		if k.Date < date {
			delete(s.rows, k)
		}
	}
}
