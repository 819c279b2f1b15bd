package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/notesearch/internal/db"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
)

// Hash field names of a usage row.
const (
	fieldWordsUsed     = "words_used"
	fieldRequestsCount = "requests_count"
)

// keyPrefix namespaces usage rows: notesearch:usage:{user}:{date}.
const keyPrefix = "notesearch:usage:"

// store is the consumer interface for usage rows (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	HIncrAtomic(ctx context.Context, key string, now time.Time, ttl time.Duration, incrs ...db.HashIncr) (db.HashCounters, error)
}

// RedisStore keeps usage rows in Redis/Valkey hashes with a TTL.
type RedisStore struct {
	store store
	ttl   time.Duration
}

// NewRedis creates a Redis-backed usage store. ttl bounds how long a day's row
// is kept (recommended: 48h).
func NewRedis(s store, ttl time.Duration) *RedisStore {
	return &RedisStore{store: s, ttl: ttl}
}

// Get returns the row for key, or a zero Record when it does not exist.
func (s *RedisStore) Get(ctx context.Context, key domusage.Key) (domusage.Record, error) {
	m, err := s.store.HGetAll(ctx, redisKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domusage.Record{Key: key}, nil
		}
		return domusage.Record{}, fmt.Errorf("usage HGETALL %s: %w", key, err)
	}
	rec, err := recordFromHash(key, m)
	if err != nil {
		return domusage.Record{}, fmt.Errorf("usage HGETALL %s: %w", key, err)
	}
	return rec, nil
}

// Increment atomically adds words and one request to the row, creating it if absent.
func (s *RedisStore) Increment(ctx context.Context, key domusage.Key, words int64, now time.Time) (domusage.Record, error) {
	c, err := s.store.HIncrAtomic(ctx, redisKey(key), now, s.ttl,
		db.HashIncr{Field: fieldWordsUsed, By: words},
		db.HashIncr{Field: fieldRequestsCount, By: 1},
	)
	if err != nil {
		return domusage.Record{}, fmt.Errorf("usage HINCRBY %s: %w", key, err)
	}
	return domusage.Record{
		Key:           key,
		WordsUsed:     c.Values[0],
		RequestsCount: c.Values[1],
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     now.UTC(),
	}, nil
}

// Reset deletes the row for key.
func (s *RedisStore) Reset(ctx context.Context, key domusage.Key) error {
	if err := s.store.Del(ctx, redisKey(key)); err != nil {
		return fmt.Errorf("usage DEL %s: %w", key, err)
	}
	return nil
}

func redisKey(k domusage.Key) string {
	return keyPrefix + k.UserID + ":" + k.Date
}

func recordFromHash(key domusage.Key, m map[string]string) (domusage.Record, error) {
	rec := domusage.Record{Key: key}
	var err error
	if rec.WordsUsed, err = parseInt(m, fieldWordsUsed); err != nil {
		return rec, err
	}
	if rec.RequestsCount, err = parseInt(m, fieldRequestsCount); err != nil {
		return rec, err
	}
	created, err := parseInt(m, db.FieldCreatedAt)
	if err != nil {
		return rec, err
	}
	updated, err := parseInt(m, db.FieldUpdatedAt)
	if err != nil {
		return rec, err
	}
	if created > 0 {
		rec.CreatedAt = time.UnixMilli(created).UTC()
	}
	if updated > 0 {
		rec.UpdatedAt = time.UnixMilli(updated).UTC()
	}
	return rec, nil
}

func parseInt(m map[string]string, field string) (int64, error) {
	raw, ok := m[field]
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return v, nil
}
