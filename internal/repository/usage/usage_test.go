package usage

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/notesearch/internal/db"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
)

// counterStore is the contract shared by all usage stores.
type counterStore interface {
	Get(ctx context.Context, key domusage.Key) (domusage.Record, error)
	Increment(ctx context.Context, key domusage.Key, words int64, now time.Time) (domusage.Record, error)
	Reset(ctx context.Context, key domusage.Key) error
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testKey(user string) domusage.Key {
	return domusage.Key{UserID: user, Date: "2024-05-01"}
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]counterStore {
	return map[string]counterStore{
		"memory": NewMemory(),
		"sqlite": newSQLite(t),
		"redis":  NewRedis(newFakeHashStore(), 48*time.Hour),
	}
}

func TestStores_GetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.Get(context.Background(), testKey("nobody"))
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if rec.WordsUsed != 0 || rec.RequestsCount != 0 {
				t.Errorf("rec = %+v, want zero counters", rec)
			}
			if !rec.CreatedAt.IsZero() {
				t.Errorf("CreatedAt = %v, want zero", rec.CreatedAt)
			}
		})
	}
}

func TestStores_IncrementCreatesRow(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec, err := s.Increment(ctx, testKey("u1"), 25, testNow)
			if err != nil {
				t.Fatalf("Increment: %v", err)
			}
			if rec.WordsUsed != 25 || rec.RequestsCount != 1 {
				t.Errorf("after first increment = %+v", rec)
			}

			rec, err = s.Increment(ctx, testKey("u1"), 5, testNow.Add(time.Minute))
			if err != nil {
				t.Fatalf("Increment: %v", err)
			}
			if rec.WordsUsed != 30 || rec.RequestsCount != 2 {
				t.Errorf("after second increment = %+v", rec)
			}
			if !rec.CreatedAt.Equal(testNow) {
				t.Errorf("increment CreatedAt = %v, want %v", rec.CreatedAt, testNow)
			}

			got, err := s.Get(ctx, testKey("u1"))
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.WordsUsed != 30 || got.RequestsCount != 2 {
				t.Errorf("Get = %+v", got)
			}
			if !got.CreatedAt.Equal(testNow) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testNow)
			}
			if !got.UpdatedAt.Equal(testNow.Add(time.Minute)) {
				t.Errorf("UpdatedAt = %v", got.UpdatedAt)
			}
		})
	}
}

func TestStores_KeysIsolated(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Increment(ctx, testKey("a"), 10, testNow); err != nil {
				t.Fatal(err)
			}
			next := domusage.Key{UserID: "a", Date: "2024-05-02"}
			if _, err := s.Increment(ctx, next, 3, testNow.Add(24*time.Hour)); err != nil {
				t.Fatal(err)
			}
			other, _ := s.Get(ctx, testKey("b"))
			if other.WordsUsed != 0 {
				t.Errorf("user b words = %d, want 0", other.WordsUsed)
			}
			day2, _ := s.Get(ctx, next)
			if day2.WordsUsed != 3 || day2.RequestsCount != 1 {
				t.Errorf("day2 = %+v", day2)
			}
		})
	}
}

func TestStores_Reset(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Increment(ctx, testKey("a"), 10, testNow); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Increment(ctx, testKey("b"), 4, testNow); err != nil {
				t.Fatal(err)
			}
			if err := s.Reset(ctx, testKey("a")); err != nil {
				t.Fatalf("Reset: %v", err)
			}
			a, _ := s.Get(ctx, testKey("a"))
			if a.WordsUsed != 0 || a.RequestsCount != 0 {
				t.Errorf("a after reset = %+v", a)
			}
			b, _ := s.Get(ctx, testKey("b"))
			if b.WordsUsed != 4 {
				t.Errorf("b words = %d, want 4", b.WordsUsed)
			}
			if err := s.Reset(ctx, testKey("missing")); err != nil {
				t.Errorf("Reset missing: %v", err)
			}
		})
	}
}

func TestStores_ConcurrentIncrements(t *testing.T) {
	const n = 50
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.Increment(ctx, testKey("hot"), 7, testNow); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("Increment: %v", err)
			}

			rec, err := s.Get(ctx, testKey("hot"))
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if rec.WordsUsed != 7*n || rec.RequestsCount != n {
				t.Errorf("rec = %+v, want words=%d requests=%d", rec, 7*n, n)
			}
		})
	}
}

func TestMemory_EvictsPastDays(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	old := domusage.Key{UserID: "u", Date: "2024-04-30"}
	if _, err := s.Increment(ctx, old, 1, testNow.Add(-24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Increment(ctx, testKey("u"), 1, testNow); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.rows[old]; ok {
		t.Error("expected past-day row to be evicted")
	}
}

func TestRedis_Keying(t *testing.T) {
	fs := newFakeHashStore()
	s := NewRedis(fs, 48*time.Hour)
	if _, err := s.Increment(context.Background(), testKey("u1"), 4, testNow); err != nil {
		t.Fatal(err)
	}
	if _, ok := fs.rows["notesearch:usage:u1:2024-05-01"]; !ok {
		t.Errorf("rows = %v, want notesearch:usage:u1:2024-05-01", fs.rows)
	}
	if fs.lastTTL != 48*time.Hour {
		t.Errorf("ttl = %v, want 48h", fs.lastTTL)
	}
}

func TestRedis_StoreErrors(t *testing.T) {
	fs := newFakeHashStore()
	fs.err = errors.New("connection reset")
	s := NewRedis(fs, time.Hour)

	if _, err := s.Get(context.Background(), testKey("u")); err == nil {
		t.Error("Get: expected error")
	}
	if _, err := s.Increment(context.Background(), testKey("u"), 1, testNow); err == nil {
		t.Error("Increment: expected error")
	}
}

func TestRedis_CorruptRow(t *testing.T) {
	fs := newFakeHashStore()
	fs.rows["notesearch:usage:u:2024-05-01"] = map[string]string{fieldWordsUsed: "lots"}
	s := NewRedis(fs, time.Hour)
	if _, err := s.Get(context.Background(), testKey("u")); err == nil {
		t.Fatal("expected parse error")
	}
}

// fakeHashStore emulates the Lua counter script under a mutex.
type fakeHashStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]string
	lastTTL time.Duration
	err     error
}

func newFakeHashStore() *fakeHashStore {
	return &fakeHashStore{rows: make(map[string]map[string]string)}
}

func (f *fakeHashStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

func (f *fakeHashStore) HIncrAtomic(
	_ context.Context, key string, now time.Time, ttl time.Duration, incrs ...db.HashIncr,
) (db.HashCounters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return db.HashCounters{}, f.err
	}
	row, ok := f.rows[key]
	if !ok {
		row = map[string]string{db.FieldCreatedAt: itoa(now.UnixMilli())}
		f.rows[key] = row
	}
	row[db.FieldUpdatedAt] = itoa(now.UnixMilli())
	out := make([]int64, len(incrs))
	for i, in := range incrs {
		cur, _ := parseInt(row, in.Field)
		cur += in.By
		row[in.Field] = itoa(cur)
		out[i] = cur
	}
	f.lastTTL = ttl
	created, _ := parseInt(row, db.FieldCreatedAt)
	return db.HashCounters{Values: out, CreatedAt: time.UnixMilli(created).UTC()}, nil
}

func (f *fakeHashStore) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.rows, key)
	return nil
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
