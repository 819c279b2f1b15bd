package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
)

// --- Mock ---

type mockStore struct {
	mu       sync.Mutex
	rows     map[domusage.Key]domusage.Record
	getErr   error
	incrErr  error
	incrKeys []domusage.Key
}

func newMockStore() *mockStore {
	return &mockStore{rows: make(map[domusage.Key]domusage.Record)}
}

func (m *mockStore) Get(_ context.Context, key domusage.Key) (domusage.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domusage.Record{}, m.getErr
	}
	rec, ok := m.rows[key]
	if !ok {
		return domusage.Record{Key: key}, nil
	}
	return rec, nil
}

func (m *mockStore) Increment(_ context.Context, key domusage.Key, words int64, now time.Time) (domusage.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrErr != nil {
		return domusage.Record{}, m.incrErr
	}
	rec := m.rows[key]
	if rec.CreatedAt.IsZero() {
		rec = domusage.Record{Key: key, CreatedAt: now}
	}
	rec.WordsUsed += words
	rec.RequestsCount++
	rec.UpdatedAt = now
	m.rows[key] = rec
	m.incrKeys = append(m.incrKeys, key)
	return rec, nil
}

func (m *mockStore) Reset(_ context.Context, key domusage.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, key)
	return nil
}

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, maxWords, maxRequests int64) (*Service, *mockStore) {
	t.Helper()
	p, err := quota.NewPolicy(maxWords, maxRequests)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	ms := newMockStore()
	svc := New(ms, p, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))
	return svc, ms
}

func todayKey(user string) domusage.Key {
	return domusage.Key{UserID: user, Date: "2024-06-15"}
}

// --- Tests ---

func TestCheckAndReserve_FreshUser(t *testing.T) {
	svc, _ := newTestService(t, 1000, 10)

	res, err := svc.CheckAndReserve(context.Background(), "u1", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Error("expected allowed")
	}
	if res.Remaining != 1000 {
		t.Errorf("Remaining = %d, want 1000", res.Remaining)
	}
}

func TestCheckAndReserve_DeniesWithoutMutation(t *testing.T) {
	svc, ms := newTestService(t, 100, 0)
	ms.rows[todayKey("u1")] = domusage.Record{Key: todayKey("u1"), WordsUsed: 90, RequestsCount: 4, CreatedAt: fixedNow}

	res, err := svc.CheckAndReserve(context.Background(), "u1", 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected denial")
	}
	if res.Reason != quota.ReasonWords {
		t.Errorf("Reason = %q", res.Reason)
	}
	rec := ms.rows[todayKey("u1")]
	if rec.WordsUsed != 90 || rec.RequestsCount != 4 {
		t.Errorf("counters mutated: %+v", rec)
	}
	if len(ms.incrKeys) != 0 {
		t.Errorf("Increment called %d times", len(ms.incrKeys))
	}
}

func TestCheckAndReserve_RequestLimit(t *testing.T) {
	svc, ms := newTestService(t, 0, 2)
	ms.rows[todayKey("u1")] = domusage.Record{Key: todayKey("u1"), RequestsCount: 2, CreatedAt: fixedNow}

	res, err := svc.CheckAndReserve(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed || res.Reason != quota.ReasonRequests {
		t.Errorf("res = %+v, want request denial", res)
	}
	if res.Remaining != -1 {
		t.Errorf("Remaining = %d, want -1 (words unlimited)", res.Remaining)
	}
}

func TestCheckAndReserve_Errors(t *testing.T) {
	svc, ms := newTestService(t, 100, 0)

	if _, err := svc.CheckAndReserve(context.Background(), "", 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty user: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CheckAndReserve(context.Background(), "u1", -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("negative estimate: expected ErrInvalidInput, got %v", err)
	}

	ms.getErr = errors.New("store down")
	if _, err := svc.CheckAndReserve(context.Background(), "u1", 1); err == nil {
		t.Error("expected store error")
	}
}

func TestCommit_CreatesAndIncrements(t *testing.T) {
	svc, ms := newTestService(t, 1000, 0)

	rec, err := svc.Commit(context.Background(), "u1", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.WordsUsed != 42 || rec.RequestsCount != 1 {
		t.Errorf("rec = %+v", rec)
	}
	if svc.Remaining(rec) != 958 {
		t.Errorf("Remaining = %d, want 958", svc.Remaining(rec))
	}
	if ms.incrKeys[0] != todayKey("u1") {
		t.Errorf("key = %+v", ms.incrKeys[0])
	}
}

func TestCommit_StoreError(t *testing.T) {
	svc, ms := newTestService(t, 0, 0)
	ms.incrErr = errors.New("write failed")
	if _, err := svc.Commit(context.Background(), "u1", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestCommit_Concurrent(t *testing.T) {
	const n = 100
	svc, ms := newTestService(t, 0, 0)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Commit(context.Background(), "u1", 3); err != nil {
				t.Errorf("Commit: %v", err)
			}
		}()
	}
	wg.Wait()

	rec := ms.rows[todayKey("u1")]
	if rec.WordsUsed != 3*n || rec.RequestsCount != n {
		t.Errorf("rec = %+v, want words=%d requests=%d", rec, 3*n, n)
	}
}

func TestReport(t *testing.T) {
	svc, ms := newTestService(t, 500, 20)
	ms.rows[todayKey("u1")] = domusage.Record{Key: todayKey("u1"), WordsUsed: 120, RequestsCount: 5, CreatedAt: fixedNow}

	r, err := svc.Report(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.RemainingWords() != 380 || r.RemainingRequests() != 15 {
		t.Errorf("remaining = %d/%d", r.RemainingWords(), r.RemainingRequests())
	}
	want := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	if !r.ResetsAt().Equal(want) {
		t.Errorf("ResetsAt = %v, want %v", r.ResetsAt(), want)
	}
}

func TestReset(t *testing.T) {
	svc, ms := newTestService(t, 500, 20)
	ms.rows[todayKey("u1")] = domusage.Record{Key: todayKey("u1"), WordsUsed: 500, RequestsCount: 20, CreatedAt: fixedNow}

	if err := svc.Reset(context.Background(), "u1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	r, err := svc.Report(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if r.RemainingWords() != 500 || r.RemainingRequests() != 20 {
		t.Errorf("remaining after reset = %d/%d", r.RemainingWords(), r.RemainingRequests())
	}
}

func TestReset_EmptyUser(t *testing.T) {
	svc, _ := newTestService(t, 500, 20)
	if err := svc.Reset(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user")
	}
}
