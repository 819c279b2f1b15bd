package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
)

func TestNewKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))
	k, err := NewKey(" user-1 ", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.UserID != "user-1" {
		t.Errorf("UserID = %q", k.UserID)
	}
	// 23:30 at UTC-2 is 01:30 next day in UTC.
	if k.Date != "2024-03-10" {
		t.Errorf("Date = %q, want 2024-03-10", k.Date)
	}
	if k.String() != "user-1:2024-03-10" {
		t.Errorf("String() = %q", k.String())
	}
}

func TestNewKey_EmptyUser(t *testing.T) {
	if _, err := NewKey("  ", time.Now()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReport_Remaining(t *testing.T) {
	p, _ := quota.NewPolicy(1000, 10)
	rec := Record{WordsUsed: 400, RequestsCount: 3}
	r := NewReport(rec, p, time.Time{})

	if r.RemainingWords() != 600 {
		t.Errorf("RemainingWords() = %d, want 600", r.RemainingWords())
	}
	if r.RemainingRequests() != 7 {
		t.Errorf("RemainingRequests() = %d, want 7", r.RemainingRequests())
	}
}

func TestReport_Unlimited(t *testing.T) {
	r := NewReport(Record{WordsUsed: 5}, quota.Policy{}, time.Time{})
	if r.RemainingWords() != -1 || r.RemainingRequests() != -1 {
		t.Errorf("remaining = %d/%d, want -1/-1", r.RemainingWords(), r.RemainingRequests())
	}
}

func TestNextReset(t *testing.T) {
	got := NextReset(time.Date(2024, 12, 31, 15, 0, 0, 0, time.UTC))
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextReset = %v, want %v", got, want)
	}
}
