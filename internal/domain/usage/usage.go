package usage

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
)

// DateLayout is the calendar-day key format. Days are UTC.
const DateLayout = "2006-01-02"

// Key identifies one user's counters for one day.
type Key struct {
	UserID string
	Date   string
}

// NewKey builds the key for userID on the UTC day containing at.
func NewKey(userID string, at time.Time) (Key, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Key{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return Key{UserID: userID, Date: at.UTC().Format(DateLayout)}, nil
}

func (k Key) String() string { return k.UserID + ":" + k.Date }

// Record is the persisted per-user per-day counter row.
// A zero Record (zero timestamps) means no row exists yet.
type Record struct {
	Key           Key
	WordsUsed     int64
	RequestsCount int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Report is the usage snapshot returned to the caller.
type Report struct {
	record   Record
	policy   quota.Policy
	resetsAt time.Time
}

// NewReport creates a usage report for rec under policy p.
func NewReport(rec Record, p quota.Policy, resetsAt time.Time) Report {
	return Report{record: rec, policy: p, resetsAt: resetsAt}
}

// Record returns the counters.
func (r *Report) Record() Record { return r.record }

// Policy returns the active quota policy.
func (r *Report) Policy() quota.Policy { return r.policy }

// RemainingWords returns the words left today, -1 when unlimited.
func (r *Report) RemainingWords() int64 {
	return quota.Remaining(r.policy.MaxWordsPerDay(), r.record.WordsUsed)
}

// RemainingRequests returns the requests left today, -1 when unlimited.
func (r *Report) RemainingRequests() int64 {
	return quota.Remaining(r.policy.MaxRequestsPerDay(), r.record.RequestsCount)
}

// ResetsAt returns the start of the next UTC day.
func (r *Report) ResetsAt() time.Time { return r.resetsAt }

// NextReset returns midnight UTC following at.
func NextReset(at time.Time) time.Time {
	y, m, d := at.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
