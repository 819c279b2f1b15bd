package notesearch

import (
	"context"
	"fmt"
	"time"
)

// UsageReport is a user's AI usage for the current UTC day.
type UsageReport struct {
	Date              string
	WordsUsed         int64
	RequestsCount     int64
	MaxWordsPerDay    int64 // 0 = unlimited
	MaxRequestsPerDay int64 // 0 = unlimited
	RemainingWords    int64 // -1 = unlimited
	RemainingRequests int64 // -1 = unlimited
	ResetsAt          time.Time
}

// Usage returns today's usage for userID.
func (c *Client) Usage(ctx context.Context, userID string) (r UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: opUsage, userID: userID, start: start, err: err}) }()

	report, err := c.usageSvc.Report(ctx, userID)
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage: %w", err)
	}
	rec := report.Record()
	p := report.Policy()
	return UsageReport{
		Date:              rec.Key.Date,
		WordsUsed:         rec.WordsUsed,
		RequestsCount:     rec.RequestsCount,
		MaxWordsPerDay:    p.MaxWordsPerDay(),
		MaxRequestsPerDay: p.MaxRequestsPerDay(),
		RemainingWords:    report.RemainingWords(),
		RemainingRequests: report.RemainingRequests(),
		ResetsAt:          report.ResetsAt(),
	}, nil
}

// ResetUsage clears today's counters for userID.
func (c *Client) ResetUsage(ctx context.Context, userID string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: opResetUsage, userID: userID, start: start, err: err}) }()

	if err = c.usageSvc.Reset(ctx, userID); err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	return nil
}
