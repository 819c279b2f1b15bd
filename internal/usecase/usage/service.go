package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
	"github.com/kailas-cloud/notesearch/internal/logger"
	"github.com/kailas-cloud/notesearch/internal/metrics"
)

// Service is the usage accountant: quota checks before an AI call and counter
// commits after a successful one.
type Service struct {
	store  Store
	policy quota.Policy
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(store Store, policy quota.Policy, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: policy,
		now:    time.Now,
		logger: log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy returns the configured quota policy.
func (s *Service) Policy() quota.Policy { return s.policy }

// CheckAndReserve reports whether userID may spend estimatedWords more today.
// It never mutates stored counters.
func (s *Service) CheckAndReserve(ctx context.Context, userID string, estimatedWords int) (quota.Reservation, error) {
	if estimatedWords < 0 {
		return quota.Reservation{}, fmt.Errorf("%w: estimated words must be >= 0", domain.ErrInvalidInput)
	}
	key, err := domusage.NewKey(userID, s.now())
	if err != nil {
		return quota.Reservation{}, err
	}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return quota.Reservation{}, fmt.Errorf("read usage: %w", err)
	}

	res := s.policy.Evaluate(rec.WordsUsed, rec.RequestsCount, int64(estimatedWords))
	if !res.Allowed {
		logger.FromContext(ctx, s.logger).Info("quota denied",
			zap.String("user_id", key.UserID),
			zap.String("reason", string(res.Reason)),
			zap.Int64("words_used", rec.WordsUsed),
			zap.Int64("requests_count", rec.RequestsCount),
			zap.Int("estimated_words", estimatedWords),
		)
	}
	return res, nil
}

// Commit adds actualWords and one request to today's counters for userID.
// A missing row is created. Returns the updated record.
func (s *Service) Commit(ctx context.Context, userID string, actualWords int) (domusage.Record, error) {
	if actualWords < 0 {
		return domusage.Record{}, fmt.Errorf("%w: actual words must be >= 0", domain.ErrInvalidInput)
	}
	now := s.now()
	key, err := domusage.NewKey(userID, now)
	if err != nil {
		return domusage.Record{}, err
	}
	rec, err := s.store.Increment(ctx, key, int64(actualWords), now)
	if err != nil {
		return domusage.Record{}, fmt.Errorf("commit usage: %w", err)
	}
	metrics.UsageWordsTotal.Add(float64(actualWords))
	return rec, nil
}

// Remaining returns the words left for rec under the policy, -1 when unlimited.
func (s *Service) Remaining(rec domusage.Record) int64 {
	return quota.Remaining(s.policy.MaxWordsPerDay(), rec.WordsUsed)
}

// Report returns today's usage snapshot for userID.
func (s *Service) Report(ctx context.Context, userID string) (domusage.Report, error) {
	now := s.now()
	key, err := domusage.NewKey(userID, now)
	if err != nil {
		return domusage.Report{}, err
	}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("read usage: %w", err)
	}
	return domusage.NewReport(rec, s.policy, domusage.NextReset(now)), nil
}

// Reset clears today's counters for userID.
func (s *Service) Reset(ctx context.Context, userID string) error {
	key, err := domusage.NewKey(userID, s.now())
	if err != nil {
		return err
	}
	if err := s.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	logger.FromContext(ctx, s.logger).Info("usage reset", zap.String("user_id", key.UserID), zap.String("date", key.Date))
	return nil
}
