package assist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	domassist "github.com/kailas-cloud/notesearch/internal/domain/assist"
	"github.com/kailas-cloud/notesearch/internal/logger"
	"github.com/kailas-cloud/notesearch/internal/metrics"
)

// DefaultTimeout bounds every outbound AI call.
const DefaultTimeout = 60 * time.Second

var tracer = otel.Tracer("notesearch/assist")

// Service validates input, enforces the daily quota, calls the assistant under
// a timeout and commits usage after success. Suggest degrades to the local fallback.
type Service struct {
	assistant  Assistant
	accountant Accountant
	timeout    time.Duration
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service. accountant can be nil (no quota, no accounting).
func New(assistant Assistant, accountant Accountant, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		assistant:  assistant,
		accountant: accountant,
		timeout:    DefaultTimeout,
		logger:     log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Suggest proposes a title and summary for text on behalf of userID.
//
// Once the text is valid, any failure other than caller cancellation returns the
// local fallback suggestion together with the error: domain.ErrUpstreamUnavailable
// on upstream failure, domain.ErrQuotaExceeded on quota denial, or the usage store
// error when the quota cannot be checked. Upstream is not called in the last two
// cases. When ctx itself is canceled nothing is returned and nothing is committed.
func (s *Service) Suggest(ctx context.Context, userID, text string) (domassist.Suggestion, error) {
	normalized, err := domassist.NormalizeText(text)
	if err != nil {
		return domassist.Suggestion{}, err
	}

	sug, err := run(ctx, s, domassist.OperationSuggest, userID, normalized, s.assistant.Suggest,
		func(v domassist.Suggestion) int { return v.WordCount })
	if err == nil {
		return sug, nil
	}
	if ctx.Err() != nil {
		return domassist.Suggestion{}, err
	}

	log := logger.FromContext(ctx, s.logger)
	switch {
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		metrics.AIFallbacksTotal.Inc()
		log.Warn("suggest fallback", zap.Error(err))
	case !errors.Is(err, domain.ErrQuotaExceeded):
		metrics.AIFallbacksTotal.Inc()
		log.Error("suggest fallback, quota check failed", zap.Error(err))
	}
	return domassist.Fallback(text), err
}

// Organize restructures text. Upstream failures are returned as is.
func (s *Service) Organize(ctx context.Context, userID, text string) (domassist.Organized, error) {
	normalized, err := domassist.NormalizeText(text)
	if err != nil {
		return domassist.Organized{}, err
	}
	inputWords := domassist.WordCount(normalized)
	return run(ctx, s, domassist.OperationOrganize, userID, normalized, s.assistant.Organize,
		func(domassist.Organized) int { return inputWords })
}

// Edit copy-edits text. Upstream failures are returned as is.
func (s *Service) Edit(ctx context.Context, userID, text string) (domassist.Edited, error) {
	normalized, err := domassist.NormalizeText(text)
	if err != nil {
		return domassist.Edited{}, err
	}
	return run(ctx, s, domassist.OperationEdit, userID, normalized, s.assistant.Edit,
		func(v domassist.Edited) int { return v.WordCount })
}

// run is the shared pipeline: quota check, bounded call, usage commit.
func run[T any](
	ctx context.Context,
	s *Service,
	op domassist.Operation,
	userID, text string,
	call func(context.Context, string) (T, error),
	words func(T) int,
) (T, error) {
	var zero T
	log := logger.FromContext(ctx, s.logger).With(zap.String("operation", string(op)))

	ctx, span := tracer.Start(ctx, "assist."+string(op))
	defer span.End()
	span.SetAttributes(
		attribute.String("assist.operation", string(op)),
		attribute.Int("assist.input_runes", len([]rune(text))),
	)

	if s.accountant != nil {
		res, err := s.accountant.CheckAndReserve(ctx, userID, domassist.WordCount(text))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "quota_check_failed")
			return zero, fmt.Errorf("check quota: %w", err)
		}
		if !res.Allowed {
			metrics.QuotaDenialsTotal.WithLabelValues(string(op)).Inc()
			span.SetStatus(codes.Error, "quota_exceeded")
			return zero, fmt.Errorf("%w: daily %s limit reached", domain.ErrQuotaExceeded, res.Reason)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := call(callCtx, text)
	metrics.AIRequestDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		// Caller went away: no fallback, no commit.
		metrics.AIRequestsTotal.WithLabelValues(string(op), "canceled").Inc()
		span.SetStatus(codes.Error, "canceled")
		return zero, fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if err != nil {
		status := "error"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.AIRequestsTotal.WithLabelValues(string(op), status).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream_"+status)
		log.Warn("ai upstream failed", zap.String("status", status), zap.Error(err))
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = domain.NewUpstreamError(string(op), 0, err.Error())
		}
		return zero, err
	}
	metrics.AIRequestsTotal.WithLabelValues(string(op), "ok").Inc()

	n := words(out)
	span.SetAttributes(attribute.Int("assist.words", n))
	if s.accountant != nil {
		rec, cerr := s.accountant.Commit(ctx, userID, n)
		if cerr != nil {
			// Logged only; the caller still gets the result.
			log.Error("usage commit failed", zap.String("user_id", userID), zap.Int("words", n), zap.Error(cerr))
		} else {
			domain.WordUsageFromContext(ctx).Charge(n, s.accountant.Remaining(rec))
		}
	}
	span.SetStatus(codes.Ok, "completed")
	return out, nil
}
