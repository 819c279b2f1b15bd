package notesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// operation names an SDK entry point in metrics and logs.
type operation string

const (
	opSearch      operation = "search"
	opSuggest     operation = "suggest"
	opOrganize    operation = "organize"
	opEdit        operation = "edit"
	opUsage       operation = "usage"
	opResetUsage  operation = "reset_usage"
	opPing        operation = "ping"
	opEnsureIndex operation = "ensure_index"
)

// Outcome labels.
const (
	outcomeOK            = "ok"
	outcomeInvalid       = "invalid_input"
	outcomeQuota         = "quota_exceeded"
	outcomeUpstream      = "upstream_unavailable"
	outcomeEngine        = "search_engine"
	outcomeNotConfigured = "not_configured"
	outcomeCanceled      = "canceled"
	outcomeError         = "error"
)

// outcome classifies err by the sentinel it wraps.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidFilter):
		return outcomeInvalid
	case errors.Is(err, ErrQuotaExceeded):
		return outcomeQuota
	case errors.Is(err, ErrUpstreamUnavailable):
		return outcomeUpstream
	case errors.Is(err, ErrSearchEngine), errors.Is(err, ErrMalformedUpstreamResponse), errors.Is(err, ErrGateway):
		return outcomeEngine
	case errors.Is(err, ErrAINotConfigured):
		return outcomeNotConfigured
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeError
	}
}

// call is one finished SDK operation.
type call struct {
	op       operation
	userID   string
	start    time.Time
	err      error
	fallback bool // suggestion derived locally
	words    int  // words charged against the daily quota
}

type sdkMetrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	fallbacks    prometheus.Counter
	wordsCharged prometheus.Counter
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notesearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notesearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			// AI calls run up to the 60s provider timeout.
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 10, 30, 60},
		}, []string{"operation"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notesearch",
			Subsystem: "sdk",
			Name:      "suggest_fallbacks_total",
			Help:      "Suggestions derived locally instead of by the AI provider.",
		}),
		wordsCharged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notesearch",
			Subsystem: "sdk",
			Name:      "words_charged_total",
			Help:      "Words committed to daily usage by SDK assist calls.",
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.fallbacks); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.wordsCharged); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or adopts the one already registered under its name.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("notesearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("notesearch: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer records SDK operations to slog and Prometheus. Both sinks are optional.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(c call) {
	if o == nil {
		return
	}
	dur := time.Since(c.start)
	out := outcome(c.err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(string(c.op), out).Inc()
		o.metrics.duration.WithLabelValues(string(c.op)).Observe(dur.Seconds())
		if c.fallback {
			o.metrics.fallbacks.Inc()
		}
		if c.words > 0 {
			o.metrics.wordsCharged.Add(float64(c.words))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", string(c.op), "outcome", out, "duration", dur}
	if c.userID != "" {
		attrs = append(attrs, "user_id", c.userID)
	}
	if c.words > 0 {
		attrs = append(attrs, "words", c.words)
	}
	if c.fallback {
		attrs = append(attrs, "fallback", true)
	}
	switch out {
	case outcomeOK:
		o.logger.Debug("operation completed", attrs...)
	case outcomeInvalid, outcomeQuota, outcomeNotConfigured:
		o.logger.Info("operation rejected", append(attrs, "error", c.err)...)
	default:
		o.logger.Warn("operation failed", append(attrs, "error", c.err)...)
	}
}
