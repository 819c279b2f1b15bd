package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// AI assistant, usage and search Prometheus metrics.
var (
	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notesearch",
			Name:      "ai_requests_total",
			Help:      "Total number of AI worker requests",
		},
		[]string{"operation", "status"}, // status: ok / error / timeout / canceled
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notesearch",
			Name:      "ai_request_duration_seconds",
			Help:      "AI worker request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	AIFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notesearch",
			Name:      "ai_fallbacks_total",
			Help:      "Suggestions served by the local fallback",
		},
	)

	QuotaDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notesearch",
			Name:      "quota_denials_total",
			Help:      "AI requests denied by the daily quota",
		},
		[]string{"operation"},
	)

	UsageWordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notesearch",
			Name:      "usage_words_total",
			Help:      "Words committed to daily usage counters",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notesearch",
			Name:      "search_requests_total",
			Help:      "Typed note searches by outcome",
		},
		[]string{"status"},
	)

	ProxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notesearch",
			Name:      "proxy_requests_total",
			Help:      "Requests forwarded to the search engine",
		},
		[]string{"method", "status"},
	)
)

var registerOnce sync.Once

// RegisterDomainMetrics registers the AI, usage and search metrics. Safe to call more than once.
func RegisterDomainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AIRequestsTotal,
			AIRequestDuration,
			AIFallbacksTotal,
			QuotaDenialsTotal,
			UsageWordsTotal,
			SearchRequestsTotal,
			ProxyRequestsTotal,
		)
	})
}
