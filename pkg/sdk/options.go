package notesearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/notesearch/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	search config.SearchConfig
	ai     config.AIConfig
	quota  config.QuotaConfig
	usage  config.UsageConfig

	aiConfigured bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the Elasticsearch base URL.
func WithElasticsearch(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.search.Driver = config.SearchDriverElasticsearch
		c.search.BaseURL = url
	})
}

// WithOpenSearch sets the OpenSearch base URL.
func WithOpenSearch(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.search.Driver = config.SearchDriverOpenSearch
		c.search.BaseURL = url
	})
}

// WithEngineAPIKey sets the key sent to the engine in the X-API-Key header.
func WithEngineAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.search.APIKey = key
	})
}

// WithIndex sets the notes index name. Default: "notes".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.search.Index = name
	})
}

// WithSearchFields sets the multi_match fields, with optional ^boost.
// Default: title^2, content.
func WithSearchFields(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.search.SearchableFields = fields
	})
}

// WithIDField sets the _source field holding the note ID. Default: "noteId".
func WithIDField(field string) Option {
	return optionFunc(func(c *clientConfig) {
		c.search.IDField = field
	})
}

// WithAIWorkers routes AI assist to the three worker endpoints.
func WithAIWorkers(suggestURL, organizeURL, editURL, secret string) Option {
	return optionFunc(func(c *clientConfig) {
		c.ai.Provider = config.AIProviderWorker
		c.ai.Workers = config.WorkersConfig{SuggestURL: suggestURL, OrganizeURL: organizeURL, EditURL: editURL}
		c.ai.Secret = secret
		c.aiConfigured = true
	})
}

// WithOpenAI routes AI assist to an OpenAI-compatible provider.
// An empty baseURL uses the OpenAI API.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.ai.Provider = config.AIProviderOpenAI
		c.ai.OpenAI = config.OpenAIConfig{APIKey: apiKey, BaseURL: baseURL, Model: model}
		c.aiConfigured = true
	})
}

// WithAITimeout bounds each AI call. Default: 60s.
func WithAITimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.ai.TimeoutSec = int(d / time.Second)
	})
}

// WithQuota sets the daily per-user word and request limits. Zero is unlimited (default).
func WithQuota(maxWordsPerDay, maxRequestsPerDay int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.quota = config.QuotaConfig{MaxWordsPerDay: maxWordsPerDay, MaxRequestsPerDay: maxRequestsPerDay}
	})
}

// WithRedisUsage keeps usage counters in Redis.
func WithRedisUsage(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.usage.Driver = config.UsageDriverRedis
		c.usage.Addrs = []string{addr}
		c.usage.Password = password
	})
}

// WithValkeyUsage keeps usage counters in Valkey.
func WithValkeyUsage(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.usage.Driver = config.UsageDriverValkey
		c.usage.Addrs = []string{addr}
		c.usage.Password = password
	})
}

// WithSQLiteUsage keeps usage counters in a SQLite file.
// Without a usage option counters live in memory.
func WithSQLiteUsage(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.usage.Driver = config.UsageDriverSQLite
		c.usage.SQLitePath = path
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
