package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Drivers and providers.
const (
	SearchDriverElasticsearch = "elasticsearch"
	SearchDriverOpenSearch    = "opensearch"

	UsageDriverMemory = "memory"
	UsageDriverRedis  = "redis"
	UsageDriverValkey = "valkey"
	UsageDriverSQLite = "sqlite"

	AIProviderWorker = "worker"
	AIProviderOpenAI = "openai"
)

// Config holds the notesearch configuration. It is read once at startup and not mutated afterwards.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
	AI      AIConfig      `yaml:"ai"`
	Search  SearchConfig  `yaml:"search"`
	Quota   QuotaConfig   `yaml:"quota"`
	Usage   UsageConfig   `yaml:"usage"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys    []string `yaml:"api_keys"`
	UserHeader string   `yaml:"user_header"`
}

// CORSConfig holds browser access settings.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AIConfig holds AI capability settings.
type AIConfig struct {
	Provider   string        `yaml:"provider"` // worker (default), openai
	Secret     string        `yaml:"secret"`
	TimeoutSec int           `yaml:"timeout_sec"`
	RateLimit  float64       `yaml:"rate_limit"` // outbound requests per second, 0 = unlimited
	RateBurst  int           `yaml:"rate_burst"`
	Workers    WorkersConfig `yaml:"workers"`
	OpenAI     OpenAIConfig  `yaml:"openai"`
}

// WorkersConfig holds the AI worker endpoints.
type WorkersConfig struct {
	SuggestURL  string `yaml:"suggest_url"`
	OrganizeURL string `yaml:"organize_url"`
	EditURL     string `yaml:"edit_url"`
}

// OpenAIConfig holds settings for an OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// SearchConfig holds search engine settings.
type SearchConfig struct {
	Driver           string   `yaml:"driver"` // elasticsearch (default), opensearch
	BaseURL          string   `yaml:"base_url"`
	APIKey           string   `yaml:"api_key"`
	APIKeyHeader     string   `yaml:"api_key_header"`
	Index            string   `yaml:"index"`
	TimeoutSec       int      `yaml:"timeout_sec"`
	DefaultPageSize  int      `yaml:"default_page_size"`
	MaxPageSize      int      `yaml:"max_page_size"`
	SearchableFields []string `yaml:"searchable_fields"`
	HighlightFields  []string `yaml:"highlight_fields"`
	IDField          string   `yaml:"id_field"`
	EnsureIndex      bool     `yaml:"ensure_index"` // create the index at startup when missing
}

// QuotaConfig holds daily AI quota limits. Zero is unlimited.
type QuotaConfig struct {
	MaxWordsPerDay    int64 `yaml:"max_words_per_day"`
	MaxRequestsPerDay int64 `yaml:"max_requests_per_day"`
}

// UsageConfig holds usage store settings.
type UsageConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), redis, valkey, sqlite
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv seeds the process environment from .env files. Existing variables win.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// AI calls may take up to ai.timeout_sec
		c.HTTP.WriteTimeoutSec = 75
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Auth.UserHeader == "" {
		c.Auth.UserHeader = "X-User-ID"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = AIProviderWorker
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = 60
	}
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Search.Driver == "" {
		c.Search.Driver = SearchDriverElasticsearch
	}
	if c.Search.APIKeyHeader == "" {
		c.Search.APIKeyHeader = "X-API-Key"
	}
	if c.Search.Index == "" {
		c.Search.Index = "notes"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if len(c.Search.SearchableFields) == 0 {
		c.Search.SearchableFields = []string{"title^2", "content"}
	}
	if c.Search.HighlightFields == nil {
		c.Search.HighlightFields = []string{"title", "content"}
	}
	if c.Search.IDField == "" {
		c.Search.IDField = "noteId"
	}
	if c.Usage.Driver == "" {
		c.Usage.Driver = UsageDriverMemory
	}
	if c.Usage.TTLHours <= 0 {
		c.Usage.TTLHours = 48
	}
	if c.Usage.ReadinessTimeout <= 0 {
		c.Usage.ReadinessTimeout = 10
	}
	if c.Usage.SQLitePath == "" {
		c.Usage.SQLitePath = "notesearch.db"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.AI.Provider {
	case AIProviderWorker:
		if c.AI.Workers.SuggestURL == "" || c.AI.Workers.OrganizeURL == "" || c.AI.Workers.EditURL == "" {
			return fmt.Errorf("ai.workers.suggest_url, organize_url and edit_url are required")
		}
	case AIProviderOpenAI:
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("ai.openai.api_key is required")
		}
	default:
		return fmt.Errorf("ai.provider must be %q or %q, got %q", AIProviderWorker, AIProviderOpenAI, c.AI.Provider)
	}
	if c.AI.RateLimit < 0 {
		return fmt.Errorf("ai.rate_limit must be >= 0, got %v", c.AI.RateLimit)
	}

	switch c.Search.Driver {
	case SearchDriverElasticsearch, SearchDriverOpenSearch:
	default:
		return fmt.Errorf("search.driver must be %q or %q, got %q",
			SearchDriverElasticsearch, SearchDriverOpenSearch, c.Search.Driver)
	}
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if c.Search.MaxPageSize < 1 || c.Search.MaxPageSize > 100 {
		return fmt.Errorf("search.max_page_size must be between 1 and 100, got %d", c.Search.MaxPageSize)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size must be <= search.max_page_size, got %d", c.Search.DefaultPageSize)
	}

	if c.Quota.MaxWordsPerDay < 0 {
		return fmt.Errorf("quota.max_words_per_day must be >= 0, got %d", c.Quota.MaxWordsPerDay)
	}
	if c.Quota.MaxRequestsPerDay < 0 {
		return fmt.Errorf("quota.max_requests_per_day must be >= 0, got %d", c.Quota.MaxRequestsPerDay)
	}

	switch c.Usage.Driver {
	case UsageDriverMemory, UsageDriverSQLite:
	case UsageDriverRedis, UsageDriverValkey:
		if len(c.Usage.Addrs) == 0 {
			return fmt.Errorf("usage.addrs is required for driver %q", c.Usage.Driver)
		}
	default:
		return fmt.Errorf("usage.driver must be one of memory, redis, valkey, sqlite, got %q", c.Usage.Driver)
	}
	return nil
}

// AITimeout returns the AI call timeout.
func (c *Config) AITimeout() time.Duration { return time.Duration(c.AI.TimeoutSec) * time.Second }

// SearchTimeout returns the engine call timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSec) * time.Second
}

// UsageTTL returns the expiry of redis usage keys.
func (c *Config) UsageTTL() time.Duration { return time.Duration(c.Usage.TTLHours) * time.Hour }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
