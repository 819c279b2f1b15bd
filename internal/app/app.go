// Package app is the composition root: it turns a config.Config into wired services.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/config"
	dbredis "github.com/kailas-cloud/notesearch/internal/db/redis"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
	"github.com/kailas-cloud/notesearch/internal/engine"
	"github.com/kailas-cloud/notesearch/internal/engine/elastic"
	"github.com/kailas-cloud/notesearch/internal/engine/opensearch"
	"github.com/kailas-cloud/notesearch/internal/metrics"
	searchrepo "github.com/kailas-cloud/notesearch/internal/repository/search"
	usagerepo "github.com/kailas-cloud/notesearch/internal/repository/usage"
	chiTransport "github.com/kailas-cloud/notesearch/internal/transport/chi"
	"github.com/kailas-cloud/notesearch/internal/transport/aiworker"
	openaiAssist "github.com/kailas-cloud/notesearch/internal/transport/openai"
	assistuc "github.com/kailas-cloud/notesearch/internal/usecase/assist"
	healthuc "github.com/kailas-cloud/notesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/notesearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/notesearch/internal/usecase/usage"
)

// Engine is a search engine driver.
type Engine interface {
	engine.Performer
	healthuc.Pinger
	searchrepo.IndexManager
}

// App holds the wired services.
type App struct {
	Config     config.Config
	Engine     Engine
	Proxy      *engine.Proxy
	SearchRepo *searchrepo.Repo
	Search     *searchuc.Service
	Usage      *usageuc.Service
	Assist     *assistuc.Service
	Health     *healthuc.Service

	logger  *zap.Logger
	closers []func()
}

// New builds every service from cfg. Call Close when done.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.RegisterDomainMetrics()

	a := &App{Config: cfg, logger: logger}

	eng, err := NewEngine(cfg.Search)
	if err != nil {
		return nil, err
	}
	a.Engine = eng
	a.Proxy, a.SearchRepo = NewSearch(cfg, eng, logger)
	a.Search = searchuc.New(a.SearchRepo, logger)

	store, usagePinger, closeStore, err := NewUsageStore(ctx, cfg.Usage, cfg.UsageTTL())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	policy, err := quota.NewPolicy(cfg.Quota.MaxWordsPerDay, cfg.Quota.MaxRequestsPerDay)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("quota policy: %w", err)
	}
	a.Usage = usageuc.New(store, policy, logger)

	assistant, aiChecker, err := NewAssistant(cfg.AI, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Assist = assistuc.New(assistant, a.Usage, logger, assistuc.WithTimeout(cfg.AITimeout()))

	a.Health = healthuc.New(eng, usagePinger, aiChecker)

	logger.Info("services wired",
		zap.String("search_driver", cfg.Search.Driver),
		zap.String("index", cfg.Search.Index),
		zap.String("usage_driver", cfg.Usage.Driver),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int64("max_words_per_day", policy.MaxWordsPerDay()),
		zap.Int64("max_requests_per_day", policy.MaxRequestsPerDay()),
	)
	return a, nil
}

// Close releases store connections in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Server builds the HTTP API over the wired services.
func (a *App) Server() *chiTransport.Server {
	return chiTransport.NewServer(chiTransport.Deps{
		Assist: a.Assist,
		Usage:  a.Usage,
		Search: a.Search,
		Proxy:  a.Proxy,
		Health: a.Health,
	}, chiTransport.Options{
		APIKeys:      a.Config.Auth.APIKeys,
		UserHeader:   a.Config.Auth.UserHeader,
		DefaultLimit: a.Config.Search.DefaultPageSize,
		CORS: chiTransport.CORSOptions{
			AllowedOrigins:   a.Config.CORS.AllowedOrigins,
			AllowCredentials: a.Config.CORS.AllowCredentials,
		},
	}, a.logger)
}

// HTTPServer returns an *http.Server for the API with configured timeouts.
func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.HTTP.Port),
		Handler:           a.Server().Handler(),
		ReadTimeout:       time.Duration(a.Config.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(a.Config.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(a.Config.HTTP.WriteTimeoutSec) * time.Second,
	}
}

// EnsureIndex creates the notes index when it is missing.
func (a *App) EnsureIndex(ctx context.Context) (bool, error) {
	created, err := searchrepo.EnsureIndex(ctx, a.Engine, a.Config.Search.Index, a.SearchRepo.Config())
	if err != nil {
		return false, err
	}
	if created {
		a.logger.Info("index created", zap.String("index", a.Config.Search.Index))
	}
	return created, nil
}

// NewEngine creates the configured engine driver.
func NewEngine(cfg config.SearchConfig) (Engine, error) {
	switch cfg.Driver {
	case config.SearchDriverOpenSearch:
		c, err := opensearch.New(opensearch.Config{
			Addresses:    []string{cfg.BaseURL},
			APIKey:       cfg.APIKey,
			APIKeyHeader: cfg.APIKeyHeader,
		})
		if err != nil {
			return nil, fmt.Errorf("search engine: %w", err)
		}
		return c, nil
	case config.SearchDriverElasticsearch, "":
		c, err := elastic.New(elastic.Config{
			Addresses:    []string{cfg.BaseURL},
			APIKey:       cfg.APIKey,
			APIKeyHeader: cfg.APIKeyHeader,
		})
		if err != nil {
			return nil, fmt.Errorf("search engine: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown search driver %q", cfg.Driver)
	}
}

// NewSearch builds the engine proxy and the typed search repository over it.
func NewSearch(cfg config.Config, p engine.Performer, logger *zap.Logger) (*engine.Proxy, *searchrepo.Repo) {
	proxy := engine.NewProxy(p, engine.Config{
		APIKey:       cfg.Search.APIKey,
		APIKeyHeader: cfg.Search.APIKeyHeader,
		Timeout:      cfg.SearchTimeout(),
		Logger:       logger,
	})
	repo := searchrepo.New(proxy, cfg.Search.Index, QueryConfig(cfg.Search))
	return proxy, repo
}

// QueryConfig maps search settings onto query builder settings.
func QueryConfig(cfg config.SearchConfig) searchrepo.QueryConfig {
	return searchrepo.QueryConfig{
		SearchableFields: cfg.SearchableFields,
		HighlightFields:  cfg.HighlightFields,
		IDField:          cfg.IDField,
		MaxPageSize:      cfg.MaxPageSize,
	}
}

// NewUsageStore opens the configured usage store. The returned pinger is nil
// for the in-memory store; close is never nil.
func NewUsageStore(
	ctx context.Context, cfg config.UsageConfig, ttl time.Duration,
) (usageuc.Store, healthuc.Pinger, func(), error) {
	switch cfg.Driver {
	case config.UsageDriverRedis, config.UsageDriverValkey:
		// valkey speaks the redis protocol; rueidis serves both.
		st, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("usage store: %w", err)
		}
		if err := st.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			st.Close()
			return nil, nil, nil, fmt.Errorf("usage store not ready: %w", err)
		}
		return usagerepo.NewRedis(st, ttl), st, st.Close, nil
	case config.UsageDriverSQLite:
		st, err := usagerepo.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("usage store: %w", err)
		}
		return st, st, func() { _ = st.Close() }, nil
	case config.UsageDriverMemory, "":
		return usagerepo.NewMemory(), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown usage driver %q", cfg.Driver)
	}
}

// NewAssistant creates the configured AI provider. The checker is nil when the
// provider has no health endpoint.
func NewAssistant(cfg config.AIConfig, logger *zap.Logger) (assistuc.Assistant, healthuc.AIChecker, error) {
	switch cfg.Provider {
	case config.AIProviderOpenAI:
		a := openaiAssist.NewAssistant(&openaiAssist.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  logger,
		})
		return a, a, nil
	case config.AIProviderWorker, "":
		c, err := aiworker.New(aiworker.Config{
			SuggestURL:  cfg.Workers.SuggestURL,
			OrganizeURL: cfg.Workers.OrganizeURL,
			EditURL:     cfg.Workers.EditURL,
			Secret:      cfg.Secret,
			RateLimit:   cfg.RateLimit,
			RateBurst:   cfg.RateBurst,
			Logger:      logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("ai workers: %w", err)
		}
		return c, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
