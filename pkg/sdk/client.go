package notesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/app"
	"github.com/kailas-cloud/notesearch/internal/config"
	domassist "github.com/kailas-cloud/notesearch/internal/domain/assist"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
	searchrepo "github.com/kailas-cloud/notesearch/internal/repository/search"
	assistuc "github.com/kailas-cloud/notesearch/internal/usecase/assist"
	healthuc "github.com/kailas-cloud/notesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/notesearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/notesearch/internal/usecase/usage"
)

// Internal interfaces, swapped for mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
}

type assistUseCase interface {
	Suggest(ctx context.Context, userID, text string) (domassist.Suggestion, error)
	Organize(ctx context.Context, userID, text string) (domassist.Organized, error)
	Edit(ctx context.Context, userID, text string) (domassist.Edited, error)
}

type usageUseCase interface {
	Report(ctx context.Context, userID string) (domusage.Report, error)
	Reset(ctx context.Context, userID string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the notesearch SDK entry point.
type Client struct {
	engine      healthuc.Pinger
	ensureIndex func(ctx context.Context) (bool, error)
	searchSvc   searchUseCase
	assistSvc   assistUseCase // nil without an AI provider
	usageSvc    usageUseCase
	healthSvc   healthUseCase
	closeFn     func()
	obs         *observer
}

// New creates a Client. The provided context bounds the usage store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	if cc.search.BaseURL == "" {
		return nil, errors.New("notesearch: search engine address required (use WithElasticsearch or WithOpenSearch)")
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	cfg := config.Config{Search: cc.search, AI: cc.ai, Quota: cc.quota, Usage: cc.usage}
	cfg.ApplyDefaults()
	return wireClient(ctx, cfg, cc.aiConfigured, obs)
}

func wireClient(ctx context.Context, cfg config.Config, withAI bool, obs *observer) (*Client, error) {
	log := zap.NewNop()

	eng, err := app.NewEngine(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("notesearch: %w", err)
	}
	_, repo := app.NewSearch(cfg, eng, log)

	store, usagePinger, closeStore, err := app.NewUsageStore(ctx, cfg.Usage, cfg.UsageTTL())
	if err != nil {
		return nil, fmt.Errorf("notesearch: %w", err)
	}
	policy, err := quota.NewPolicy(cfg.Quota.MaxWordsPerDay, cfg.Quota.MaxRequestsPerDay)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("notesearch: %w", err)
	}
	usageSvc := usageuc.New(store, policy, log)

	c := &Client{
		engine: eng,
		ensureIndex: func(ctx context.Context) (bool, error) {
			return searchrepo.EnsureIndex(ctx, eng, cfg.Search.Index, repo.Config())
		},
		searchSvc: searchuc.New(repo, log),
		usageSvc:  usageSvc,
		closeFn:   closeStore,
		obs:       obs,
	}

	var aiChecker healthuc.AIChecker
	if withAI {
		assistant, checker, err := app.NewAssistant(cfg.AI, log)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("notesearch: %w", err)
		}
		aiChecker = checker
		c.assistSvc = assistuc.New(assistant, usageSvc, log, assistuc.WithTimeout(cfg.AITimeout()))
	}
	c.healthSvc = healthuc.New(eng, usagePinger, aiChecker)
	return c, nil
}

// Close releases the usage store.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
		c.closeFn = nil
	}
}

// Ping checks search engine connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: opPing, start: start, err: err}) }()

	if err = c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the notes index when missing and reports whether it did.
func (c *Client) EnsureIndex(ctx context.Context) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: opEnsureIndex, start: start, err: err}) }()

	return c.ensureIndex(ctx)
}
