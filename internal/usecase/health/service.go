package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentSearchEngine = "search_engine"
	ComponentUsageStore   = "usage_store"
	ComponentAI           = "ai"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine  Pinger
	usage   Pinger
	ai      AIChecker
	timeout time.Duration
}

// New creates a Service. usage and ai can be nil.
func New(engine, usage Pinger, ai AIChecker) *Service {
	return &Service{engine: engine, usage: usage, ai: ai, timeout: DefaultCheckTimeout}
}

// Check runs all component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]func(context.Context) error{
		ComponentSearchEngine: s.engine.Ping,
	}
	if s.usage != nil {
		checks[ComponentUsageStore] = s.usage.Ping
	}
	if s.ai != nil {
		checks[ComponentAI] = s.ai.HealthCheck
	}

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()
			res := CheckOK
			if err := check(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			// Failures are recorded, not returned.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, v := range results {
		if v == CheckError {
			failed++
		}
	}
	status := Healthy
	switch {
	case failed == len(results):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: results}
}
