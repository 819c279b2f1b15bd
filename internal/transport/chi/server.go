package chi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	domassist "github.com/kailas-cloud/notesearch/internal/domain/assist"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	"github.com/kailas-cloud/notesearch/internal/engine"
	"github.com/kailas-cloud/notesearch/internal/metrics"
	healthuc "github.com/kailas-cloud/notesearch/internal/usecase/health"
)

// Response headers describing quota consumption.
const (
	headerWordsCharged   = "X-Words-Charged"
	headerWordsRemaining = "X-Words-Remaining"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 10 << 20

// AssistService is the AI capability use case.
type AssistService interface {
	Suggest(ctx context.Context, userID, text string) (domassist.Suggestion, error)
	Organize(ctx context.Context, userID, text string) (domassist.Organized, error)
	Edit(ctx context.Context, userID, text string) (domassist.Edited, error)
}

// UsageService reports daily usage.
type UsageService interface {
	Report(ctx context.Context, userID string) (domusage.Report, error)
}

// SearchService runs typed note searches.
type SearchService interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
}

// Proxy forwards raw engine requests.
type Proxy interface {
	Forward(ctx context.Context, method, subPath, query string, body []byte) (engine.Response, error)
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Deps are the use cases served over HTTP.
type Deps struct {
	Assist AssistService
	Usage  UsageService
	Search SearchService
	Proxy  Proxy
	Health HealthService
}

// Options configure routing and middleware.
type Options struct {
	APIKeys    []string
	UserHeader string
	CORS       CORSOptions
	// DefaultLimit replaces an omitted search limit. Zero keeps request.DefaultLimit.
	DefaultLimit int
}

// Server serves the notesearch HTTP API.
type Server struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps, opts Options, logger *zap.Logger) *Server {
	if opts.UserHeader == "" {
		opts.UserHeader = DefaultUserHeader
	}
	opts.CORS.UserHeader = opts.UserHeader
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{deps: deps, opts: opts, logger: logger}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(CORS(s.opts.CORS))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireUser(s.opts.UserHeader))
			r.Post("/ai/suggest", s.Suggest)
			r.Post("/ai/organize", s.Organize)
			r.Post("/ai/edit", s.Edit)
			r.Get("/ai/usage", s.GetUsage)
		})
		r.Post("/notes/search", s.SearchNotes)
		r.Get("/notes/search", s.SearchNotesQuery)
		r.HandleFunc("/search", s.ProxySearch)
		r.HandleFunc("/search/*", s.ProxySearch)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setWordHeaders(w http.ResponseWriter, usage *domain.WordUsage) {
	if usage == nil || !usage.Charged {
		return
	}
	w.Header().Set(headerWordsCharged, strconv.Itoa(usage.Words))
	if usage.Remaining >= 0 {
		w.Header().Set(headerWordsRemaining, strconv.FormatInt(usage.Remaining, 10))
	}
}

// canceled reports whether the caller went away; nothing should be written then.
func canceled(r *http.Request) bool {
	return r.Context().Err() != nil
}
