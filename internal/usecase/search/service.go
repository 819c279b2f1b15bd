package search

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
	"github.com/kailas-cloud/notesearch/internal/logger"
	"github.com/kailas-cloud/notesearch/internal/metrics"
)

var tracer = otel.Tracer("notesearch/search")

// Service handles typed note search.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, logger: log}
}

// Plan returns the engine query document for req without executing it.
func (s *Service) Plan(req request.Request) (map[string]any, error) {
	return s.repo.BuildQuery(req)
}

// Search executes req. Results keep the engine's ranking.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Page, error) {
	ctx, span := tracer.Start(ctx, "search.query")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("search.has_query", req.Query() != ""),
		attribute.Int("search.filters", len(req.Filters().Conditions())),
		attribute.Int("search.offset", req.Page().Offset),
		attribute.Int("search.limit", req.Page().Limit),
	)

	page, err := s.repo.Search(ctx, req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(outcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
		if !errors.Is(err, context.Canceled) {
			logger.FromContext(ctx, s.logger).Warn("note search failed", zap.Error(err))
		}
		return result.Page{}, err
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int64("search.total", page.Total), attribute.Int("search.returned", len(page.Results)))
	return page, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter), errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrGateway):
		return "gateway_error"
	case errors.Is(err, domain.ErrMalformedUpstreamResponse):
		return "malformed"
	case errors.Is(err, domain.ErrSearchEngine):
		return "engine_error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
