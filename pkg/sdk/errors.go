package notesearch

import (
	"errors"

	"github.com/kailas-cloud/notesearch/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput              = domain.ErrInvalidInput
	ErrInvalidFilter             = domain.ErrInvalidFilter
	ErrQuotaExceeded             = domain.ErrQuotaExceeded
	ErrUpstreamUnavailable       = domain.ErrUpstreamUnavailable
	ErrMalformedUpstreamResponse = domain.ErrMalformedUpstreamResponse
	ErrSearchEngine              = domain.ErrSearchEngine
	ErrGateway                   = domain.ErrGateway
)

// ErrAINotConfigured is returned by assist calls when no AI provider was configured.
var ErrAINotConfigured = errors.New("notesearch: ai provider not configured (use WithAIWorkers or WithOpenAI)")
