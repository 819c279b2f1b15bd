package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals caller-supplied text that is too short or a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidFilter signals a search filter whose shape matches no supported clause.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUpstreamUnavailable signals a failed or timed-out AI worker call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedUpstreamResponse signals an unexpected response shape from the search engine.
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")
	// ErrSearchEngine signals a non-2xx answer from the search engine on a typed search.
	ErrSearchEngine = errors.New("search engine error")
	// ErrQuotaExceeded signals a daily AI usage quota denial.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrGateway signals a transport failure towards the search engine.
	ErrGateway = errors.New("gateway error")
	// ErrUnauthenticated signals a request without caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UpstreamError wraps ErrUpstreamUnavailable with the message reported by the AI worker.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", ErrUpstreamUnavailable.Error(), e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrUpstreamUnavailable.Error(), e.Operation, e.Message)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamUnavailable }

// NewUpstreamError creates an upstream failure for the given AI operation.
func NewUpstreamError(operation string, statusCode int, message string) error {
	return &UpstreamError{Operation: operation, StatusCode: statusCode, Message: message}
}

// UpstreamMessage returns the upstream-reported message when err carries one.
func UpstreamMessage(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}
