package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/logger"
)

// ErrorCode is the machine-readable error code in JSON error bodies.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeInvalidInput        ErrorCode = "invalid_input"
	CodeInvalidFilter       ErrorCode = "invalid_filter"
	CodeUnauthenticated     ErrorCode = "unauthenticated"
	CodeQuotaExceeded       ErrorCode = "quota_exceeded"
	CodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	CodeUsageUnavailable    ErrorCode = "usage_unavailable"
	CodeMalformedUpstream   ErrorCode = "malformed_upstream_response"
	CodeSearchEngineError   ErrorCode = "search_engine_error"
	CodeGatewayError        ErrorCode = "gateway_error"
	CodeInternalError       ErrorCode = "internal_error"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Success bool      `json:"success"`
	Code    ErrorCode `json:"code"`
	Error   string    `json:"error"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	gatewayHandler,
	sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput),
	sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, CodeInvalidFilter),
	sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated),
	sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, CodeQuotaExceeded),
	sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable),
	sentinelHandler(domain.ErrMalformedUpstreamResponse, http.StatusBadGateway, CodeMalformedUpstream),
	sentinelHandler(domain.ErrSearchEngine, http.StatusBadGateway, CodeSearchEngineError),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Validation errors carry caller-facing detail; the rest expose the sentinel text.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, clientMessage(err, sentinel))
		return true
	}
}

// gatewayHandler reports proxy transport failures with their descriptive message.
func gatewayHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrGateway) {
		return false
	}
	writeError(w, http.StatusInternalServerError, CodeGatewayError, err.Error())
	return true
}

func clientMessage(err, sentinel error) string {
	switch {
	case errors.Is(sentinel, domain.ErrInvalidInput), errors.Is(sentinel, domain.ErrInvalidFilter),
		errors.Is(sentinel, domain.ErrQuotaExceeded):
		return err.Error()
	case errors.Is(sentinel, domain.ErrUpstreamUnavailable):
		if msg := domain.UpstreamMessage(err); msg != "" {
			return msg
		}
	}
	return sentinel.Error()
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
