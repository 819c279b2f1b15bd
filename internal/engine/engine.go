// Package engine is the pass-through boundary to the search engine: it forwards
// method, path, query and body, and relays status and body without interpreting them.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/logger"
	"github.com/kailas-cloud/notesearch/internal/metrics"
)

// Defaults.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultAPIKeyHeader = "X-API-Key"
)

const gatewayPrefix = "search engine gateway error"

var tracer = otel.Tracer("notesearch/engine")

// Performer executes a request against the configured engine address.
// Implementations resolve scheme and host and prefix the base path.
type Performer interface {
	Perform(req *http.Request) (*http.Response, error)
}

// GatewayError is a transport failure towards the engine. Status is always 500.
type GatewayError struct {
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", gatewayPrefix, e.Message, e.Err)
	}
	return gatewayPrefix + ": " + e.Message
}

// Unwrap exposes domain.ErrGateway and the underlying cause.
func (e *GatewayError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrGateway, e.Err}
	}
	return []error{domain.ErrGateway}
}

func newGatewayError(msg string, err error) *GatewayError {
	return &GatewayError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// Response is the engine answer, relayed verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Config holds proxy settings.
type Config struct {
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Proxy forwards requests to the engine. It never retries.
type Proxy struct {
	performer Performer
	apiKey    string
	header    string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewProxy creates a Proxy over performer.
func NewProxy(performer Performer, cfg Config) *Proxy {
	p := &Proxy{
		performer: performer,
		apiKey:    cfg.APIKey,
		header:    cfg.APIKeyHeader,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
	if p.header == "" {
		p.header = DefaultAPIKeyHeader
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Forward sends method subPath?query to the engine. body is sent only for POST and
// PUT, and only when it is JSON or NDJSON. Any transport failure is a *GatewayError.
func (p *Proxy) Forward(ctx context.Context, method, subPath, query string, body []byte) (Response, error) {
	ctx, span := tracer.Start(ctx, "engine.forward")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("engine.path", subPath),
	)

	resp, err := p.forward(ctx, method, subPath, query, body)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.Status)
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway_error")
		logger.FromContext(ctx, p.logger).Warn("search engine request failed",
			zap.String("method", method), zap.String("path", subPath), zap.Error(err))
	}
	metrics.ProxyRequestsTotal.WithLabelValues(method, status).Inc()
	return resp, err
}

func (p *Proxy) forward(ctx context.Context, method, subPath, query string, body []byte) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		reader      io.Reader
		contentType string
	)
	if method == http.MethodPost || method == http.MethodPut {
		contentType = structuredContentType(body)
		if contentType != "" {
			reader = bytes.NewReader(body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, "/", reader)
	if err != nil {
		return Response{}, newGatewayError("build request", err)
	}
	req.URL.Path = "/" + strings.TrimLeft(subPath, "/")
	req.URL.RawQuery = strings.TrimPrefix(query, "?")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set(p.header, p.apiKey)
	}

	res, err := p.performer.Perform(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Response{}, newGatewayError(fmt.Sprintf("request timed out after %s", p.timeout), err)
		}
		return Response{}, newGatewayError("request failed", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, newGatewayError("read response", err)
	}
	return Response{
		Status:      res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// structuredContentType returns the content type for a JSON or NDJSON body, or "".
func structuredContentType(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	if json.Valid(body) {
		return "application/json"
	}
	lines := 0
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return ""
		}
		lines++
	}
	if sc.Err() != nil || lines == 0 {
		return ""
	}
	return "application/x-ndjson"
}
