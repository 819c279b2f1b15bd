// Package aiworker calls the remote AI workers that suggest, organize and edit note text.
package aiworker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/assist"
)

const maxResponseBytes = 1 << 20

// Config holds the worker endpoints and credentials.
type Config struct {
	SuggestURL  string
	OrganizeURL string
	EditURL     string
	Secret      string
	// RateLimit is outbound requests per second across all workers; 0 disables limiting.
	RateLimit  float64
	RateBurst  int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is an HTTP client for the AI workers. It never retries.
type Client struct {
	urls    map[assist.Operation]string
	secret  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New validates cfg and creates a Client.
func New(cfg Config) (*Client, error) {
	urls := map[assist.Operation]string{
		assist.OperationSuggest:  cfg.SuggestURL,
		assist.OperationOrganize: cfg.OrganizeURL,
		assist.OperationEdit:     cfg.EditURL,
	}
	for op, u := range urls {
		if u == "" {
			return nil, fmt.Errorf("%s worker url is required", op)
		}
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("worker secret is required")
	}

	c := &Client{
		urls:   urls,
		secret: cfg.Secret,
		http:   cfg.HTTPClient,
		logger: cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// envelope is the common worker response wrapper.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	Error     string          `json:"error,omitempty"`
}

type suggestData struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Language  string `json:"language"`
	WordCount int    `json:"wordCount"`
}

type organizeData struct {
	Language      string `json:"language"`
	EditedContent string `json:"editedContent"`
}

type editData struct {
	Language      string `json:"language"`
	WordCount     int    `json:"wordCount"`
	EditedContent string `json:"editedContent"`
}

// Suggest asks the suggestion worker for a title and summary.
func (c *Client) Suggest(ctx context.Context, text string) (assist.Suggestion, error) {
	var d suggestData
	if err := c.call(ctx, assist.OperationSuggest, text, &d); err != nil {
		return assist.Suggestion{}, err
	}
	s, err := assist.NewSuggestion(d.Title, d.Summary, assist.Language(d.Language), d.WordCount, text)
	if err != nil {
		return assist.Suggestion{}, domain.NewUpstreamError(string(assist.OperationSuggest), 0, err.Error())
	}
	return s, nil
}

// Organize asks the organize worker to restructure the text.
func (c *Client) Organize(ctx context.Context, text string) (assist.Organized, error) {
	var d organizeData
	if err := c.call(ctx, assist.OperationOrganize, text, &d); err != nil {
		return assist.Organized{}, err
	}
	o, err := assist.NewOrganized(assist.Language(d.Language), d.EditedContent, text)
	if err != nil {
		return assist.Organized{}, domain.NewUpstreamError(string(assist.OperationOrganize), 0, err.Error())
	}
	return o, nil
}

// Edit asks the edit worker to copy-edit the text.
func (c *Client) Edit(ctx context.Context, text string) (assist.Edited, error) {
	var d editData
	if err := c.call(ctx, assist.OperationEdit, text, &d); err != nil {
		return assist.Edited{}, err
	}
	e, err := assist.NewEdited(assist.Language(d.Language), d.WordCount, d.EditedContent, text)
	if err != nil {
		return assist.Edited{}, domain.NewUpstreamError(string(assist.OperationEdit), 0, err.Error())
	}
	return e, nil
}

// call POSTs {text} to the operation's worker and decodes envelope.data into out.
// Every failure is a *domain.UpstreamError.
func (c *Client) call(ctx context.Context, op assist.Operation, text string, out any) error {
	fail := func(status int, msg string) error {
		return domain.NewUpstreamError(string(op), status, msg)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, "rate limit wait: "+err.Error())
		}
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fail(0, "encode request: "+err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.urls[op], bytes.NewReader(body))
	if err != nil {
		return fail(0, "build request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("X-Request-ID", requestID(ctx))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(0, "request timed out")
		}
		return fail(0, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(resp.StatusCode, "read response: "+err.Error())
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		return fail(resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return fail(resp.StatusCode, "decode response: "+decodeErr.Error())
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "worker reported failure"
		}
		return fail(resp.StatusCode, msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fail(resp.StatusCode, "response has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fail(resp.StatusCode, "decode data: "+err.Error())
	}

	c.logger.Debug("ai worker call",
		zap.String("operation", string(op)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// requestID propagates the inbound request ID or mints one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
