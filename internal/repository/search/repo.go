package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
	"github.com/kailas-cloud/notesearch/internal/engine"
)

// maxErrorBody caps how much of an engine error body ends up in error messages.
const maxErrorBody = 512

// forwarder is the consumer interface for the engine proxy (ISP).
type forwarder interface {
	Forward(ctx context.Context, method, subPath, query string, body []byte) (engine.Response, error)
}

// Repo implements usecase/search.Repository over the engine proxy.
type Repo struct {
	proxy forwarder
	index string
	cfg   QueryConfig
}

// New creates a search repository for index.
func New(p forwarder, index string, cfg QueryConfig) *Repo {
	return &Repo{proxy: p, index: index, cfg: cfg.withDefaults()}
}

// Config returns the effective query settings.
func (r *Repo) Config() QueryConfig { return r.cfg }

// BuildQuery returns the query document Search would send.
func (r *Repo) BuildQuery(req request.Request) (map[string]any, error) {
	return BuildQuery(req, r.cfg)
}

// Search runs req against the index and normalizes the answer.
func (r *Repo) Search(ctx context.Context, req request.Request) (result.Page, error) {
	doc, err := r.BuildQuery(req)
	if err != nil {
		return result.Page{}, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return result.Page{}, fmt.Errorf("marshal query: %w", err)
	}

	resp, err := r.proxy.Forward(ctx, http.MethodPost, url.PathEscape(r.index)+"/_search", "", body)
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s: %w", r.index, err)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		msg := resp.Body
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return result.Page{}, fmt.Errorf("%w: HTTP %d: %s", domain.ErrSearchEngine, resp.Status, msg)
	}

	page, err := NormalizeResponse(resp.Body, r.cfg.IDField)
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s: %w", r.index, err)
	}
	return page, nil
}
