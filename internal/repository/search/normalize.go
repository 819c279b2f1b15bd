package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
)

type rawResponse struct {
	Hits *rawHits `json:"hits"`
}

type rawHits struct {
	Total json.RawMessage `json:"total"`
	Hits  *[]rawHit       `json:"hits"`
}

type rawHit struct {
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

// NormalizeResponse maps a raw _search body to results, keeping the engine's order.
// The note ID is taken from idField in _source when present, otherwise from _id.
func NormalizeResponse(raw []byte, idField string) (result.Page, error) {
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return result.Page{}, fmt.Errorf("%w: decode: %v", domain.ErrMalformedUpstreamResponse, err)
	}
	if resp.Hits == nil || resp.Hits.Hits == nil {
		return result.Page{}, fmt.Errorf("%w: missing hits.hits", domain.ErrMalformedUpstreamResponse)
	}
	hits := *resp.Hits.Hits

	total, err := parseTotal(resp.Hits.Total, len(hits))
	if err != nil {
		return result.Page{}, err
	}

	results := make([]result.Result, 0, len(hits))
	for i, h := range hits {
		id := sourceID(h.Source, idField)
		if id == "" {
			id = h.ID
		}
		if id == "" {
			return result.Page{}, fmt.Errorf("%w: hit %d has no id", domain.ErrMalformedUpstreamResponse, i)
		}
		results = append(results, result.New(id, h.Score, h.Highlight, h.Source))
	}
	return result.Page{Total: total, Results: results}, nil
}

// parseTotal accepts both `"total": 12` and `"total": {"value": 12, "relation": "eq"}`.
func parseTotal(raw json.RawMessage, fallback int) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return int64(fallback), nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var obj struct {
		Value *int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Value == nil {
		return 0, fmt.Errorf("%w: unreadable hits.total", domain.ErrMalformedUpstreamResponse)
	}
	return *obj.Value, nil
}

func sourceID(src json.RawMessage, idField string) string {
	if len(src) == 0 || idField == "" {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(src, &fields); err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(fields[idField], &id); err != nil {
		return ""
	}
	return id
}
