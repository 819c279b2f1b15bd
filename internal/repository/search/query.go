package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/notesearch/internal/domain/search/order"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
)

// QueryConfig controls how a request maps onto the engine DSL.
type QueryConfig struct {
	// SearchableFields may carry a boost suffix ("title^2").
	SearchableFields []string
	HighlightFields  []string
	// IDField is the keyword field appended as the final sort tie-breaker.
	IDField     string
	MaxPageSize int
}

// DefaultQueryConfig returns the settings used when none are configured.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		SearchableFields: []string{"title^2", "content"},
		HighlightFields:  []string{"title", "content"},
		IDField:          "noteId",
		MaxPageSize:      request.MaxLimit,
	}
}

func (c QueryConfig) withDefaults() QueryConfig {
	def := DefaultQueryConfig()
	if len(c.SearchableFields) == 0 {
		c.SearchableFields = def.SearchableFields
	}
	if c.HighlightFields == nil {
		c.HighlightFields = def.HighlightFields
	}
	if c.IDField == "" {
		c.IDField = def.IDField
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = def.MaxPageSize
	}
	return c
}

// BuildQuery translates a validated request into an engine query document.
// The result is a plain map so encoding/json emits keys in a stable order.
func BuildQuery(req request.Request, cfg QueryConfig) (map[string]any, error) {
	cfg = cfg.withDefaults()

	var must any = map[string]any{"match_all": map[string]any{}}
	if q := strings.TrimSpace(req.Query()); q != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":    q,
				"fields":   cfg.SearchableFields,
				"type":     "best_fields",
				"operator": "or",
			},
		}
	}

	filters, err := filterClauses(req.Filters())
	if err != nil {
		return nil, err
	}
	boolQuery := map[string]any{"must": []any{must}}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	page := req.Page()
	size := page.Limit
	if size > cfg.MaxPageSize {
		size = cfg.MaxPageSize
	}

	doc := map[string]any{
		"query":            map[string]any{"bool": boolQuery},
		"sort":             sortClauses(req.Sort(), cfg.IDField),
		"from":             page.Offset,
		"size":             size,
		"track_total_hits": true,
	}
	if len(cfg.HighlightFields) > 0 {
		fields := make(map[string]any, len(cfg.HighlightFields))
		for _, f := range cfg.HighlightFields {
			fields[f] = map[string]any{}
		}
		doc["highlight"] = map[string]any{
			"fields":    fields,
			"pre_tags":  []string{"<mark>"},
			"post_tags": []string{"</mark>"},
		}
	}
	return doc, nil
}

// filterClauses emits one clause per condition, in the expression's key order.
func filterClauses(expr filter.Expression) ([]any, error) {
	conds := expr.Conditions()
	if len(conds) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(conds))
	for _, c := range conds {
		switch {
		case c.IsMatch():
			out = append(out, map[string]any{
				"term": map[string]any{c.Key(): c.Match()},
			})
		case c.IsRange():
			out = append(out, map[string]any{
				"range": map[string]any{c.Key(): rangeBounds(c.Range())},
			})
		default:
			return nil, fmt.Errorf("%w: %q has no supported clause", domain.ErrInvalidFilter, c.Key())
		}
	}
	return out, nil
}

func rangeBounds(r *filter.Range) map[string]any {
	b := make(map[string]any, 2)
	if v := r.GT(); v != nil {
		b["gt"] = v
	}
	if v := r.GTE(); v != nil {
		b["gte"] = v
	}
	if v := r.LT(); v != nil {
		b["lt"] = v
	}
	if v := r.LTE(); v != nil {
		b["lte"] = v
	}
	return b
}

func sortClauses(clauses []order.Clause, idField string) []any {
	out := make([]any, 0, len(clauses)+2)
	if len(clauses) == 0 {
		out = append(out, map[string]any{"_score": map[string]any{"order": string(order.Desc)}})
	}
	hasID := false
	for _, c := range clauses {
		if c.Field() == idField {
			hasID = true
		}
		out = append(out, map[string]any{
			c.Field(): map[string]any{"order": string(c.Direction())},
		})
	}
	if !hasID {
		out = append(out, map[string]any{idField: map[string]any{"order": string(order.Asc)}})
	}
	return out
}
