package notesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/notesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/notesearch/internal/domain/search/order"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
)

// SearchRequest is a typed note search. An empty Query matches all notes;
// Limit 0 selects the default page size.
type SearchRequest struct {
	Query   string
	Filters []Filter
	Sort    []Sort
	Offset  int
	Limit   int
}

// Filter restricts results by one field. Exactly one of Value or Bounds is set.
type Filter struct {
	Field  string
	Value  any
	Bounds *Bounds
}

// Bounds is a range over numbers or date strings. Nil sides are open.
type Bounds struct {
	GT, GTE, LT, LTE any
}

// Match filters on an exact field value.
func Match(field string, value any) Filter { return Filter{Field: field, Value: value} }

// Range filters on a field range.
func Range(field string, b Bounds) Filter { return Filter{Field: field, Bounds: &b} }

// Sort orders results by a field.
type Sort struct {
	Field string
	Desc  bool
}

// Asc sorts by field ascending.
func Asc(field string) Sort { return Sort{Field: field} }

// Desc sorts by field descending.
func Desc(field string) Sort { return Sort{Field: field, Desc: true} }

// SearchPage is one page of search results.
type SearchPage struct {
	Total   int64
	Results []SearchResult
}

// SearchResult is a matched note.
type SearchResult struct {
	NoteID     string
	Score      *float64 // nil when the engine did not score the hit
	Highlights map[string][]string
	Source     json.RawMessage
}

// Search runs a typed note search.
func (c *Client) Search(ctx context.Context, sr SearchRequest) (page SearchPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe(call{op: opSearch, start: start, err: err}) }()

	req, err := toRequest(sr)
	if err != nil {
		return SearchPage{}, err
	}
	p, err := c.searchSvc.Search(ctx, req)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromPage(p), nil
}

func toRequest(sr SearchRequest) (request.Request, error) {
	conds := make([]filter.Condition, 0, len(sr.Filters))
	for _, f := range sr.Filters {
		var (
			c   filter.Condition
			err error
		)
		if f.Bounds != nil {
			var r filter.Range
			r, err = filter.NewRangeFilter(f.Bounds.GT, f.Bounds.GTE, f.Bounds.LT, f.Bounds.LTE)
			if err == nil {
				c, err = filter.NewRange(f.Field, r)
			}
		} else {
			c, err = filter.NewMatch(f.Field, f.Value)
		}
		if err != nil {
			return request.Request{}, err
		}
		conds = append(conds, c)
	}
	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return request.Request{}, err
	}

	clauses := make([]order.Clause, 0, len(sr.Sort))
	for _, s := range sr.Sort {
		dir := string(order.Asc)
		if s.Desc {
			dir = string(order.Desc)
		}
		cl, err := order.New(s.Field, dir)
		if err != nil {
			return request.Request{}, err
		}
		clauses = append(clauses, cl)
	}
	return request.New(sr.Query, expr, clauses, sr.Offset, sr.Limit)
}

func fromPage(p result.Page) SearchPage {
	out := SearchPage{Total: p.Total, Results: make([]SearchResult, len(p.Results))}
	for i := range p.Results {
		r := &p.Results[i]
		out.Results[i] = SearchResult{NoteID: r.NoteID(), Highlights: r.Highlights(), Source: r.Source()}
		if r.Scored() {
			s := r.Score()
			out.Results[i].Score = &s
		}
	}
	return out
}
