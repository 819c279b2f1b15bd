package request

import (
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/notesearch/internal/domain/search/order"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
	// MaxOffset mirrors the engine's default max_result_window.
	MaxOffset = 10000
)

// Page is an offset/limit window.
type Page struct {
	Offset int
	Limit  int
}

// Request is a validated note search.
type Request struct {
	query   string
	filters filter.Expression
	sort    []order.Clause
	page    Page
}

// New validates and normalizes search parameters.
// An empty query means match-all. Limit 0 selects DefaultLimit; limits above MaxLimit are clamped.
func New(query string, filters filter.Expression, sort []order.Clause, offset, limit int) (Request, error) {
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidInput, MaxQueryLength)
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("%w: offset must be >= 0", domain.ErrInvalidInput)
	}
	if offset > MaxOffset {
		return Request{}, fmt.Errorf("%w: offset must be <= %d", domain.ErrInvalidInput, MaxOffset)
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, MaxLimit)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		query:   query,
		filters: filters,
		sort:    append([]order.Clause(nil), sort...),
		page:    Page{Offset: offset, Limit: limit},
	}, nil
}

// Query returns the free-text query.
func (r *Request) Query() string { return r.query }

// Filters returns the filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Sort returns the sort clauses in caller order.
func (r *Request) Sort() []order.Clause { return r.sort }

// Page returns the pagination window.
func (r *Request) Page() Page { return r.page }
