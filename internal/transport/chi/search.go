package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/notesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/notesearch/internal/domain/search/order"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
)

type sortItem struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	Sort    []sortItem     `json:"sort"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

type searchResultItem struct {
	NoteID     string              `json:"noteId"`
	Score      *float64            `json:"score,omitempty"`
	Highlights map[string][]string `json:"highlights,omitempty"`
	Source     json.RawMessage     `json:"source,omitempty"`
}

type searchResponse struct {
	Success bool               `json:"success"`
	Total   int64              `json:"total"`
	Results []searchResultItem `json:"results"`
}

// SearchNotes handles POST /api/notes/search.
func (s *Server) SearchNotes(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var body searchRequest
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "invalid request body: "+err.Error())
		return
	}

	body.Limit = s.limitOrDefault(body.Limit)
	req, err := searchRequestFromBody(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, req)
}

// SearchNotesQuery handles GET /api/notes/search?q=&offset=&limit=&sort=.
func (s *Server) SearchNotesQuery(w http.ResponseWriter, r *http.Request) {
	var (
		q      string
		sort   string
		offset int
		limit  int
	)
	params := r.URL.Query()
	for _, p := range []struct {
		name string
		dest any
	}{{"q", &q}, {"sort", &sort}, {"offset", &offset}, {"limit", &limit}} {
		if err := runtime.BindQueryParameter("form", true, false, p.name, params, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidInput, fmt.Sprintf("invalid %s parameter", p.name))
			return
		}
	}

	clauses, err := order.ParseList(sort)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	req, err := request.New(q, filter.Expression{}, clauses, offset, s.limitOrDefault(limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req request.Request) {
	page, err := s.deps.Search.Search(r.Context(), req)
	if err != nil {
		if !canceled(r) {
			s.handleDomainError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

func (s *Server) limitOrDefault(limit int) int {
	if limit == 0 && s.opts.DefaultLimit > 0 {
		return s.opts.DefaultLimit
	}
	return limit
}

func searchRequestFromBody(body searchRequest) (request.Request, error) {
	filters, err := filter.Parse(body.Filters)
	if err != nil {
		return request.Request{}, fmt.Errorf("parse filters: %w", err)
	}

	clauses := make([]order.Clause, 0, len(body.Sort))
	for _, item := range body.Sort {
		c, err := order.New(item.Field, item.Direction)
		if err != nil {
			return request.Request{}, fmt.Errorf("parse sort: %w", err)
		}
		clauses = append(clauses, c)
	}

	req, err := request.New(body.Query, filters, clauses, body.Offset, body.Limit)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return req, nil
}

func pageToResponse(page result.Page) searchResponse {
	items := make([]searchResultItem, len(page.Results))
	for i := range page.Results {
		res := &page.Results[i]
		item := searchResultItem{
			NoteID:     res.NoteID(),
			Highlights: res.Highlights(),
			Source:     res.Source(),
		}
		if res.Scored() {
			score := res.Score()
			item.Score = &score
		}
		items[i] = item
	}
	return searchResponse{Success: true, Total: page.Total, Results: items}
}

// ProxySearch handles /api/search/*: status and body are relayed verbatim.
func (s *Server) ProxySearch(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "unreadable request body")
			return
		}
	}

	resp, err := s.deps.Proxy.Forward(r.Context(), r.Method, chi.URLParam(r, "*"), r.URL.RawQuery, body)
	if err != nil {
		if !canceled(r) {
			s.handleDomainError(w, r, err)
		}
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}
