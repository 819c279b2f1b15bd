package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/app"
	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/notesearch/internal/domain/search/order"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/notesearch/internal/usecase/search"
)

var (
	queryText    string
	queryFilters []string
	querySort    string
	queryOffset  int
	queryLimit   int
	queryExecute bool
	queryJSON    bool
	queryTimeout int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Build (and optionally run) a note search query",
	Long: `
Build the engine query for a note search and print it. With --execute the
query is sent to the configured engine and the normalized results are printed.

Filters are field=value for exact matches, or field>=v, field>v, field<=v,
field<v for ranges. Repeat --filter to combine them (all must match).

Examples:
  # Show the query DSL
  notesearch query -q "weekly plan" -f status=active -f createdAt>=2024-01-01

  # Run it, newest first
  notesearch query -q "weekly plan" --sort createdAt:desc --limit 5 --execute
`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "Free-text query (empty matches all notes)")
	queryCmd.Flags().StringArrayVarP(&queryFilters, "filter", "f", nil, "Filter as field=value or field>=value (repeatable)")
	queryCmd.Flags().StringVar(&querySort, "sort", "", "Sort clauses, e.g. createdAt:desc,title:asc")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "Number of results to skip")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Page size (default search.default_page_size)")
	queryCmd.Flags().BoolVarP(&queryExecute, "execute", "x", false, "Send the query to the engine")
	queryCmd.Flags().BoolVarP(&queryJSON, "json", "j", false, "Print results as JSON")
	queryCmd.Flags().IntVar(&queryTimeout, "timeout", 30, "Request timeout in seconds")
}

func runQuery(cmd *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	req, err := buildRequest(queryText, queryFilters, querySort, queryOffset, limitOr(queryLimit, cfg.Search.DefaultPageSize))
	if err != nil {
		return err
	}

	eng, err := app.NewEngine(cfg.Search)
	if err != nil {
		return err
	}
	_, repo := app.NewSearch(cfg, eng, logger)
	svc := searchuc.New(repo, logger)

	out := cmd.OutOrStdout()
	if !queryExecute {
		dsl, err := svc.Plan(req)
		if err != nil {
			return err
		}
		return printJSON(out, dsl)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(queryTimeout)*time.Second)
	defer cancel()

	logger.Debug("executing search", zap.String("index", cfg.Search.Index), zap.String("query", req.Query()))
	page, err := svc.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if queryJSON {
		return printJSON(out, pageJSON(page))
	}
	printPage(out, page)
	return nil
}

func limitOr(limit, def int) int {
	if limit == 0 {
		return def
	}
	return limit
}

func buildRequest(q string, filters []string, sort string, offset, limit int) (request.Request, error) {
	expr, err := parseFilters(filters)
	if err != nil {
		return request.Request{}, err
	}
	clauses, err := order.ParseList(sort)
	if err != nil {
		return request.Request{}, err
	}
	return request.New(q, expr, clauses, offset, limit)
}

// parseFilters turns field=value and field>=value flags into a filter expression.
// Range bounds on the same field are merged.
func parseFilters(specs []string) (filter.Expression, error) {
	raw := make(map[string]any, len(specs))
	for _, spec := range specs {
		i := strings.IndexAny(spec, "<>=")
		if i <= 0 {
			return filter.Expression{}, fmt.Errorf("%w: %q must look like field=value or field>=value",
				domain.ErrInvalidFilter, spec)
		}
		field, rest := strings.TrimSpace(spec[:i]), spec[i:]

		var op, value string
		switch {
		case strings.HasPrefix(rest, ">="):
			op, value = "gte", rest[2:]
		case strings.HasPrefix(rest, "<="):
			op, value = "lte", rest[2:]
		case strings.HasPrefix(rest, ">"):
			op, value = "gt", rest[1:]
		case strings.HasPrefix(rest, "<"):
			op, value = "lt", rest[1:]
		default:
			value = rest[1:]
		}

		prev, seen := raw[field]
		if op == "" {
			if seen {
				return filter.Expression{}, fmt.Errorf("%w: field %q filtered more than once", domain.ErrInvalidFilter, field)
			}
			raw[field] = flagValue(value)
			continue
		}
		bounds, ok := prev.(map[string]any)
		if seen && !ok {
			return filter.Expression{}, fmt.Errorf("%w: field %q mixes match and range", domain.ErrInvalidFilter, field)
		}
		if !seen {
			bounds = make(map[string]any, 2)
			raw[field] = bounds
		}
		bounds[op] = flagValue(value)
	}
	return filter.Parse(raw)
}

// flagValue types a flag value the way a JSON body would.
func flagValue(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return json.Number(s)
	}
	return s
}

type resultJSON struct {
	NoteID     string              `json:"noteId"`
	Score      *float64            `json:"score,omitempty"`
	Highlights map[string][]string `json:"highlights,omitempty"`
	Source     json.RawMessage     `json:"source,omitempty"`
}

func pageJSON(page result.Page) map[string]any {
	items := make([]resultJSON, len(page.Results))
	for i := range page.Results {
		r := &page.Results[i]
		items[i] = resultJSON{NoteID: r.NoteID(), Highlights: r.Highlights(), Source: r.Source()}
		if r.Scored() {
			s := r.Score()
			items[i].Score = &s
		}
	}
	return map[string]any{"total": page.Total, "results": items}
}

func printPage(w io.Writer, page result.Page) {
	fmt.Fprintf(w, "Found %d notes (showing %d)\n", page.Total, len(page.Results))
	for i := range page.Results {
		r := &page.Results[i]
		if r.Scored() {
			fmt.Fprintf(w, "%3d. %s  score=%.3f\n", i+1, r.NoteID(), r.Score())
		} else {
			fmt.Fprintf(w, "%3d. %s\n", i+1, r.NoteID())
		}
		for field, frags := range r.Highlights() {
			fmt.Fprintf(w, "     %s: %s\n", field, strings.Join(frags, " ... "))
		}
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
