package notesearch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no engine address provided")
	}
}

func TestNew_WorkersWithoutSecret(t *testing.T) {
	_, err := New(context.Background(),
		WithElasticsearch("http://localhost:9200"),
		WithAIWorkers("http://ai/s", "http://ai/o", "http://ai/e", ""),
	)
	if err == nil {
		t.Fatal("expected error for missing worker secret")
	}
}

func TestOptions(t *testing.T) {
	cc := &clientConfig{}
	for _, o := range []Option{
		WithOpenSearch("http://os:9200"),
		WithEngineAPIKey("k"),
		WithIndex("my-notes"),
		WithSearchFields("title^3", "body"),
		WithIDField("id"),
		WithOpenAI("sk", "", "gpt-4o-mini"),
		WithAITimeout(90 * time.Second),
		WithQuota(500, 10),
		WithValkeyUsage("valkey:6379", "pw"),
	} {
		o.apply(cc)
	}

	if cc.search.Driver != "opensearch" || cc.search.BaseURL != "http://os:9200" || cc.search.APIKey != "k" {
		t.Errorf("search = %+v", cc.search)
	}
	if cc.search.Index != "my-notes" || cc.search.IDField != "id" || len(cc.search.SearchableFields) != 2 {
		t.Errorf("search = %+v", cc.search)
	}
	if !cc.aiConfigured || cc.ai.Provider != "openai" || cc.ai.TimeoutSec != 90 {
		t.Errorf("ai = %+v", cc.ai)
	}
	if cc.quota.MaxWordsPerDay != 500 || cc.quota.MaxRequestsPerDay != 10 {
		t.Errorf("quota = %+v", cc.quota)
	}
	if cc.usage.Driver != "valkey" || cc.usage.Addrs[0] != "valkey:6379" {
		t.Errorf("usage = %+v", cc.usage)
	}
}

// esServer answers like an Elasticsearch node holding one note.
func esServer(t *testing.T) *httptest.Server {
	t.Helper()
	indexed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/":
			_, _ = io.WriteString(w, `{"version":{"number":"8.12.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
		case r.Method == http.MethodHead && r.URL.Path == "/notes":
			if !indexed {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/notes":
			indexed = true
			_, _ = io.WriteString(w, `{"acknowledged":true}`)
		case r.URL.Path == "/notes/_search":
			_, _ = io.WriteString(w, `{"hits":{"total":1,"hits":[{"_id":"n1","_score":2,"_source":{"noteId":"n1"}}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	srv := esServer(t)
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := context.Background()
	c, err := New(ctx,
		WithElasticsearch(srv.URL),
		WithSQLiteUsage(filepath.Join(t.TempDir(), "usage.db")),
		WithQuota(100, 5),
		WithLogger(logger),
		WithPrometheus(reg),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	created, err := c.EnsureIndex(ctx)
	if err != nil || !created {
		t.Fatalf("EnsureIndex = %v, %v", created, err)
	}

	page, err := c.Search(ctx, SearchRequest{Query: "plan"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 1 || page.Results[0].NoteID != "n1" {
		t.Errorf("page = %+v", page)
	}

	r, err := c.Usage(ctx, "u1")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if r.RemainingWords != 100 || r.RemainingRequests != 5 {
		t.Errorf("usage = %+v", r)
	}

	if _, err := c.Suggest(ctx, "u1", "text"); !errors.Is(err, ErrAINotConfigured) {
		t.Errorf("Suggest err = %v", err)
	}

	h := c.Health(ctx)
	if h.Status != "ok" || h.Checks["search_engine"] != "ok" || h.Checks["usage_store"] != "ok" {
		t.Errorf("health = %+v", h)
	}

	if n := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("search", "ok")); n != 1 {
		t.Errorf("search ops = %v, want 1", n)
	}
	if n := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("suggest", "not_configured")); n != 1 {
		t.Errorf("suggest errors = %v, want 1", n)
	}
	if !bytes.Contains(logs.Bytes(), []byte("op=search")) {
		t.Errorf("missing search log line: %s", logs.String())
	}
}

func TestNewObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}
