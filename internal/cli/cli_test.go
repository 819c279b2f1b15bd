package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/version"
)

const testConfigYAML = `
http:
  port: 8080
ai:
  secret: s3cret
  workers:
    suggest_url: http://127.0.0.1:1/suggest
    organize_url: http://127.0.0.1:1/organize
    edit_url: http://127.0.0.1:1/edit
search:
  base_url: http://127.0.0.1:1
  index: notes
  default_page_size: 10
quota:
  max_words_per_day: 1000
  max_requests_per_day: 0
usage:
  driver: sqlite
  sqlite_path: %s
logging:
  level: error
`

func resetFlags() {
	envName, configPath, envFiles = "", "", []string{".env"}
	queryText, queryFilters, querySort = "", nil, ""
	queryOffset, queryLimit, queryTimeout = 0, 0, 30
	queryExecute, queryJSON = false, false
	ensureIndexPrint, ensureIndexTimeout = false, 30
	usageUser, usageReset = "", false
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	data := fmt.Sprintf(testConfigYAML, filepath.Join(dir, "usage.db"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "notesearch "+version.Version)
}

func TestQueryCommand_PrintsPlan(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "query", "--env", "local", "--config", cfg,
		"-q", "weekly plan", "-f", "status=active", "-f", "createdAt>=2024-01-01", "--sort", "createdAt:desc")
	require.NoError(t, err)

	var dsl map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &dsl), out)
	assert.EqualValues(t, 10, dsl["size"])
	assert.Equal(t, true, dsl["track_total_hits"])

	b := dsl["query"].(map[string]any)["bool"].(map[string]any)
	assert.Len(t, b["filter"], 2)
	assert.Contains(t, out, "multi_match")
	assert.Contains(t, out, `"noteId"`)
}

func TestQueryCommand_InvalidFilter(t *testing.T) {
	cfg := writeConfig(t)
	_, err := execute(t, "query", "--env", "local", "--config", cfg, "-f", "status")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidFilter))
}

func TestEnsureIndexCommand_Print(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "ensure-index", "--env", "local", "--config", cfg, "--print")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	assert.Contains(t, body, "mappings")
	assert.Contains(t, body, "settings")
}

func TestUsageCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "usage", "--env", "local", "--config", cfg, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Words:     0 used, 1000 remaining")
	assert.Contains(t, out, "Requests:  0 used, unlimited remaining")

	out, err = execute(t, "usage", "--env", "local", "--config", cfg, "--user", "u1", "--reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset usage for u1")
}

func TestParseFilters(t *testing.T) {
	expr, err := parseFilters([]string{"status=active", "wordCount>10", "wordCount<=200", "pinned=true"})
	require.NoError(t, err)

	conds := expr.Conditions()
	require.Len(t, conds, 3)
	byKey := map[string]int{}
	for i, c := range conds {
		byKey[c.Key()] = i
	}

	assert.Equal(t, "active", conds[byKey["status"]].Match())
	assert.Equal(t, true, conds[byKey["pinned"]].Match())
	r := conds[byKey["wordCount"]].Range()
	require.NotNil(t, r)
	assert.Equal(t, json.Number("10"), r.GT())
	assert.Equal(t, json.Number("200"), r.LTE())
}

func TestParseFilters_Errors(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
	}{
		{"no operator", []string{"status"}},
		{"no field", []string{"=active"}},
		{"empty value", []string{"status="}},
		{"duplicate match", []string{"status=a", "status=b"}},
		{"match then range", []string{"n=1", "n>2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFilters(tt.specs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidFilter), err.Error())
		})
	}
}

func TestFlagValue(t *testing.T) {
	assert.Equal(t, json.Number("42"), flagValue("42"))
	assert.Equal(t, json.Number("-1.5"), flagValue(" -1.5 "))
	assert.Equal(t, false, flagValue("false"))
	assert.Equal(t, "2024-01-01", flagValue("2024-01-01"))
}

func TestBuildRequest_Limits(t *testing.T) {
	req, err := buildRequest("", nil, "", 0, limitOr(0, 15))
	require.NoError(t, err)
	assert.Equal(t, 15, req.Page().Limit)

	_, err = buildRequest("", nil, "", -1, 10)
	require.Error(t, err)
}
