package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// IndexManager creates engine indices. Implemented by the elastic and opensearch drivers.
type IndexManager interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, body []byte) error
}

// IndexBody returns settings and mappings for the notes index.
func IndexBody(cfg QueryConfig) ([]byte, error) {
	cfg = cfg.withDefaults()

	textField := map[string]any{
		"type": "text",
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		},
	}
	props := map[string]any{
		"title":     textField,
		"content":   textField,
		"status":    map[string]any{"type": "keyword"},
		"createdAt": map[string]any{"type": "date"},
		"updatedAt": map[string]any{"type": "date"},
	}
	for _, f := range cfg.SearchableFields {
		name, _, _ := strings.Cut(f, "^")
		if _, ok := props[name]; !ok {
			props[name] = textField
		}
	}
	props[cfg.IDField] = map[string]any{"type": "keyword"}

	body, err := json.Marshal(map[string]any{
		"settings": map[string]any{"number_of_shards": 1},
		"mappings": map[string]any{"properties": props},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal index body: %w", err)
	}
	return body, nil
}

// EnsureIndex creates index when missing. It reports whether the index was created.
func EnsureIndex(ctx context.Context, mgr IndexManager, index string, cfg QueryConfig) (bool, error) {
	exists, err := mgr.IndexExists(ctx, index)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", index, err)
	}
	if exists {
		return false, nil
	}
	body, err := IndexBody(cfg)
	if err != nil {
		return false, err
	}
	if err := mgr.CreateIndex(ctx, index, body); err != nil {
		return false, fmt.Errorf("create index %s: %w", index, err)
	}
	return true, nil
}
