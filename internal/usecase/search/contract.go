package search

import (
	"context"

	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
)

// Repository runs typed note searches against the engine.
type Repository interface {
	BuildQuery(req request.Request) (map[string]any, error)
	Search(ctx context.Context, req request.Request) (result.Page, error)
}
