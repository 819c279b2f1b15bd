package assist

import (
	"context"

	domassist "github.com/kailas-cloud/notesearch/internal/domain/assist"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	"github.com/kailas-cloud/notesearch/internal/domain/usage/quota"
)

// Assistant performs the remote AI capabilities. Each call is attempted once.
type Assistant interface {
	Suggest(ctx context.Context, text string) (domassist.Suggestion, error)
	Organize(ctx context.Context, text string) (domassist.Organized, error)
	Edit(ctx context.Context, text string) (domassist.Edited, error)
}

// Accountant checks and records per-user daily usage.
type Accountant interface {
	CheckAndReserve(ctx context.Context, userID string, estimatedWords int) (quota.Reservation, error)
	Commit(ctx context.Context, userID string, actualWords int) (domusage.Record, error)
	Remaining(rec domusage.Record) int64
}
