package notesearch

import (
	"context"

	domassist "github.com/kailas-cloud/notesearch/internal/domain/assist"
	"github.com/kailas-cloud/notesearch/internal/domain/search/request"
	"github.com/kailas-cloud/notesearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/notesearch/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req request.Request) (result.Page, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req request.Request) (result.Page, error) {
	return m.searchFn(ctx, req)
}

// --- assistUseCase mock ---

type mockAssistUC struct {
	suggestFn  func(ctx context.Context, userID, text string) (domassist.Suggestion, error)
	organizeFn func(ctx context.Context, userID, text string) (domassist.Organized, error)
	editFn     func(ctx context.Context, userID, text string) (domassist.Edited, error)
}

func (m *mockAssistUC) Suggest(ctx context.Context, userID, text string) (domassist.Suggestion, error) {
	return m.suggestFn(ctx, userID, text)
}

func (m *mockAssistUC) Organize(ctx context.Context, userID, text string) (domassist.Organized, error) {
	return m.organizeFn(ctx, userID, text)
}

func (m *mockAssistUC) Edit(ctx context.Context, userID, text string) (domassist.Edited, error) {
	return m.editFn(ctx, userID, text)
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	reportFn func(ctx context.Context, userID string) (domusage.Report, error)
	resetFn  func(ctx context.Context, userID string) error
}

func (m *mockUsageUC) Report(ctx context.Context, userID string) (domusage.Report, error) {
	return m.reportFn(ctx, userID)
}

func (m *mockUsageUC) Reset(ctx context.Context, userID string) error {
	return m.resetFn(ctx, userID)
}

// --- healthUseCase mock ---

type mockHealthUC struct{ report healthuc.Report }

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
