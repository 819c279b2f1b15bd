package notesearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/notesearch/internal/domain"
)

// WordUsage reports the words committed against the caller's daily quota.
type WordUsage struct {
	Charged   bool
	Words     int
	Remaining int64 // -1 when unlimited
}

// Suggestion is a proposed title and summary for a note.
type Suggestion struct {
	Title     string
	Summary   string
	Language  string
	WordCount int
	// Fallback is set when the suggestion was derived locally.
	Fallback bool
	Usage    WordUsage
}

// Organized is restructured note content.
type Organized struct {
	Language      string
	EditedContent string
	Usage         WordUsage
}

// Edited is copy-edited note content.
type Edited struct {
	Language      string
	WordCount     int
	EditedContent string
	Usage         WordUsage
}

// Suggest proposes a title and summary for text.
// When the AI provider fails, the quota is exhausted or usage cannot be checked,
// the locally derived suggestion is returned together with the error.
func (c *Client) Suggest(ctx context.Context, userID, text string) (s Suggestion, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(call{op: opSuggest, userID: userID, start: start, err: err, fallback: s.Fallback, words: s.Usage.Words})
	}()

	if c.assistSvc == nil {
		return Suggestion{}, ErrAINotConfigured
	}
	ctx, wu := domain.NewContextWithWordUsage(ctx)
	res, err := c.assistSvc.Suggest(ctx, userID, text)
	s = Suggestion{
		Title:     res.Title,
		Summary:   res.Summary,
		Language:  string(res.Language),
		WordCount: res.WordCount,
		Fallback:  res.Fallback,
		Usage:     usageOf(wu),
	}
	if err != nil {
		return s, fmt.Errorf("suggest: %w", err)
	}
	return s, nil
}

// Organize restructures text.
func (c *Client) Organize(ctx context.Context, userID, text string) (o Organized, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(call{op: opOrganize, userID: userID, start: start, err: err, words: o.Usage.Words})
	}()

	if c.assistSvc == nil {
		return Organized{}, ErrAINotConfigured
	}
	ctx, wu := domain.NewContextWithWordUsage(ctx)
	res, err := c.assistSvc.Organize(ctx, userID, text)
	if err != nil {
		return Organized{}, fmt.Errorf("organize: %w", err)
	}
	return Organized{Language: string(res.Language), EditedContent: res.EditedContent, Usage: usageOf(wu)}, nil
}

// Edit copy-edits text.
func (c *Client) Edit(ctx context.Context, userID, text string) (e Edited, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe(call{op: opEdit, userID: userID, start: start, err: err, words: e.Usage.Words})
	}()

	if c.assistSvc == nil {
		return Edited{}, ErrAINotConfigured
	}
	ctx, wu := domain.NewContextWithWordUsage(ctx)
	res, err := c.assistSvc.Edit(ctx, userID, text)
	if err != nil {
		return Edited{}, fmt.Errorf("edit: %w", err)
	}
	return Edited{
		Language:      string(res.Language),
		WordCount:     res.WordCount,
		EditedContent: res.EditedContent,
		Usage:         usageOf(wu),
	}, nil
}

func usageOf(wu *domain.WordUsage) WordUsage {
	return WordUsage{Charged: wu.Charged, Words: wu.Words, Remaining: wu.Remaining}
}
