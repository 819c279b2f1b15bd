package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/domain/assist"
)

// Assistant implements the suggest/organize/edit capabilities on an
// OpenAI-compatible chat completion API with JSON output.
type Assistant struct {
	client *openai.Client
	model  string
	user   string
	logger *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	User    string
	Logger  *zap.Logger
}

// NewAssistant creates an OpenAI-compatible assistant.
func NewAssistant(cfg *Config) *Assistant {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		user:   cfg.User,
		logger: log,
	}
}

const (
	suggestPrompt = `You title and summarize personal notes. Reply with a JSON object ` +
		`{"title": string (max 60 chars), "summary": string (max 200 chars), ` +
		`"language": ISO 639-1 code of the note, "wordCount": number of words in the note}.`
	organizePrompt = `You reorganize personal notes into clear Markdown sections without ` +
		`adding facts. Reply with a JSON object {"language": ISO 639-1 code, "editedContent": string}.`
	editPrompt = `You copy-edit personal notes: fix spelling, grammar and punctuation, ` +
		`keep the author's language and meaning. Reply with a JSON object ` +
		`{"language": ISO 639-1 code, "wordCount": number of words in the result, "editedContent": string}.`
)

type completion struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Language      string `json:"language"`
	WordCount     int    `json:"wordCount"`
	EditedContent string `json:"editedContent"`
}

// Suggest proposes a title and summary.
func (a *Assistant) Suggest(ctx context.Context, text string) (assist.Suggestion, error) {
	c, err := a.complete(ctx, assist.OperationSuggest, suggestPrompt, text)
	if err != nil {
		return assist.Suggestion{}, err
	}
	s, err := assist.NewSuggestion(c.Title, c.Summary, assist.Language(c.Language), c.WordCount, text)
	if err != nil {
		return assist.Suggestion{}, domain.NewUpstreamError(string(assist.OperationSuggest), 0, err.Error())
	}
	return s, nil
}

// Organize restructures the text.
func (a *Assistant) Organize(ctx context.Context, text string) (assist.Organized, error) {
	c, err := a.complete(ctx, assist.OperationOrganize, organizePrompt, text)
	if err != nil {
		return assist.Organized{}, err
	}
	o, err := assist.NewOrganized(assist.Language(c.Language), c.EditedContent, text)
	if err != nil {
		return assist.Organized{}, domain.NewUpstreamError(string(assist.OperationOrganize), 0, err.Error())
	}
	return o, nil
}

// Edit copy-edits the text.
func (a *Assistant) Edit(ctx context.Context, text string) (assist.Edited, error) {
	c, err := a.complete(ctx, assist.OperationEdit, editPrompt, text)
	if err != nil {
		return assist.Edited{}, err
	}
	e, err := assist.NewEdited(assist.Language(c.Language), c.WordCount, c.EditedContent, text)
	if err != nil {
		return assist.Edited{}, domain.NewUpstreamError(string(assist.OperationEdit), 0, err.Error())
	}
	return e, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (a *Assistant) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (a *Assistant) complete(ctx context.Context, op assist.Operation, prompt, text string) (completion, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.2,
		User:           a.user,
	})
	if err != nil {
		return completion{}, parseAPIError(op, err)
	}
	if len(resp.Choices) == 0 {
		return completion{}, domain.NewUpstreamError(string(op), 0, "empty completion response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var c completion
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return completion{}, domain.NewUpstreamError(string(op), 0, "decode completion: "+err.Error())
	}

	a.logger.Debug("completion",
		zap.String("operation", string(op)),
		zap.String("model", a.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return c, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are *domain.UpstreamError for correct 502 mapping.
func parseAPIError(op assist.Operation, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = strings.TrimSpace(string(reqErr.Body))
		}
		return domain.NewUpstreamError(string(op), reqErr.HTTPStatusCode, msg)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewUpstreamError(string(op), apiErr.HTTPStatusCode, apiErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewUpstreamError(string(op), 0, "request timed out")
	}
	return domain.NewUpstreamError(string(op), 0, err.Error())
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
