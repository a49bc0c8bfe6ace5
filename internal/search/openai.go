package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/shikanime-studio/deepresearch/internal/llm"
)

var _ LLMCrawler = (*OpenAISearch)(nil)

const searchPreviewSuffix = "-search-preview"

// OpenAISearch answers queries with an OpenAI search-enabled chat model.
type OpenAISearch struct {
	model       llm.Model
	client      *openai.Client
	contextSize string
	timeout     time.Duration
}

// NewOpenAISearch binds an OpenAI search model to a borrowed client. Only
// *-search-preview models are accepted. The context size is required and
// selects how much web content the model reads.
func NewOpenAISearch(model llm.Model, client *openai.Client, contextSize string, timeout time.Duration) (*OpenAISearch, error) {
	if !validContextSize(contextSize) {
		return nil, fmt.Errorf("%w: got %q", ErrContextSizeRequired, contextSize)
	}
	if client == nil || model.Provider != llm.ProviderOpenAI {
		return nil, fmt.Errorf("%w: openai search crawler with model %s", llm.ErrProviderMismatch, model)
	}
	if !strings.HasSuffix(model.ID, searchPreviewSuffix) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSearchModel, model.ID)
	}
	return &OpenAISearch{model: model, client: client, contextSize: contextSize, timeout: timeout}, nil
}

// Model returns the bound model.
func (s *OpenAISearch) Model() llm.Model { return s.model }

// SearchContextSize returns the configured context size.
func (s *OpenAISearch) SearchContextSize() string { return s.contextSize }

// Search runs the query through the model's web search. A timeout yields an
// empty result.
func (s *OpenAISearch) Search(ctx context.Context, query string) (Result, error) {
	slog.InfoContext(ctx, "searching query", "crawler", "openai", "model", s.model.ID, "query", query)

	callCtx, cancel := context.WithCancel(ctx)
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	completion, err := s.client.Chat.Completions.New(callCtx,
		openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(s.model.ID),
			Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(query)},
			WebSearchOptions: openai.ChatCompletionNewParamsWebSearchOptions{
				SearchContextSize: s.contextSize,
			},
		},
		option.WithMaxRetries(0),
	)
	if err != nil {
		if llm.DeadlineHit(ctx, callCtx, err) {
			slog.ErrorContext(ctx, "request timeout", "crawler", "openai", "query", query, "err", err)
			slog.WarnContext(ctx, "returning empty response", "crawler", "openai")
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("openai search: %w", err)
	}

	res := Result{Usage: llm.FromOpenAI(completion.Usage)}
	if len(completion.Choices) > 0 {
		msg := completion.Choices[0].Message
		res.Text = msg.Content
		for _, a := range msg.Annotations {
			res.Items = append(res.Items, Item{Title: a.URLCitation.Title, URL: a.URLCitation.URL})
		}
	}
	return res, nil
}
