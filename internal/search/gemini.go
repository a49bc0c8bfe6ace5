package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shikanime-studio/deepresearch/internal/llm"
	"google.golang.org/genai"
)

var _ LLMCrawler = (*GeminiSearch)(nil)

// GeminiSearch answers queries with a Gemini model grounded on Google Search.
type GeminiSearch struct {
	model       llm.Model
	client      *genai.Client
	contextSize string
	timeout     time.Duration
}

// NewGeminiSearch binds a Google model to a borrowed genai client. The
// context size is optional and only used for cost reporting.
func NewGeminiSearch(model llm.Model, client *genai.Client, contextSize string, timeout time.Duration) (*GeminiSearch, error) {
	if client == nil || model.Provider != llm.ProviderGoogle {
		return nil, fmt.Errorf("%w: gemini search crawler with model %s", llm.ErrProviderMismatch, model)
	}
	if contextSize != "" && !validContextSize(contextSize) {
		return nil, fmt.Errorf("%w: got %q", ErrContextSizeRequired, contextSize)
	}
	return &GeminiSearch{model: model, client: client, contextSize: contextSize, timeout: timeout}, nil
}

// Model returns the bound model.
func (s *GeminiSearch) Model() llm.Model { return s.model }

// SearchContextSize returns the configured context size, possibly empty.
func (s *GeminiSearch) SearchContextSize() string { return s.contextSize }

// Search runs the query with the GoogleSearch tool enabled. A timeout yields
// an empty result.
func (s *GeminiSearch) Search(ctx context.Context, query string) (Result, error) {
	slog.InfoContext(ctx, "searching query", "crawler", "gemini", "model", s.model.ID, "query", query)

	callCtx, cancel := context.WithCancel(ctx)
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	resp, err := s.client.Models.GenerateContent(callCtx, s.model.ID, genai.Text(query), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		if llm.DeadlineHit(ctx, callCtx, err) {
			slog.ErrorContext(ctx, "request timeout", "crawler", "gemini", "query", query, "err", err)
			slog.WarnContext(ctx, "returning empty response", "crawler", "gemini")
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("gemini search: %w", err)
	}

	res := Result{Text: resp.Text(), Usage: llm.FromGemini(resp.UsageMetadata)}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			res.Items = append(res.Items, Item{Title: chunk.Web.Title, URL: chunk.Web.URI})
		}
	}
	return res, nil
}
