// Package search runs SERP queries for the research controller, either
// through a search API or through an LLM with web search grounding.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shikanime-studio/deepresearch/internal/llm"
)

var (
	// ErrMissingAPIKey is returned when a crawler that needs an API key has none.
	ErrMissingAPIKey = errors.New("search: API key is missing")
	// ErrContextSizeRequired is returned when an OpenAI search crawler is
	// built without a valid search context size.
	ErrContextSizeRequired = errors.New("search: search context size must be low, medium or high")
	// ErrUnsupportedSearchModel is returned for OpenAI models that cannot
	// take web search options on the chat completions API.
	ErrUnsupportedSearchModel = errors.New("search: model does not support web search")
)

// Item is a single search hit.
type Item struct {
	Title       string
	Description string
	Content     string
	URL         string
}

// Result is what a crawler returns for one query. LLM crawlers fill Text and
// optionally the cited sources in Items; API crawlers fill Items only.
type Result struct {
	Text  string
	Items []Item
	Usage llm.Usage
}

// String renders the result the way it is fed to learning extraction.
func (r Result) String() string {
	if r.Text != "" {
		if len(r.Items) == 0 {
			return r.Text
		}
		var b strings.Builder
		b.WriteString(r.Text)
		b.WriteString("\n\nSources:")
		for _, it := range r.Items {
			fmt.Fprintf(&b, "\n- %s (%s)", it.Title, it.URL)
		}
		return b.String()
	}
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		parts = append(parts, fmt.Sprintf(
			"Title: %s\nDescription: %s\nContent: %s\nURL: %s",
			it.Title, it.Description, it.Content, it.URL))
	}
	return strings.Join(parts, "\n\n")
}

// Crawler executes a SERP query.
type Crawler interface {
	Search(ctx context.Context, query string) (Result, error)
}

// LLMCrawler is a Crawler backed by a model with web search. Its calls are
// billed as model usage, and the controller gives it the research goal along
// with the query.
type LLMCrawler interface {
	Crawler
	Model() llm.Model
	SearchContextSize() string
}

func validContextSize(size string) bool {
	switch size {
	case "low", "medium", "high":
		return true
	default:
		return false
	}
}
