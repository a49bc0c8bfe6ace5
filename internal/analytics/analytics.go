// Package analytics accumulates token usage across a research session and
// prices it against the model catalog.
package analytics

import (
	"log/slog"
	"sync"

	"github.com/shikanime-studio/deepresearch/internal/llm"
)

// Kind labels what a recorded call was used for.
type Kind string

const (
	KindSearch               Kind = "search"
	KindStructuredCompletion Kind = "structured_completion"
	KindCompletion           Kind = "completion"
)

const (
	tokensPerPricingUnit   = 1_000_000
	searchesPerPricingUnit = 1_000
)

// Snapshot is a point-in-time copy of the tracker counters.
type Snapshot struct {
	TotalCalls        int
	SearchCalls       int
	InputTokens       int64
	CachedInputTokens int64
	CompletionTokens  int64
	TotalTokens       int64
}

// Cost breaks a session's spend down in dollars.
type Cost struct {
	NonCachedInput float64
	CachedInput    float64
	Completion     float64
	Search         float64
	Total          float64
}

// Tracker accumulates usage. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	calls    int
	searches int
	usage    llm.Usage
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record adds the usage of one call.
func (t *Tracker) Record(kind Kind, u llm.Usage) {
	slog.Debug("recording usage",
		"kind", kind,
		"prompt_tokens", u.PromptTokens,
		"cached_tokens", u.CachedPromptTokens,
		"completion_tokens", u.CompletionTokens)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.usage = t.usage.Add(u)
	if kind == KindSearch {
		t.searches++
	}
	t.calls++
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		TotalCalls:        t.calls,
		SearchCalls:       t.searches,
		InputTokens:       t.usage.PromptTokens,
		CachedInputTokens: t.usage.CachedPromptTokens,
		CompletionTokens:  t.usage.CompletionTokens,
		TotalTokens:       t.usage.TotalTokens,
	}
}

// Cost prices the recorded usage with model's rates. Search calls are only
// priced when searchContextSize names a size the model has a search price
// for.
func (t *Tracker) Cost(model llm.Model, searchContextSize string) Cost {
	s := t.Snapshot()

	c := Cost{
		NonCachedInput: float64(s.InputTokens-s.CachedInputTokens) / tokensPerPricingUnit * model.Pricing.NonCachedInput,
		CachedInput:    float64(s.CachedInputTokens) / tokensPerPricingUnit * model.Pricing.CachedInput,
		Completion:     float64(s.CompletionTokens) / tokensPerPricingUnit * model.Pricing.Completion,
	}
	if searchContextSize != "" && model.SearchPricing != nil {
		if price, ok := model.SearchPricing.ForContextSize(searchContextSize); ok {
			c.Search = float64(s.SearchCalls) / searchesPerPricingUnit * price
		}
	}
	c.Total = c.NonCachedInput + c.CachedInput + c.Completion + c.Search

	slog.Debug("session cost",
		"total_calls", s.TotalCalls,
		"search_calls", s.SearchCalls,
		"non_cached_input", c.NonCachedInput,
		"cached_input", c.CachedInput,
		"completion", c.Completion,
		"search", c.Search)
	return c
}

// TotalCost is Cost(model, searchContextSize).Total.
func (t *Tracker) TotalCost(model llm.Model, searchContextSize string) float64 {
	return t.Cost(model, searchContextSize).Total
}
