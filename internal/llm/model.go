// Package llm provides a provider-agnostic gateway over the OpenAI and
// Google Gemini generation APIs, together with the catalog of models the
// research pipeline knows how to price.
package llm

import "fmt"

// Provider identifies the family of API a model is served by.
type Provider string

const (
	ProviderOpenAI Provider = "OpenAI"
	ProviderGoogle Provider = "Google"
)

// Pricing holds dollar prices per million tokens.
type Pricing struct {
	NonCachedInput float64
	CachedInput    float64
	Completion     float64
}

// SearchPricing holds dollar prices per thousand web-search calls for each
// search context size.
type SearchPricing struct {
	Low    float64
	Medium float64
	High   float64
}

// ForContextSize returns the price for a "low", "medium" or "high" search
// context size.
func (p SearchPricing) ForContextSize(size string) (float64, bool) {
	switch size {
	case "low":
		return p.Low, true
	case "medium":
		return p.Medium, true
	case "high":
		return p.High, true
	default:
		return 0, false
	}
}

// Model uniquely identifies an LLM. Values are created once in the catalog
// and never mutated.
type Model struct {
	ID            string
	Provider      Provider
	ContextWindow int
	Pricing       Pricing
	SearchPricing *SearchPricing
}

func (m Model) String() string {
	return fmt.Sprintf("%s/%s", m.Provider, m.ID)
}
