package llm

import "slices"

var (
	O3Mini = Model{
		ID:            "o3-mini",
		Provider:      ProviderOpenAI,
		ContextWindow: 200_000,
		Pricing:       Pricing{NonCachedInput: 1.10, CachedInput: 0.55, Completion: 4.40},
	}
	O1 = Model{
		ID:            "o1",
		Provider:      ProviderOpenAI,
		ContextWindow: 200_000,
		Pricing:       Pricing{NonCachedInput: 15.00, CachedInput: 7.50, Completion: 60.00},
	}
	O1Mini = Model{
		ID:            "o1-mini",
		Provider:      ProviderOpenAI,
		ContextWindow: 128_000,
		Pricing:       Pricing{NonCachedInput: 1.10, CachedInput: 0.55, Completion: 4.40},
	}
	GPT4o = Model{
		ID:            "gpt-4o",
		Provider:      ProviderOpenAI,
		ContextWindow: 128_000,
		Pricing:       Pricing{NonCachedInput: 2.50, CachedInput: 1.25, Completion: 10.00},
		SearchPricing: &SearchPricing{Low: 30.00, Medium: 35.00, High: 50.00},
	}
	GPT4oMini = Model{
		ID:            "gpt-4o-mini",
		Provider:      ProviderOpenAI,
		ContextWindow: 128_000,
		Pricing:       Pricing{NonCachedInput: 0.15, CachedInput: 0.075, Completion: 0.60},
		SearchPricing: &SearchPricing{Low: 25.00, Medium: 27.50, High: 30.00},
	}
	// Chat completion models with built-in web search.
	GPT4oSearchPreview = Model{
		ID:            "gpt-4o-search-preview",
		Provider:      ProviderOpenAI,
		ContextWindow: 128_000,
		Pricing:       Pricing{NonCachedInput: 2.50, CachedInput: 2.50, Completion: 10.00},
		SearchPricing: &SearchPricing{Low: 30.00, Medium: 35.00, High: 50.00},
	}
	GPT4oMiniSearchPreview = Model{
		ID:            "gpt-4o-mini-search-preview",
		Provider:      ProviderOpenAI,
		ContextWindow: 128_000,
		Pricing:       Pricing{NonCachedInput: 0.15, CachedInput: 0.15, Completion: 0.60},
		SearchPricing: &SearchPricing{Low: 25.00, Medium: 27.50, High: 30.00},
	}
	Gemini20Flash = Model{
		ID:            "gemini-2.0-flash",
		Provider:      ProviderGoogle,
		ContextWindow: 1_000_000,
		Pricing:       Pricing{NonCachedInput: 0.10, CachedInput: 0.025, Completion: 0.40},
	}
	Gemini20FlashLite = Model{
		ID:            "gemini-2.0-flash-lite",
		Provider:      ProviderGoogle,
		ContextWindow: 1_000_000,
		Pricing:       Pricing{NonCachedInput: 0.075, CachedInput: 0.30, Completion: 0.40},
	}
)

var catalog = []Model{
	O3Mini,
	O1,
	O1Mini,
	GPT4o,
	GPT4oMini,
	GPT4oSearchPreview,
	GPT4oMiniSearchPreview,
	Gemini20Flash,
	Gemini20FlashLite,
}

// Models returns a copy of the known model catalog.
func Models() []Model {
	return slices.Clone(catalog)
}

// LookupModel finds a catalog model by its provider identifier.
func LookupModel(id string) (Model, bool) {
	i := slices.IndexFunc(catalog, func(m Model) bool { return m.ID == id })
	if i < 0 {
		return Model{}, false
	}
	return catalog[i], true
}
