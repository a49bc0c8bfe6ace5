package llm

import (
	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"
)

// Usage is the token accounting of a single call. The zero value is what a
// degraded call reports.
type Usage struct {
	PromptTokens       int64
	CachedPromptTokens int64
	CompletionTokens   int64
	TotalTokens        int64
}

// Add returns the field-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:       u.PromptTokens + o.PromptTokens,
		CachedPromptTokens: u.CachedPromptTokens + o.CachedPromptTokens,
		CompletionTokens:   u.CompletionTokens + o.CompletionTokens,
		TotalTokens:        u.TotalTokens + o.TotalTokens,
	}
}

// FromOpenAI converts an OpenAI completion usage block.
func FromOpenAI(u openai.CompletionUsage) Usage {
	return Usage{
		PromptTokens:       u.PromptTokens,
		CachedPromptTokens: u.PromptTokensDetails.CachedTokens,
		CompletionTokens:   u.CompletionTokens,
		TotalTokens:        u.TotalTokens,
	}
}

// FromGemini converts Gemini usage metadata; nil metadata yields zero usage.
func FromGemini(m *genai.GenerateContentResponseUsageMetadata) Usage {
	if m == nil {
		return Usage{}
	}
	u := Usage{
		PromptTokens:       int64(m.PromptTokenCount),
		CachedPromptTokens: int64(m.CachedContentTokenCount),
		CompletionTokens:   int64(m.CandidatesTokenCount),
		TotalTokens:        int64(m.TotalTokenCount),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}
