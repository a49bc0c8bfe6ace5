package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shikanime-studio/deepresearch/internal/llm"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with an empty home and no
// logging overrides from the host.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE", "LOG_FILE"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestNew_Defaults(t *testing.T) {
	isolate(t)

	cfg := New()

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	assert.Equal(t, "text", cfg.LogFormat())
	assert.False(t, cfg.LogSource())
	assert.Empty(t, cfg.LogFile())

	m, err := cfg.LLMModel()
	require.NoError(t, err)
	assert.Equal(t, llm.GPT4o, m)

	sm, err := cfg.SearchModel()
	require.NoError(t, err)
	assert.Equal(t, llm.Gemini20Flash, sm)

	assert.Equal(t, SearchProviderGemini, cfg.SearchProvider())
	assert.Empty(t, cfg.SearchContextSize())
	assert.Equal(t, 3, cfg.FirecrawlLimit())
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout())
	assert.Equal(t, 0, cfg.RequestsPerMinute())
	assert.Equal(t, 1, cfg.Concurrency())

	hp := cfg.HyperParameters()
	assert.Equal(t, 3, hp.NumRefinementQuestions)
	assert.Equal(t, 3, hp.NumLearnings)
	assert.Equal(t, 3, hp.LearningWidth())
	assert.Equal(t, 2, hp.LearningDepth())
}

func TestNew_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("DEEPRESEARCH_LLM_MODEL", "o3-mini")
	t.Setenv("DEEPRESEARCH_SEARCH_PROVIDER", "OpenAI")
	t.Setenv("DEEPRESEARCH_SEARCH_CONTEXT_SIZE", "High")
	t.Setenv("DEEPRESEARCH_LEARNING_WIDTH", "4")
	t.Setenv("DEEPRESEARCH_LEARNING_DEPTH", "10")
	t.Setenv("DEEPRESEARCH_REQUEST_TIMEOUT", "30s")
	t.Setenv("DEEPRESEARCH_CONCURRENCY", "0")

	cfg := New()

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "json", cfg.LogFormat())
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey())
	assert.Equal(t, "google-key", cfg.GeminiAPIKey())
	assert.Equal(t, SearchProviderOpenAI, cfg.SearchProvider())
	assert.Equal(t, "high", cfg.SearchContextSize())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 1, cfg.Concurrency())

	m, err := cfg.LLMModel()
	require.NoError(t, err)
	assert.Equal(t, llm.O3Mini, m)

	// Depth 10 exceeds what width 4 allows.
	assert.Equal(t, 2, cfg.HyperParameters().LearningDepth())
}

func TestNew_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("FIRECRAWL_API_KEY=from-local\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FIRECRAWL_API_KEY=from-env\n"), 0o600))
	t.Setenv("FIRECRAWL_API_KEY", "")
	require.NoError(t, os.Unsetenv("FIRECRAWL_API_KEY"))

	cfg := New()

	assert.Equal(t, "from-local", cfg.FirecrawlAPIKey())
}

func TestLLMModel_Unknown(t *testing.T) {
	isolate(t)
	t.Setenv("DEEPRESEARCH_LLM_MODEL", "gpt-nope")

	_, err := New().LLMModel()
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestBindFlag(t *testing.T) {
	isolate(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("width", 3, "")
	require.NoError(t, fs.Parse([]string{"--width", "6"}))

	cfg := New()
	require.NoError(t, cfg.BindFlag("learning_width", fs.Lookup("width")))
	assert.Equal(t, 6, cfg.HyperParameters().LearningWidth())

	assert.Error(t, cfg.BindFlag("learning_depth", fs.Lookup("depth")))
}
