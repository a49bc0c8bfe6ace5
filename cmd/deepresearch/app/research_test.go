package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/shikanime-studio/deepresearch/internal/config"
	"github.com/shikanime-studio/deepresearch/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
		"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	}
}

// fakeOpenAI answers chat completions according to the requested schema.
func fakeOpenAI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var (
		mu      sync.Mutex
		schemas []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		name := "report"
		if rf, ok := req["response_format"].(map[string]any); ok {
			js, _ := rf["json_schema"].(map[string]any)
			name, _ = js["name"].(string)
		}
		mu.Lock()
		schemas = append(schemas, name)
		mu.Unlock()

		var content string
		switch name {
		case "SERPQueries":
			content = `{"queries":[{"query":"rayleigh scattering","research_goal":"physics of sky color"}]}`
		case "Learning":
			content = `{"learning":"Blue light scatters more than red.","follow_up_queries":["sunsets?"]}`
		case "RefinementQuestions":
			content = `{"questions":["Which planet?"]}`
		default:
			content = "# Why the sky is blue"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletion(content))
	}))
	t.Cleanup(srv.Close)

	return srv, &schemas
}

func fakeFirecrawl(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"title": "Sky", "description": "d", "url": "https://sky.example", "markdown": "Rayleigh."},
			},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

// stubProviders points the client seams at the fake servers.
func stubProviders(t *testing.T, openaiURL, firecrawlURL string) {
	t.Helper()

	origOpenAI, origFirecrawl := newOpenAIClient, firecrawlOptions
	t.Cleanup(func() {
		newOpenAIClient, firecrawlOptions = origOpenAI, origFirecrawl
	})
	newOpenAIClient = func(string) *openai.Client {
		c := openai.NewClient(option.WithBaseURL(openaiURL+"/"), option.WithAPIKey("test-key"))
		return &c
	}
	firecrawlOptions = []search.FirecrawlOption{search.WithFirecrawlBaseURL(firecrawlURL)}
}

func setupWorkdir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIRECRAWL_API_KEY", "fc-key")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "query.md"), []byte("why is the sky blue\n"), 0o600))
	return dir
}

func TestResearchCmd_AutoRefine(t *testing.T) {
	dir := setupWorkdir(t)
	oa, schemas := fakeOpenAI(t)
	fc := fakeFirecrawl(t)
	stubProviders(t, oa.URL, fc.URL)

	cmd := NewResearchCmd(config.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--auto-refine",
		"--search-provider", "firecrawl",
		"--width", "1",
		"--depth", "1",
		"--out", "results",
	})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, []string{"SERPQueries", "Learning", "report"}, *schemas)
	assert.Contains(t, out.String(), "# Why the sky is blue")

	learnings, err := os.ReadFile(filepath.Join(dir, "results", "learnings.md"))
	require.NoError(t, err)
	assert.Equal(t, "Blue light scatters more than red.", string(learnings))

	report, err := os.ReadFile(filepath.Join(dir, "results", "report.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Why the sky is blue", string(report))
}

func TestResearchCmd_ManualRefineReadsAnswers(t *testing.T) {
	setupWorkdir(t)
	oa, schemas := fakeOpenAI(t)
	fc := fakeFirecrawl(t)
	stubProviders(t, oa.URL, fc.URL)

	cmd := NewResearchCmd(config.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("Earth\n"))
	cmd.SetArgs([]string{"--search-provider", "firecrawl", "--width", "1", "--depth", "1"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, []string{"RefinementQuestions", "SERPQueries", "Learning", "report"}, *schemas)
	assert.True(t, strings.HasPrefix(out.String(), "Which planet?: "), out.String())
}

func TestResearchCmd_UnknownModel(t *testing.T) {
	setupWorkdir(t)

	cmd := NewResearchCmd(config.New())
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--model", "gpt-nope"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrUnknownModel)
}

func TestResearchCmd_OpenAISearchNeedsContextSize(t *testing.T) {
	setupWorkdir(t)
	oa, schemas := fakeOpenAI(t)
	stubProviders(t, oa.URL, "")

	cmd := NewResearchCmd(config.New())
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--search-provider", "openai", "--search-model", "gpt-4o-search-preview"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrContextSizeRequired)
	assert.Empty(t, *schemas)
}

func TestModelsCmd(t *testing.T) {
	cmd := NewModelsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "PROVIDER")
	assert.Contains(t, out.String(), "gpt-4o-search-preview")
	assert.Contains(t, out.String(), "30/35/50")
	assert.Contains(t, out.String(), "gemini-2.0-flash")
}

func TestPrintReport_Plain(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printReport(&out, "# Title", false))
	assert.Equal(t, "# Title\n", out.String())
}

func TestResearchCmd_OpenAISearchRejectsChatModel(t *testing.T) {
	setupWorkdir(t)
	oa, schemas := fakeOpenAI(t)
	stubProviders(t, oa.URL, "")

	cmd := NewResearchCmd(config.New())
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{
		"--search-provider", "openai",
		"--search-model", "gpt-4o",
		"--search-context-size", "low",
	})
	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrUnsupportedSearchModel)
	assert.Empty(t, *schemas)
}
