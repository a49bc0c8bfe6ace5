// Package app provides the Cobra commands of the deepresearch CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/shikanime-studio/deepresearch/internal/analytics"
	"github.com/shikanime-studio/deepresearch/internal/config"
	"github.com/shikanime-studio/deepresearch/internal/fsutil"
	"github.com/shikanime-studio/deepresearch/internal/llm"
	"github.com/shikanime-studio/deepresearch/internal/research"
	"github.com/shikanime-studio/deepresearch/internal/search"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

// Provider client constructors, swapped in tests.
var (
	newOpenAIClient = func(apiKey string) *openai.Client {
		opts := []option.RequestOption{}
		if apiKey != "" {
			opts = append(opts, option.WithAPIKey(apiKey))
		}
		c := openai.NewClient(opts...)
		return &c
	}
	newGenaiClient = func(ctx context.Context, apiKey string) (*genai.Client, error) {
		return genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	}
	firecrawlOptions []search.FirecrawlOption
)

type researchOptions struct {
	queryFile  string
	outDir     string
	autoRefine bool
	render     bool
}

// flagBindings maps research flags to the configuration keys they override.
var flagBindings = map[string]string{
	"model":               "llm_model",
	"search-provider":     "search_provider",
	"search-model":        "search_model",
	"search-context-size": "search_context_size",
	"firecrawl-limit":     "firecrawl_limit",
	"questions":           "num_refinement_questions",
	"learnings":           "num_learnings",
	"width":               "learning_width",
	"depth":               "learning_depth",
	"timeout":             "request_timeout",
	"rpm":                 "requests_per_minute",
	"concurrency":         "concurrency",
}

// NewResearchCmd runs a research session on the query file and writes the
// learnings and the report to the output directory.
func NewResearchCmd(cfg *config.Config) *cobra.Command {
	var o researchOptions
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research the query file and write learnings and a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResearch(cmd.Context(), cfg, o, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.queryFile, "query-file", filepath.Join("assets", "query.md"), "File holding the research query")
	f.StringVar(&o.outDir, "out", "assets", "Directory receiving learnings.md and report.md")
	f.BoolVar(&o.autoRefine, "auto-refine", false, "Let the model clarify the query instead of asking follow-up questions")
	f.BoolVar(&o.render, "render", false, "Pretty-print the report in the terminal")
	f.String("model", llm.GPT4o.ID, "Model used for generation")
	f.String("search-provider", config.SearchProviderGemini, "Search backend: firecrawl, openai or gemini")
	f.String("search-model", llm.Gemini20Flash.ID, "Model used by LLM search backends")
	f.String("search-context-size", "", "Search context size: low, medium or high")
	f.Int("firecrawl-limit", 3, "Results scraped per Firecrawl query")
	f.Int("questions", 3, "Maximum refinement questions")
	f.Int("learnings", 3, "Maximum learnings per search")
	f.Int("width", 3, "SERP queries generated at depth 0")
	f.Int("depth", 2, "Recursion depth, capped to ceil(width/2)")
	f.Duration("timeout", llm.DefaultTimeout, "Per-call LLM timeout")
	f.Int("rpm", 0, "Maximum LLM and search requests per minute, 0 for unlimited")
	f.Int("concurrency", 1, "Sibling SERP queries researched at once")
	for name, key := range flagBindings {
		if err := cfg.BindFlag(key, f.Lookup(name)); err != nil {
			slog.Warn("failed to bind flag", "flag", name, "err", err)
		}
	}
	return cmd
}

func runResearch(ctx context.Context, cfg *config.Config, o researchOptions, in io.Reader, out io.Writer) error {
	query, err := fsutil.ReadQuery(o.queryFile)
	if err != nil {
		return err
	}

	p := &providers{cfg: cfg}
	gw, err := p.gateway(ctx)
	if err != nil {
		return err
	}
	crawler, err := p.crawler(ctx)
	if err != nil {
		return err
	}

	r := research.New(gw, crawler,
		research.WithHyperParameters(cfg.HyperParameters()),
		research.WithTracker(analytics.NewTracker()),
		research.WithLimiter(research.NewLimiter(cfg.RequestsPerMinute())),
		research.WithConcurrency(cfg.Concurrency()),
		research.WithAnswerer(research.NewPromptAnswerer(in, out)),
	)

	res, err := r.Run(ctx, query, o.autoRefine)
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}

	if err := fsutil.WriteLearnings(filepath.Join(o.outDir, "learnings.md"), res.Learnings); err != nil {
		return err
	}
	if err := fsutil.WriteFile(filepath.Join(o.outDir, "report.md"), []byte(res.Report)); err != nil {
		return err
	}

	slog.Info("research summary",
		"learnings", len(res.Learnings),
		"total_calls", res.Usage.TotalCalls,
		"search_calls", res.Usage.SearchCalls,
		"input_tokens", res.Usage.InputTokens,
		"completion_tokens", res.Usage.CompletionTokens,
		"total_tokens", res.Usage.TotalTokens,
		"total_cost", fmt.Sprintf("$%.6f", res.Cost),
		"elapsed", res.Elapsed.Round(time.Millisecond))

	return printReport(out, res.Report, o.render)
}

func printReport(w io.Writer, report string, render bool) error {
	if render {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			if rendered, err := r.Render(report); err == nil {
				report = rendered
			} else {
				slog.Warn("failed to render report", "err", err)
			}
		}
	}
	_, err := fmt.Fprintln(w, report)
	return err
}

// providers lazily builds at most one client per provider family so the
// gateway and the crawler share it.
type providers struct {
	cfg    *config.Config
	openai *openai.Client
	genai  *genai.Client
}

func (p *providers) openAI() *openai.Client {
	if p.openai == nil {
		p.openai = newOpenAIClient(p.cfg.OpenAIAPIKey())
	}
	return p.openai
}

func (p *providers) gemini(ctx context.Context) (*genai.Client, error) {
	if p.genai == nil {
		c, err := newGenaiClient(ctx, p.cfg.GeminiAPIKey())
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		p.genai = c
	}
	return p.genai, nil
}

func (p *providers) handle(ctx context.Context, provider llm.Provider) (any, error) {
	switch provider {
	case llm.ProviderOpenAI:
		return p.openAI(), nil
	case llm.ProviderGoogle:
		c, err := p.gemini(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: provider %q", llm.ErrUnsupportedHandle, provider)
	}
}

func (p *providers) gateway(ctx context.Context) (llm.Gateway, error) {
	model, err := p.cfg.LLMModel()
	if err != nil {
		return nil, err
	}
	h, err := p.handle(ctx, model.Provider)
	if err != nil {
		return nil, err
	}
	return llm.New(model, h, llm.WithTimeout(p.cfg.RequestTimeout()))
}

func (p *providers) crawler(ctx context.Context) (search.Crawler, error) {
	provider := p.cfg.SearchProvider()
	if provider == config.SearchProviderFirecrawl {
		opts := append([]search.FirecrawlOption{search.WithFirecrawlLimit(p.cfg.FirecrawlLimit())}, firecrawlOptions...)
		return search.NewFirecrawl(p.cfg.FirecrawlAPIKey(), opts...), nil
	}

	model, err := p.cfg.SearchModel()
	if err != nil {
		return nil, err
	}
	switch provider {
	case config.SearchProviderOpenAI:
		s, err := search.NewOpenAISearch(model, p.openAI(), p.cfg.SearchContextSize(), p.cfg.RequestTimeout())
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		c, err := p.gemini(ctx)
		if err != nil {
			return nil, err
		}
		s, err := search.NewGeminiSearch(model, c, p.cfg.SearchContextSize(), p.cfg.RequestTimeout())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
