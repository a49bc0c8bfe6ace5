// Package research drives a recursive deep-research session: it refines the
// user query, fans out SERP queries, extracts learnings from the results and
// writes the final report.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shikanime-studio/deepresearch/internal/analytics"
	"github.com/shikanime-studio/deepresearch/internal/hyperparams"
	"github.com/shikanime-studio/deepresearch/internal/llm"
	"github.com/shikanime-studio/deepresearch/internal/search"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrNoAnswerer is returned when manual refinement is requested without an
// Answerer to ask.
var ErrNoAnswerer = errors.New("research: manual refinement needs an answerer")

// Result is the outcome of a research session.
type Result struct {
	Learnings []string
	Report    string
	Usage     analytics.Snapshot
	Cost      float64
	Elapsed   time.Duration
}

// Researcher runs research sessions against one gateway and one crawler.
type Researcher struct {
	gw          llm.Gateway
	crawler     search.Crawler
	params      *hyperparams.HyperParameters
	tracker     *analytics.Tracker
	limiter     *rate.Limiter
	concurrency int
	answerer    Answerer
}

// Option configures a Researcher.
type Option func(*Researcher)

// WithHyperParameters sets the breadth and depth of the session.
func WithHyperParameters(p *hyperparams.HyperParameters) Option {
	return func(r *Researcher) { r.params = p }
}

// WithTracker records usage into t instead of a private tracker.
func WithTracker(t *analytics.Tracker) Option {
	return func(r *Researcher) { r.tracker = t }
}

// WithLimiter throttles every LLM and search call through l.
func WithLimiter(l *rate.Limiter) Option {
	return func(r *Researcher) { r.limiter = l }
}

// WithConcurrency sets how many sibling SERP queries run at once.
func WithConcurrency(n int) Option {
	return func(r *Researcher) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithAnswerer sets who answers refinement questions.
func WithAnswerer(a Answerer) Option {
	return func(r *Researcher) { r.answerer = a }
}

// NewLimiter returns a limiter allowing requestsPerMinute calls, or an
// unlimited one when requestsPerMinute is not positive.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	slog.Info("created request rate limiter", "requests_per_minute", requestsPerMinute)
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
}

// New returns a Researcher generating with gw and searching with crawler.
func New(gw llm.Gateway, crawler search.Crawler, opts ...Option) *Researcher {
	r := &Researcher{
		gw:          gw,
		crawler:     crawler,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.params == nil {
		r.params = hyperparams.Default()
	}
	if r.tracker == nil {
		r.tracker = analytics.NewTracker()
	}
	if r.limiter == nil {
		r.limiter = NewLimiter(0)
	}
	return r
}

// session holds the state shared by every branch of one Run.
type session struct {
	logger *slog.Logger
	system string

	mu        sync.Mutex
	learnings []string
}

func (s *session) addLearning(l string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnings = append(s.learnings, l)
}

func (s *session) finalLearnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.learnings...)
}

// Run researches query and writes a report. With autoRefine the model
// clarifies the query itself; otherwise follow-up questions are put to the
// Answerer.
func (r *Researcher) Run(ctx context.Context, query string, autoRefine bool) (Result, error) {
	start := time.Now()
	s := &session{
		logger: slog.Default().With("session", uuid.NewString()),
		system: SystemPrompt(),
	}
	s.logger.InfoContext(ctx, "starting deep research",
		"model", r.gw.Model().String(),
		"crawler", fmt.Sprintf("%T", r.crawler),
		"params", r.params)
	s.logger.DebugContext(ctx, "user query", "query", query)

	if autoRefine {
		s.logger.InfoContext(ctx, "query refinement", "mode", "auto")
		query = autoRefinementAddon(query)
	} else {
		s.logger.InfoContext(ctx, "query refinement", "mode", "manual")
		refined, err := r.refine(ctx, s, query)
		if err != nil {
			return Result{}, err
		}
		query = refined
	}

	if err := r.explore(ctx, s, r.params.LearningWidth(), 0, query, nil); err != nil {
		return Result{}, err
	}

	learnings := s.finalLearnings()
	s.logger.DebugContext(ctx, "collected learnings", "count", len(learnings))

	report, err := r.report(ctx, s, query, learnings)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Learnings: learnings,
		Report:    report,
		Usage:     r.tracker.Snapshot(),
		Cost:      r.tracker.TotalCost(r.gw.Model(), r.searchContextSize()),
		Elapsed:   time.Since(start),
	}
	s.logger.InfoContext(ctx, "deep research completed",
		"learnings", len(res.Learnings),
		"total_cost", res.Cost,
		"elapsed", res.Elapsed)
	return res, nil
}

func (r *Researcher) searchContextSize() string {
	if c, ok := r.crawler.(search.LLMCrawler); ok {
		return c.SearchContextSize()
	}
	return ""
}

func (r *Researcher) refine(ctx context.Context, s *session, query string) (string, error) {
	if r.answerer == nil {
		return "", ErrNoAnswerer
	}
	s.logger.InfoContext(ctx, "refining user query")
	out, err := generate[RefinementQuestions](ctx, r, s, refinementPrompt(r.params.NumRefinementQuestions, query))
	if err != nil {
		return "", fmt.Errorf("refine query: %w", err)
	}
	var questions []string
	if out != nil {
		questions = out.Questions
	}
	s.logger.InfoContext(ctx, "generated follow-up questions", "count", len(questions))

	answers := make([]string, 0, len(questions))
	for _, q := range questions {
		a, err := r.answerer.Answer(ctx, q)
		if err != nil {
			return "", fmt.Errorf("answer %q: %w", q, err)
		}
		answers = append(answers, a)
	}
	return withAnswers(query, questions, answers), nil
}

// explore runs one level of the search tree. learnings is the branch history
// handed down by the parent; each child receives its own copy.
func (r *Researcher) explore(
	ctx context.Context,
	s *session,
	width, depth int,
	query string,
	learnings []string,
) error {
	s.logger.InfoContext(ctx, "running research level", "width", width, "depth", depth)
	s.logger.DebugContext(ctx, "level query", "query", query)

	s.logger.InfoContext(ctx, "generating serp queries")
	out, err := generate[SERPQueries](ctx, r, s, serpQueryPrompt(width, query))
	if err != nil {
		return fmt.Errorf("generate serp queries: %w", err)
	}
	if out == nil || len(out.Queries) == 0 {
		s.logger.WarnContext(ctx, "no serp queries generated", "depth", depth)
		return nil
	}
	queries := out.Queries
	s.logger.InfoContext(ctx, "generated serp queries", "count", len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, q := range queries {
		g.Go(func() error {
			return r.branch(gctx, s, depth, q, learnings)
		})
	}
	return g.Wait()
}

func (r *Researcher) branch(
	ctx context.Context,
	s *session,
	depth int,
	q SERPQuery,
	parent []string,
) error {
	data, err := r.search(ctx, s, q)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "generating learnings and follow-up questions", "query", q.Query)
	serpQuery := fmt.Sprintf("SERP Query: %s\nResearch Goal: %s", q.Query, q.ResearchGoal)
	out, err := generate[Learning](ctx, r, s, learningPrompt(r.params.NumLearnings, serpQuery, data))
	if err != nil {
		return fmt.Errorf("generate learnings: %w", err)
	}
	if out == nil {
		s.logger.WarnContext(ctx, "no learning extracted", "query", q.Query)
		return nil
	}

	learnings := append(append(make([]string, 0, len(parent)+1), parent...), out.Learning)
	s.addLearning(out.Learning)

	next := depth + 1
	if next >= r.params.LearningDepth() {
		s.logger.DebugContext(ctx, "max depth reached", "depth", depth)
		return nil
	}
	return r.explore(ctx, s,
		r.params.WidthForDepth(next),
		next,
		previousResearchAddon(q.ResearchGoal, learnings, out.FollowUpQueries),
		learnings)
}

func (r *Researcher) search(ctx context.Context, s *session, q SERPQuery) (string, error) {
	query := q.Query
	if _, ok := r.crawler.(search.LLMCrawler); ok {
		query = fmt.Sprintf("Query: %s\nResearch Goal: %s", q.Query, q.ResearchGoal)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	res, err := r.crawler.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", q.Query, err)
	}
	r.tracker.Record(analytics.KindSearch, res.Usage)
	s.logger.DebugContext(ctx, "search completed", "query", q.Query, "items", len(res.Items))
	return res.String(), nil
}

func (r *Researcher) report(ctx context.Context, s *session, query string, learnings []string) (string, error) {
	s.logger.InfoContext(ctx, "generating report")
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	resp, err := r.gw.Generate(ctx, s.system, reportPrompt(query, learnings), nil)
	if err != nil {
		return "", fmt.Errorf("generate report: %w", err)
	}
	r.tracker.Record(analytics.KindCompletion, resp.Usage)
	return resp.Text, nil
}

// generate issues a rate limited structured call and records its usage.
func generate[T any](ctx context.Context, r *Researcher, s *session, prompt string) (*T, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	v, usage, err := llm.GenerateStructured[T](ctx, r.gw, s.system, prompt)
	if err != nil {
		return nil, err
	}
	r.tracker.Record(analytics.KindStructuredCompletion, usage)
	return v, nil
}
