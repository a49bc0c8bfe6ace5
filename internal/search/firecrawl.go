package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	firecrawlBaseURL    = "https://api.firecrawl.dev"
	firecrawlSearchPath = "/v1/search"
	// Milliseconds, as the API expects.
	firecrawlTimeout = 60_000
)

// Firecrawl calls the Firecrawl search API and scrapes each hit as markdown.
type Firecrawl struct {
	apiKey  string
	limit   int
	baseURL string
	client  *http.Client
}

// FirecrawlOption configures a Firecrawl crawler.
type FirecrawlOption func(*Firecrawl)

// WithFirecrawlLimit sets the number of results scraped per query.
func WithFirecrawlLimit(n int) FirecrawlOption {
	return func(f *Firecrawl) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithFirecrawlBaseURL overrides the API endpoint.
func WithFirecrawlBaseURL(u string) FirecrawlOption {
	return func(f *Firecrawl) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithFirecrawlHTTPClient sets the HTTP client used for requests.
func WithFirecrawlHTTPClient(c *http.Client) FirecrawlOption {
	return func(f *Firecrawl) { f.client = c }
}

// NewFirecrawl constructs a Firecrawl crawler.
func NewFirecrawl(apiKey string, opts ...FirecrawlOption) *Firecrawl {
	f := &Firecrawl{
		apiKey:  apiKey,
		limit:   3,
		baseURL: firecrawlBaseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type firecrawlRequest struct {
	Query         string                 `json:"query"`
	Limit         int                    `json:"limit"`
	Timeout       int                    `json:"timeout"`
	ScrapeOptions firecrawlScrapeOptions `json:"scrapeOptions"`
}

type firecrawlScrapeOptions struct {
	Formats []string `json:"formats"`
}

type firecrawlResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Markdown    string `json:"markdown"`
	} `json:"data"`
}

// Search posts the query to Firecrawl.
func (f *Firecrawl) Search(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(f.apiKey) == "" {
		return Result{}, fmt.Errorf("firecrawl: %w", ErrMissingAPIKey)
	}
	slog.InfoContext(ctx, "searching query", "crawler", "firecrawl", "query", query)

	payload, err := json.Marshal(firecrawlRequest{
		Query:         query,
		Limit:         f.limit,
		Timeout:       firecrawlTimeout,
		ScrapeOptions: firecrawlScrapeOptions{Formats: []string{"markdown"}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("firecrawl: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+firecrawlSearchPath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("firecrawl: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("firecrawl: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.DebugContext(ctx, "firecrawl response", "status", resp.StatusCode)
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusRequestTimeout:
		slog.ErrorContext(ctx, "firecrawl request timeout")
		return Result{}, fmt.Errorf("firecrawl: rate limit exceeded (http %d)", resp.StatusCode)
	case http.StatusInternalServerError:
		slog.ErrorContext(ctx, "firecrawl internal server error")
		return Result{}, fmt.Errorf("firecrawl: internal server error (http %d)", resp.StatusCode)
	default:
		body, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("firecrawl: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var out firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("firecrawl: decode response: %w", err)
	}

	items := make([]Item, 0, len(out.Data))
	for _, d := range out.Data {
		items = append(items, Item{
			Title:       d.Title,
			Description: d.Description,
			Content:     cleanText(d.Markdown),
			URL:         d.URL,
		})
	}
	return Result{Items: items}, nil
}

var (
	reNonASCII      = regexp.MustCompile(`[^\x00-\x7F]+`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reMarkdownLinks = regexp.MustCompile(`\[.*?\]\(.*?\)`)
)

// cleanText drops non-ASCII runes, collapses whitespace and removes markdown
// links from scraped content.
func cleanText(s string) string {
	s = reNonASCII.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reMarkdownLinks.ReplaceAllString(s, "")
	return s
}
