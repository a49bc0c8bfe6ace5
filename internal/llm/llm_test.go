package llm_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type serpQuery struct {
	Query        string `json:"query" jsonschema:"title=SERP Query"`
	ResearchGoal string `json:"research_goal" jsonschema:"title=Research Goal,description=Goal of the query"`
}

type serpQueries struct {
	Queries []serpQuery `json:"queries" jsonschema:"title=List of SERP Queries"`
}

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func newOpenAIClient(srv *httptest.Server) *openai.Client {
	c := openai.NewClient(
		option.WithBaseURL(srv.URL+"/"),
		option.WithAPIKey("test-key"),
	)
	return &c
}

func newGenaiClient(t *testing.T, srv *httptest.Server) *genai.Client {
	t.Helper()

	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)

	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("failed to read body: %v", err)
		return nil
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Errorf("failed to unmarshal body: %v", err)
	}

	return req
}

// stall blocks until the client gives up on the request.
func stall(_ http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(5 * time.Second):
	}
}

// bufferLogger returns a text logger writing every level into buf.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
