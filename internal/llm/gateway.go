package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"
)

var (
	// ErrProviderMismatch is returned when a gateway is built with a handle
	// from a different provider family than its model.
	ErrProviderMismatch = errors.New("llm: model provider does not match provider handle")
	// ErrUnsupportedHandle is returned by New for handle types it cannot route.
	ErrUnsupportedHandle = errors.New("llm: unsupported provider handle")
	// ErrEmptyPrompt is returned when either prompt is blank.
	ErrEmptyPrompt = errors.New("llm: system and user prompts must be non-empty")
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 120 * time.Second

// Response is the result of a generation. Text holds the raw JSON document
// when Structured is true. A timed out call yields the zero Response.
type Response struct {
	Text       string
	Structured bool
	Usage      Usage
}

// Gateway generates a response to a system and user prompt pair, optionally
// constrained to a schema.
type Gateway interface {
	Model() Model
	Generate(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) (Response, error)
}

type options struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a gateway.
type Option func(*options)

// WithTimeout sets the per-call deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger used for call events. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func makeOptions(opts ...Option) options {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New builds the gateway variant matching the handle type, which must be an
// *openai.Client or a *genai.Client bound to model's provider.
func New(model Model, handle any, opts ...Option) (Gateway, error) {
	switch h := handle.(type) {
	case *openai.Client:
		g, err := NewOpenAI(model, h, opts...)
		if err != nil {
			return nil, err
		}
		return g, nil
	case *genai.Client:
		g, err := NewGemini(model, h, opts...)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedHandle, handle)
	}
}

func checkProvider(model Model, handle Provider) error {
	if model.Provider != handle {
		return fmt.Errorf("%w: model %s is served by %q, handle is %q",
			ErrProviderMismatch, model.ID, model.Provider, handle)
	}
	return nil
}

func checkPrompts(systemPrompt, userPrompt string) error {
	if strings.TrimSpace(systemPrompt) == "" || strings.TrimSpace(userPrompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

func generationKind(schema *Schema) string {
	if schema != nil {
		return "structured"
	}
	return "plain"
}

func (o options) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

func (o options) logCall(ctx context.Context, model Model, schema *Schema) {
	o.logger.InfoContext(ctx, "generating llm response",
		"kind", generationKind(schema),
		"provider", model.Provider,
		"model", model.ID)
}

// degrade logs a timed out call and returns the empty substitute response.
func (o options) degrade(ctx context.Context, model Model, userPrompt string, err error) Response {
	o.logger.ErrorContext(ctx, "request timeout",
		"provider", model.Provider,
		"model", model.ID,
		"query", userPrompt,
		"err", err)
	o.logger.WarnContext(ctx, "returning empty response", "provider", model.Provider)
	return Response{}
}

// DeadlineHit reports whether err comes from the call context's own deadline
// (or a network timeout) rather than from the caller cancelling parent.
func DeadlineHit(parent, call context.Context, err error) bool {
	if err == nil || parent.Err() != nil {
		return false
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
