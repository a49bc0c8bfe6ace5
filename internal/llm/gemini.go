package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

var _ Gateway = (*Gemini)(nil)

// Gemini is the gateway variant for the Gemini GenerateContent API.
type Gemini struct {
	model  Model
	client *genai.Client
	opts   options
}

// NewGemini binds a Google model to a borrowed genai client.
func NewGemini(model Model, client *genai.Client, opts ...Option) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil genai client", ErrProviderMismatch)
	}
	if err := checkProvider(model, ProviderGoogle); err != nil {
		return nil, err
	}
	return &Gemini{model: model, client: client, opts: makeOptions(opts...)}, nil
}

// Model returns the bound model.
func (g *Gemini) Model() Model { return g.model }

func (g *Gemini) logger() *slog.Logger { return g.opts.logger }

// Generate calls GenerateContent with the system prompt as system
// instruction. A schema is passed through the generation config with a JSON
// response MIME type.
func (g *Gemini) Generate(
	ctx context.Context,
	systemPrompt, userPrompt string,
	schema *Schema,
) (Response, error) {
	if err := checkPrompts(systemPrompt, userPrompt); err != nil {
		return Response{}, err
	}
	g.opts.logCall(ctx, g.model, schema)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = schema.JSON
	}

	callCtx, cancel := g.opts.deadline(ctx)
	defer cancel()
	resp, err := g.client.Models.GenerateContent(callCtx, g.model.ID, genai.Text(userPrompt), config)
	if err != nil {
		if DeadlineHit(ctx, callCtx, err) || geminiDeadline(err) {
			return g.opts.degrade(ctx, g.model, userPrompt, err), nil
		}
		return Response{}, fmt.Errorf("gemini: %w", err)
	}

	return Response{
		Text:       resp.Text(),
		Structured: schema != nil,
		Usage:      FromGemini(resp.UsageMetadata),
	}, nil
}

// geminiDeadline reports whether the API itself gave up on the request.
func geminiDeadline(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusGatewayTimeout || apiErr.Status == "DEADLINE_EXCEEDED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusGatewayTimeout || apiErrPtr.Status == "DEADLINE_EXCEEDED"
	}
	return false
}
