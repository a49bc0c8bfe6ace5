package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var _ Gateway = (*OpenAI)(nil)

// OpenAI is the gateway variant for the OpenAI chat completions API.
type OpenAI struct {
	model  Model
	client *openai.Client
	opts   options
}

// NewOpenAI binds an OpenAI model to a borrowed client.
func NewOpenAI(model Model, client *openai.Client, opts ...Option) (*OpenAI, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil openai client", ErrProviderMismatch)
	}
	if err := checkProvider(model, ProviderOpenAI); err != nil {
		return nil, err
	}
	return &OpenAI{model: model, client: client, opts: makeOptions(opts...)}, nil
}

// Model returns the bound model.
func (g *OpenAI) Model() Model { return g.model }

func (g *OpenAI) logger() *slog.Logger { return g.opts.logger }

// Generate issues a chat completion, with a strict JSON schema response
// format when schema is set.
func (g *OpenAI) Generate(
	ctx context.Context,
	systemPrompt, userPrompt string,
	schema *Schema,
) (Response, error) {
	if err := checkPrompts(systemPrompt, userPrompt); err != nil {
		return Response{}, err
	}
	g.opts.logCall(ctx, g.model, schema)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	if schema != nil {
		jsonSchema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   schema.Name,
			Schema: schema.JSON,
			Strict: openai.Bool(true),
		}
		if schema.Description != "" {
			jsonSchema.Description = openai.String(schema.Description)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
		}
	}

	callCtx, cancel := g.opts.deadline(ctx)
	defer cancel()
	completion, err := g.client.Chat.Completions.New(callCtx, params, option.WithMaxRetries(0))
	if err != nil {
		if DeadlineHit(ctx, callCtx, err) {
			return g.opts.degrade(ctx, g.model, userPrompt, err), nil
		}
		return Response{}, fmt.Errorf("openai: %w", err)
	}

	var text string
	if len(completion.Choices) > 0 {
		text = completion.Choices[0].Message.Content
	}
	return Response{
		Text:       text,
		Structured: schema != nil,
		Usage:      FromOpenAI(completion.Usage),
	}, nil
}
