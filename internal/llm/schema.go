package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
)

// Schema describes the shape a structured generation should take. Titles
// and descriptions on the reflected fields are hints for the provider; the
// gateway never validates output against it.
type Schema struct {
	Name        string
	Description string
	JSON        *jsonschema.Schema
}

var schemaNameInvalid = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SchemaFor reflects the JSON schema of T. Field titles and descriptions are
// taken from `jsonschema:"title=...,description=..."` struct tags. An empty
// name is derived from the type name.
func SchemaFor[T any](name, description string) *Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	s := r.Reflect(v)
	// Providers reject the draft URI.
	s.Version = ""
	if name == "" {
		name = typeName[T]()
	}
	return &Schema{Name: name, Description: description, JSON: s}
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := schemaNameInvalid.ReplaceAllString(t.Name(), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "response"
	}
	return name
}

// GenerateStructured asks g for a response shaped like T and decodes it. The
// returned value is nil when the call degraded to an empty response or the
// provider output could not be decoded into T; neither case is an error.
func GenerateStructured[T any](
	ctx context.Context,
	g Gateway,
	systemPrompt, userPrompt string,
) (*T, Usage, error) {
	resp, err := g.Generate(ctx, systemPrompt, userPrompt, SchemaFor[T]("", ""))
	if err != nil {
		return nil, Usage{}, err
	}
	v, err := decode[T](resp.Text)
	if err != nil {
		loggerOf(g).WarnContext(ctx, "structured response did not decode",
			"model", g.Model().ID,
			"schema", typeName[T](),
			"err", err)
		return nil, resp.Usage, nil
	}
	return v, resp.Usage, nil
}

// loggerOf returns the logger configured on g, or the default logger for
// gateways built outside this package.
func loggerOf(g Gateway) *slog.Logger {
	if l, ok := g.(interface{ logger() *slog.Logger }); ok {
		return l.logger()
	}
	return slog.Default()
}

func decode[T any](text string) (*T, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
