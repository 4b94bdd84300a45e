package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openscribe/agentkit/core/parse"
	"github.com/openscribe/agentkit/internal/jsonschema"
	"github.com/openscribe/agentkit/providers/ai"
)

// Tool binds a name and description to a strongly-typed Go function and
// automatically derives the JSON schema for its input type I via reflection.
// Use [New] to construct a Tool; use [GenericTool] for provider-agnostic
// storage and dispatch.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

// GenericTool is the provider-agnostic interface for all tools. It abstracts
// over the concrete generic type parameters of [Tool] so that tools can be
// stored and dispatched without knowing their exact input/output types.
type GenericTool interface {
	// Info returns the metadata (name, description, parameter schema) used
	// to advertise this tool to an AI provider.
	Info() ai.ToolDescription

	// Call invokes the tool with a JSON-encoded input string and returns a
	// JSON-encoded output string. Returns an error if execution fails; the
	// input is repaired best-effort before parsing, so malformed model
	// output alone does not fail the call.
	Call(ctx context.Context, inputJSON string) (string, error)
}

// New constructs a [Tool] with the given name, description, and handler
// function. The parameter schema for the input type I is derived via
// reflection.
//
// Example:
//
//	searchTool := tool.New("web_search", "Searches the web for a query.", Search)
func New[I, O any](name, description string, function func(ctx context.Context, input I) (O, error)) *Tool[I, O] {
	return &Tool[I, O]{
		Name:        name,
		Description: description,
		Parameters:  jsonschema.Generate[I](),
		Function:    function,
	}
}

// Info returns the [ai.ToolDescription] advertised to providers.
func (t *Tool[I, O]) Info() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call deserializes inputJSON into the tool's input type, executes the
// function, and returns the result serialized as JSON. Model-supplied input
// is parsed leniently (repaired when malformed, empty object when empty).
func (t *Tool[I, O]) Call(ctx context.Context, inputJSON string) (string, error) {
	if inputJSON == "" {
		inputJSON = "{}"
	}

	parsedInput, err := parse.StringAs[I](inputJSON)
	if err != nil {
		return "", fmt.Errorf("parsing input for tool %q: %w", t.Name, err)
	}

	output, err := t.Function(ctx, parsedInput)
	if err != nil {
		return "", err
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("marshaling output of tool %q: %w", t.Name, err)
	}

	return string(outputBytes), nil
}
