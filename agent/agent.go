package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openscribe/agentkit/core/parse"
	"github.com/openscribe/agentkit/providers/ai"
)

// defaultMaxIterations bounds a run when the caller does not set a cap.
const defaultMaxIterations = 10

// ToolExecutor resolves a tool call by name with a raw JSON argument string.
// Implementations are registries of named operations that the loop treats as
// opaque black boxes; *tool.Catalog is the standard implementation.
type ToolExecutor interface {
	Execute(ctx context.Context, name, argumentsJSON string) (string, error)
}

// ToolCallRecord is one entry in a run's tool transcript, created each time
// a tool executes and never mutated afterwards.
type ToolCallRecord struct {
	ToolName  string
	Arguments map[string]any
	Result    string
}

// RunResult is the aggregate outcome of one run.
//
// Cancelled and Truncated both describe soft terminations: a cancelled run
// carries whatever partial response and transcript existed at the
// cancellation boundary, and a truncated run hit the iteration cap while the
// model was still requesting tools and carries the last response's text
// (possibly empty). Neither is an error.
type RunResult struct {
	FinalResponse string
	Iterations    int // provider turns taken, including the final text-only turn
	ToolCalls     []ToolCallRecord
	Cancelled     bool
	Truncated     bool
	Usage         ai.Usage
}

// EventSink receives incremental stream events during a streaming run.
// Delivery is best-effort: a panicking sink is swallowed and never fails the
// run.
type EventSink func(ai.StreamEvent)

// Runner drives the tool-calling loop against one provider. Configure it
// with the chained setters, then call [Runner.Run] or [Runner.RunStream] as
// many times as needed; each call is an independent run with its own
// conversation.
type Runner struct {
	provider        ai.Provider
	model           string
	systemPrompt    string
	tools           []ai.ToolDescription
	executor        ToolExecutor
	maxIterations   int
	enableReasoning bool
}

// NewRunner returns a Runner bound to the given provider with the default
// iteration cap.
func NewRunner(provider ai.Provider) *Runner {
	return &Runner{
		provider:      provider,
		maxIterations: defaultMaxIterations,
	}
}

// SetModel selects the model passed on every provider call.
func (r *Runner) SetModel(model string) *Runner {
	r.model = model
	return r
}

// SetSystemPrompt sets the system prompt sent with every provider call.
func (r *Runner) SetSystemPrompt(prompt string) *Runner {
	r.systemPrompt = prompt
	return r
}

// SetTools sets the tool definitions advertised to the model.
func (r *Runner) SetTools(tools []ai.ToolDescription) *Runner {
	r.tools = tools
	return r
}

// SetExecutor sets the executor that resolves the model's tool calls.
func (r *Runner) SetExecutor(executor ToolExecutor) *Runner {
	r.executor = executor
	return r
}

// SetMaxIterations caps the number of provider turns per run.
func (r *Runner) SetMaxIterations(max int) *Runner {
	if max > 0 {
		r.maxIterations = max
	}
	return r
}

// SetEnableReasoning requests extended reasoning/thinking from providers
// that support it.
func (r *Runner) SetEnableReasoning(enabled bool) *Runner {
	r.enableReasoning = enabled
	return r
}

// Run executes the loop to completion and returns the aggregate result.
//
// The cancel token may be nil. A set token is observed once per iteration
// boundary, before the next provider call; the run then returns with
// RunResult.Cancelled set and whatever partial state existed, not an error.
// Transport or HTTP errors from the provider end the run with an error and
// are not retried.
func (r *Runner) Run(ctx context.Context, userMessage string, cancel *CancelToken) (*RunResult, error) {
	return r.run(ctx, userMessage, cancel, nil)
}

// RunStream is Run with incremental delivery: every normalized stream event
// from the provider is forwarded to sink as it arrives, and the same
// aggregate result is returned at the end. Providers without native
// streaming are adapted by replaying their complete response as one burst of
// events.
func (r *Runner) RunStream(ctx context.Context, userMessage string, cancel *CancelToken, sink EventSink) (*RunResult, error) {
	return r.run(ctx, userMessage, cancel, sink)
}

func (r *Runner) run(ctx context.Context, userMessage string, cancel *CancelToken, sink EventSink) (*RunResult, error) {
	messages := []ai.Message{{Role: ai.RoleUser, Content: userMessage}}
	result := &RunResult{}
	lastContent := ""

	for {
		if cancel.Cancelled() {
			result.Cancelled = true
			result.FinalResponse = lastContent
			return result, nil
		}
		if result.Iterations >= r.maxIterations {
			slog.Debug("agent run reached iteration cap",
				"iterations", result.Iterations,
				"tool_calls", len(result.ToolCalls))
			result.Truncated = true
			result.FinalResponse = lastContent
			return result, nil
		}

		response, err := r.send(ctx, messages, sink)
		if err != nil {
			return nil, err
		}
		result.Iterations++

		if response.Usage != nil {
			result.Usage.PromptTokens += response.Usage.PromptTokens
			result.Usage.CompletionTokens += response.Usage.CompletionTokens
			result.Usage.TotalTokens += response.Usage.TotalTokens
		}
		lastContent = response.Content

		messages = append(messages, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		if len(response.ToolCalls) == 0 || r.provider.IsStopMessage(response) {
			result.FinalResponse = response.Content
			return result, nil
		}

		if r.executor == nil {
			return nil, fmt.Errorf("model requested tool %q but no executor is configured", response.ToolCalls[0].Function.Name)
		}

		// Tools run sequentially, in the order the model requested them.
		// An error from a tool is fed back to the model as the tool's
		// result rather than ending the run.
		for _, call := range response.ToolCalls {
			output, execErr := r.executor.Execute(ctx, call.Function.Name, call.Function.Arguments)
			if execErr != nil {
				output = "Error: " + execErr.Error()
			}

			messages = append(messages, ai.Message{
				Role:       ai.RoleTool,
				Content:    output,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
			result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
				ToolName:  call.Function.Name,
				Arguments: parse.ToolArguments(call.Function.Arguments),
				Result:    output,
			})
		}
	}
}

// send issues one provider call with the full running message list. With a
// sink the call is streamed and every event is forwarded before the
// accumulated response is returned.
func (r *Runner) send(ctx context.Context, messages []ai.Message, sink EventSink) (*ai.ChatResponse, error) {
	request := ai.ChatRequest{
		Model:           r.model,
		SystemPrompt:    r.systemPrompt,
		Messages:        messages,
		Tools:           r.tools,
		EnableReasoning: r.enableReasoning,
	}

	if sink == nil {
		return r.provider.SendMessage(ctx, request)
	}

	stream, err := r.openStream(ctx, request)
	if err != nil {
		return nil, err
	}
	return stream.Observe(func(event ai.StreamEvent) {
		emitToSink(sink, event)
	})
}

func (r *Runner) openStream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if streamer, ok := r.provider.(ai.StreamProvider); ok {
		return streamer.StreamMessage(ctx, request)
	}

	response, err := r.provider.SendMessage(ctx, request)
	if err != nil {
		return nil, err
	}
	return ai.NewSingleEventStream(response), nil
}

// emitToSink delivers one event, swallowing sink panics so a misbehaving
// observer cannot fail the run.
func emitToSink(sink EventSink, event ai.StreamEvent) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Debug("stream event sink panicked", "panic", recovered)
		}
	}()
	sink(event)
}
