package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscribe/agentkit/providers/ai"
)

// scriptedProvider replays a fixed sequence of responses and records every
// request it receives.
type scriptedProvider struct {
	responses []*ai.ChatResponse
	requests  []ai.ChatRequest
	err       error
}

func (p *scriptedProvider) SendMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, request)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return nil, errors.New("scripted provider exhausted")
	}
	response := p.responses[0]
	p.responses = p.responses[1:]
	return response, nil
}

func (p *scriptedProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message.FinishReason == "stop"
}

func (p *scriptedProvider) HealthCheck(context.Context) bool { return true }

func (p *scriptedProvider) WithAPIKey(string) ai.Provider { return p }

func (p *scriptedProvider) WithBaseURL(string) ai.Provider { return p }

func (p *scriptedProvider) WithHttpClient(*http.Client) ai.Provider { return p }

type executorFunc func(ctx context.Context, name, argumentsJSON string) (string, error)

func (f executorFunc) Execute(ctx context.Context, name, argumentsJSON string) (string, error) {
	return f(ctx, name, argumentsJSON)
}

func toolCallResponse(id, name, arguments string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Content:      "Let me check.",
		FinishReason: "tool_calls",
		ToolCalls: []ai.ToolCall{{
			ID:   id,
			Type: "function",
			Function: ai.ToolCallFunction{Name: name, Arguments: arguments},
		}},
		Usage: &ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func stopResponse(content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Content:      content,
		FinishReason: "stop",
		Usage:        &ai.Usage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28},
	}
}

func TestRunWithoutToolCalls(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{stopResponse("Paris.")}}

	result, err := NewRunner(provider).SetModel("test-model").Run(context.Background(), "Capital of France?", nil)
	require.NoError(t, err)

	assert.Equal(t, "Paris.", result.FinalResponse)
	assert.Equal(t, 1, result.Iterations, "a single text-only turn is one iteration")
	assert.Empty(t, result.ToolCalls)
	assert.False(t, result.Cancelled)
	assert.False(t, result.Truncated)
	assert.Equal(t, 28, result.Usage.TotalTokens)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "test-model", provider.requests[0].Model)
}

func TestRunResolvesToolCallsAcrossTurns(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "web_search", `{"query": "weather"}`),
		stopResponse("It is sunny."),
	}}
	executor := executorFunc(func(_ context.Context, name, args string) (string, error) {
		assert.Equal(t, "web_search", name)
		return `{"summary": "sunny"}`, nil
	})

	result, err := NewRunner(provider).SetExecutor(executor).Run(context.Background(), "Weather?", nil)
	require.NoError(t, err)

	assert.Equal(t, "It is sunny.", result.FinalResponse)
	assert.Equal(t, 2, result.Iterations, "one tool turn plus the final turn")
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "web_search", result.ToolCalls[0].ToolName)
	assert.Equal(t, "weather", result.ToolCalls[0].Arguments["query"])
	assert.Equal(t, `{"summary": "sunny"}`, result.ToolCalls[0].Result)

	// Usage accumulates across both provider calls.
	assert.Equal(t, 43, result.Usage.TotalTokens)

	// The second request must carry the assistant turn and the tool result.
	require.Len(t, provider.requests, 2)
	followUp := provider.requests[1].Messages
	require.Len(t, followUp, 3)
	assert.Equal(t, ai.RoleAssistant, followUp[1].Role)
	require.Len(t, followUp[1].ToolCalls, 1)
	assert.Equal(t, ai.RoleTool, followUp[2].Role)
	assert.Equal(t, "call_1", followUp[2].ToolCallID)
	assert.Equal(t, "web_search", followUp[2].Name)
	assert.Equal(t, `{"summary": "sunny"}`, followUp[2].Content)
}

func TestRunCountsEveryProviderTurn(t *testing.T) {
	// Two tool-call turns followed by a plain-text answer: three provider
	// turns, two tool executions.
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "web_search", `{"query": "a"}`),
		toolCallResponse("call_2", "web_search", `{"query": "b"}`),
		stopResponse("done"),
	}}
	executor := executorFunc(func(context.Context, string, string) (string, error) {
		return "ok", nil
	})

	result, err := NewRunner(provider).SetExecutor(executor).Run(context.Background(), "go", nil)
	require.NoError(t, err)

	assert.Equal(t, "done", result.FinalResponse)
	assert.Equal(t, 3, result.Iterations)
	assert.Len(t, result.ToolCalls, 2)
	assert.False(t, result.Truncated)
}

func TestRunExecutesToolsSequentiallyInOrder(t *testing.T) {
	multi := &ai.ChatResponse{
		FinishReason: "tool_calls",
		ToolCalls: []ai.ToolCall{
			{ID: "call_a", Type: "function", Function: ai.ToolCallFunction{Name: "first", Arguments: "{}"}},
			{ID: "call_b", Type: "function", Function: ai.ToolCallFunction{Name: "second", Arguments: "{}"}},
		},
	}
	provider := &scriptedProvider{responses: []*ai.ChatResponse{multi, stopResponse("done")}}

	var order []string
	executor := executorFunc(func(_ context.Context, name, _ string) (string, error) {
		order = append(order, name)
		return "ok", nil
	})

	result, err := NewRunner(provider).SetExecutor(executor).Run(context.Background(), "go", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "first", result.ToolCalls[0].ToolName)
	assert.Equal(t, "second", result.ToolCalls[1].ToolName)
}

func TestRunToolErrorIsFedBackAsResult(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "web_fetch", `{"url": "example.com"}`),
		stopResponse("The page was unreachable."),
	}}
	executor := executorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("connection refused")
	})

	result, err := NewRunner(provider).SetExecutor(executor).Run(context.Background(), "fetch it", nil)
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "Error: connection refused", result.ToolCalls[0].Result)

	// The model sees the error text as an ordinary tool result.
	toolMessage := provider.requests[1].Messages[2]
	assert.Equal(t, ai.RoleTool, toolMessage.Role)
	assert.Equal(t, "Error: connection refused", toolMessage.Content)
}

func TestRunIterationCapTruncates(t *testing.T) {
	// Provider that never stops asking for tools.
	responses := make([]*ai.ChatResponse, 0, 4)
	for i := 0; i < 4; i++ {
		responses = append(responses, toolCallResponse(fmt.Sprintf("call_%d", i), "loop", "{}"))
	}
	provider := &scriptedProvider{responses: responses}
	executor := executorFunc(func(context.Context, string, string) (string, error) {
		return "still going", nil
	})

	result, err := NewRunner(provider).
		SetExecutor(executor).
		SetMaxIterations(3).
		Run(context.Background(), "loop forever", nil)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.False(t, result.Cancelled)
	assert.Equal(t, 3, result.Iterations)
	assert.Len(t, result.ToolCalls, 3)
	assert.Equal(t, "Let me check.", result.FinalResponse)
	assert.Len(t, provider.requests, 3)
}

func TestRunPreCancelledTokenReturnsImmediately(t *testing.T) {
	provider := &scriptedProvider{}
	token := NewCancelToken()
	token.Cancel()

	result, err := NewRunner(provider).Run(context.Background(), "anything", token)
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.FinalResponse)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, provider.requests, "no provider call after cancellation")
}

func TestRunCancelBetweenIterations(t *testing.T) {
	token := NewCancelToken()
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "slow", "{}"),
	}}
	executor := executorFunc(func(context.Context, string, string) (string, error) {
		token.Cancel() // cancelled mid-run; observed at the next iteration boundary
		return "partial", nil
	})

	result, err := NewRunner(provider).SetExecutor(executor).Run(context.Background(), "go", token)
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Iterations)
	assert.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "Let me check.", result.FinalResponse, "partial content survives cancellation")
}

func TestRunProviderErrorAbortsRun(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection reset")}

	result, err := NewRunner(provider).Run(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestRunToolCallWithoutExecutorFails(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse("call_1", "web_search", "{}"),
	}}

	_, err := NewRunner(provider).Run(context.Background(), "search", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no executor is configured`)
}

func TestRunStreamForwardsEventsToSink(t *testing.T) {
	// scriptedProvider is not a StreamProvider, so the runner adapts each
	// complete response into a burst of events.
	provider := &scriptedProvider{responses: []*ai.ChatResponse{stopResponse("streamed answer")}}

	var events []ai.StreamEvent
	result, err := NewRunner(provider).RunStream(context.Background(), "hi", nil, func(event ai.StreamEvent) {
		events = append(events, event)
	})
	require.NoError(t, err)

	assert.Equal(t, "streamed answer", result.FinalResponse)
	require.Len(t, events, 3)
	assert.Equal(t, ai.StreamEventContent, events[0].Type)
	assert.Equal(t, "streamed answer", events[0].Content)
	assert.Equal(t, ai.StreamEventUsage, events[1].Type)
	assert.Equal(t, ai.StreamEventDone, events[2].Type)
	assert.Equal(t, "stop", events[2].FinishReason)
}

func TestRunStreamPanickingSinkDoesNotFailRun(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{stopResponse("survived")}}

	result, err := NewRunner(provider).RunStream(context.Background(), "hi", nil, func(ai.StreamEvent) {
		panic("observer bug")
	})
	require.NoError(t, err)
	assert.Equal(t, "survived", result.FinalResponse)
}

func TestCancelTokenNilSafe(t *testing.T) {
	var token *CancelToken
	assert.False(t, token.Cancelled())

	token = NewCancelToken()
	assert.False(t, token.Cancelled())
	token.Cancel()
	assert.True(t, token.Cancelled())
	token.Cancel() // idempotent
	assert.True(t, token.Cancelled())
}
