package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openscribe/agentkit/providers/ai"
)

const streamFixture = `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"}}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_abc","type":"function","function":{"name":"web_search","arguments":""}}]}}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"query\":"}}]}}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"go\"}"}}]},"finish_reason":"tool_calls"}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":6,"total_tokens":18}}

data: [DONE]

`

// serveSSE writes body in writeSize-byte slices with a flush between each,
// so the client sees arbitrary frame boundaries.
func serveSSE(t *testing.T, body string, writeSize int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for start := 0; start < len(body); start += writeSize {
			end := start + writeSize
			if end > len(body) {
				end = len(body)
			}
			_, _ = w.Write([]byte(body[start:end]))
			flusher.Flush()
		}
	}))
}

func drainStream(t *testing.T, stream *ai.ChatStream) []ai.StreamEvent {
	t.Helper()
	var events []ai.StreamEvent
	for event := range stream.Events() {
		events = append(events, event)
	}
	return events
}

func openStream(t *testing.T, serverURL string) *ai.ChatStream {
	t.Helper()
	provider := New().WithAPIKey("test-key").WithBaseURL(serverURL).(*OpenAIProvider)
	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	return stream
}

func TestStreamMessageNormalizesEvents(t *testing.T) {
	server := serveSSE(t, streamFixture, len(streamFixture))
	defer server.Close()

	events := drainStream(t, openStream(t, server.URL))

	wantTypes := []ai.StreamEventType{
		ai.StreamEventContent,
		ai.StreamEventContent,
		ai.StreamEventToolCallStart,
		ai.StreamEventToolCallDelta,
		ai.StreamEventToolCallDelta,
		ai.StreamEventUsage,
		ai.StreamEventDone,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d: expected type %q, got %q", i, want, events[i].Type)
		}
	}

	if events[0].Content+events[1].Content != "Hello" {
		t.Errorf("expected content 'Hello', got %q", events[0].Content+events[1].Content)
	}
	if events[2].ToolCall == nil || events[2].ToolCall.ID != "call_abc" || events[2].ToolCall.Name != "web_search" {
		t.Errorf("unexpected tool call start: %+v", events[2].ToolCall)
	}
	if got := events[3].ToolCall.Arguments + events[4].ToolCall.Arguments; got != `{"query":"go"}` {
		t.Errorf("expected accumulated arguments '{\"query\":\"go\"}', got %q", got)
	}
	if events[5].Usage == nil || events[5].Usage.TotalTokens != 18 {
		t.Errorf("unexpected usage event: %+v", events[5].Usage)
	}
	if events[6].FinishReason != "tool_calls" {
		t.Errorf("expected finish reason 'tool_calls' on done, got %q", events[6].FinishReason)
	}
}

// The event sequence must not depend on how the SSE bytes were sliced into
// network reads.
func TestStreamMessageChunkBoundaryInvariance(t *testing.T) {
	var baseline []ai.StreamEvent
	for _, writeSize := range []int{1, 7, 64, len(streamFixture)} {
		server := serveSSE(t, streamFixture, writeSize)
		events := drainStream(t, openStream(t, server.URL))
		server.Close()

		if baseline == nil {
			baseline = events
			continue
		}
		if len(events) != len(baseline) {
			t.Fatalf("writeSize %d: expected %d events, got %d", writeSize, len(baseline), len(events))
		}
		for i := range events {
			if events[i].Type != baseline[i].Type || events[i].Content != baseline[i].Content {
				t.Errorf("writeSize %d: event %d differs: %+v vs %+v", writeSize, i, events[i], baseline[i])
			}
		}
	}
}

func TestStreamMessageSkipsUndecodableFrames(t *testing.T) {
	body := "data: {not json at all\n\n" +
		`data: {"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":"ok"},"finish_reason":"stop"}]}` + "\n\n" +
		"data: [DONE]\n\n"

	server := serveSSE(t, body, len(body))
	defer server.Close()

	events := drainStream(t, openStream(t, server.URL))

	if len(events) != 2 {
		t.Fatalf("expected 2 events (content, done), got %d: %+v", len(events), events)
	}
	if events[0].Type != ai.StreamEventContent || events[0].Content != "ok" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Type != ai.StreamEventDone || events[1].FinishReason != "stop" {
		t.Errorf("unexpected terminal event: %+v", events[1])
	}
}

func TestStreamMessageSynthesizesMissingToolCallID(t *testing.T) {
	body := `data: {"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"name":"lookup","arguments":"{}"}}]},"finish_reason":"tool_calls"}]}` + "\n\n" +
		"data: [DONE]\n\n"

	server := serveSSE(t, body, len(body))
	defer server.Close()

	events := drainStream(t, openStream(t, server.URL))

	if len(events) != 3 {
		t.Fatalf("expected start, delta, done; got %d events: %+v", len(events), events)
	}
	start, delta := events[0], events[1]
	if start.Type != ai.StreamEventToolCallStart || start.ToolCall.ID == "" {
		t.Errorf("expected synthesized tool call ID on start, got %+v", start.ToolCall)
	}
	if delta.ToolCall.ID != start.ToolCall.ID {
		t.Errorf("delta ID %q does not match start ID %q", delta.ToolCall.ID, start.ToolCall.ID)
	}
}

func TestStreamMessagePreStreamAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer server.Close()

	provider := New().WithAPIKey("bad-key").WithBaseURL(server.URL).(*OpenAIProvider)
	_, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected pre-stream error for non-2xx response")
	}
}
