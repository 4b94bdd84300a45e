package ai

import (
	"context"
	"testing"
	"time"
)

func TestCollectAccumulatesDeltas(t *testing.T) {
	stream := NewChatStream()
	go func() {
		ctx := context.Background()
		stream.Emit(ctx, StreamEvent{Type: StreamEventReasoning, Reasoning: "hm "})
		stream.Emit(ctx, StreamEvent{Type: StreamEventContent, Content: "Hello "})
		stream.Emit(ctx, StreamEvent{Type: StreamEventContent, Content: "world"})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallStart, ToolCall: &ToolCallDelta{ID: "call_1", Name: "lookup"}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "call_1", Arguments: `{"a":`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "call_1", Arguments: `1}`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventUsage, Usage: &Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventDone, FinishReason: "tool_calls"})
		stream.Close()
	}()

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "Hello world" {
		t.Errorf("expected 'Hello world', got %q", response.Content)
	}
	if response.Reasoning != "hm " {
		t.Errorf("expected reasoning 'hm ', got %q", response.Reasoning)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}
	call := response.ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "lookup" || call.Function.Arguments != `{"a":1}` {
		t.Errorf("unexpected tool call: %+v", call)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 7 {
		t.Errorf("unexpected usage: %+v", response.Usage)
	}
	if response.FinishReason != "tool_calls" {
		t.Errorf("unexpected finish reason: %q", response.FinishReason)
	}
}

func TestCollectInterleavedToolCallsPreserveStartOrder(t *testing.T) {
	stream := NewChatStream()
	go func() {
		ctx := context.Background()
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallStart, ToolCall: &ToolCallDelta{ID: "a", Name: "first"}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallStart, ToolCall: &ToolCallDelta{ID: "b", Name: "second"}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "b", Arguments: `{}`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "a", Arguments: `{}`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventDone})
		stream.Close()
	}()

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(response.ToolCalls))
	}
	if response.ToolCalls[0].Function.Name != "first" || response.ToolCalls[1].Function.Name != "second" {
		t.Errorf("tool calls not in announcement order: %+v", response.ToolCalls)
	}
}

func TestCollectManyFragmentedToolCalls(t *testing.T) {
	// Several calls, several argument fragments each: accumulation must keep
	// appending to a builder after later calls have been added to the list.
	stream := NewChatStream()
	go func() {
		ctx := context.Background()
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallStart, ToolCall: &ToolCallDelta{ID: "a", Name: "alpha"}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "a", Arguments: `{"x"`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallStart, ToolCall: &ToolCallDelta{ID: "b", Name: "beta"}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "a", Arguments: `: 1`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "b", Arguments: `{"y"`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "a", Arguments: `}`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventToolCallDelta, ToolCall: &ToolCallDelta{ID: "b", Arguments: `: 2}`}})
		stream.Emit(ctx, StreamEvent{Type: StreamEventDone, FinishReason: "tool_calls"})
		stream.Close()
	}()

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(response.ToolCalls))
	}
	if got := response.ToolCalls[0].Function.Arguments; got != `{"x": 1}` {
		t.Errorf("fragments for call a lost or reordered: %q", got)
	}
	if got := response.ToolCalls[1].Function.Arguments; got != `{"y": 2}` {
		t.Errorf("fragments for call b lost or reordered: %q", got)
	}
}

func TestCollectErrorEventReturnsPartialResponse(t *testing.T) {
	stream := NewChatStream()
	go func() {
		ctx := context.Background()
		stream.Emit(ctx, StreamEvent{Type: StreamEventContent, Content: "partial"})
		stream.Emit(ctx, StreamEvent{Type: StreamEventError, Error: "connection reset"})
		stream.Close()
	}()

	response, err := stream.Collect()
	if err == nil {
		t.Fatal("expected error from terminal error event")
	}
	if response == nil || response.Content != "partial" {
		t.Errorf("expected partial response, got %+v", response)
	}
}

func TestObserveTapsEveryEvent(t *testing.T) {
	stream := NewChatStream()
	go func() {
		ctx := context.Background()
		stream.Emit(ctx, StreamEvent{Type: StreamEventContent, Content: "a"})
		stream.Emit(ctx, StreamEvent{Type: StreamEventDone, FinishReason: "stop"})
		stream.Close()
	}()

	var seen []StreamEventType
	response, err := stream.Observe(func(event StreamEvent) {
		seen = append(seen, event.Type)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "a" {
		t.Errorf("unexpected content %q", response.Content)
	}
	if len(seen) != 2 || seen[0] != StreamEventContent || seen[1] != StreamEventDone {
		t.Errorf("observer missed events: %v", seen)
	}
}

func TestNewSingleEventStreamReplaysResponse(t *testing.T) {
	original := &ChatResponse{
		Content:   "done",
		Reasoning: "because",
		ToolCalls: []ToolCall{{
			ID: "call_1", Type: "function",
			Function: ToolCallFunction{Name: "lookup", Arguments: `{"x":1}`},
		}},
		Usage:        &Usage{TotalTokens: 5},
		FinishReason: "stop",
	}

	rebuilt, err := NewSingleEventStream(original).Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rebuilt.Content != original.Content || rebuilt.Reasoning != original.Reasoning {
		t.Errorf("content/reasoning mismatch: %+v", rebuilt)
	}
	if len(rebuilt.ToolCalls) != 1 || rebuilt.ToolCalls[0] != original.ToolCalls[0] {
		t.Errorf("tool calls mismatch: %+v", rebuilt.ToolCalls)
	}
	if rebuilt.FinishReason != "stop" {
		t.Errorf("finish reason mismatch: %q", rebuilt.FinishReason)
	}
}

// A producer blocked on a full buffer must be released when the consumer's
// context is cancelled.
func TestEmitUnblocksOnContextCancel(t *testing.T) {
	stream := NewChatStream()
	ctx, cancel := context.WithCancel(context.Background())

	returned := make(chan bool, 1)
	go func() {
		for {
			if !stream.Emit(ctx, StreamEvent{Type: StreamEventContent, Content: "x"}) {
				returned <- false
				return
			}
		}
	}()

	// Give the producer time to fill the buffer, then cancel instead of
	// consuming.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case delivered := <-returned:
		if delivered {
			t.Error("expected Emit to report failure after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("producer still blocked after context cancellation")
	}
}
