package ai

import (
	"context"
	"errors"
)

// StreamEventType identifies the kind of delta carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventContent indicates a text content delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventReasoning indicates a reasoning/thinking content delta.
	StreamEventReasoning StreamEventType = "reasoning"
	// StreamEventToolCallStart announces a new tool call (ID and name).
	// It always precedes any StreamEventToolCallDelta for the same ID.
	StreamEventToolCallStart StreamEventType = "tool_call_start"
	// StreamEventToolCallDelta carries an incremental tool-call arguments fragment.
	StreamEventToolCallDelta StreamEventType = "tool_call_delta"
	// StreamEventUsage carries token usage metadata (typically the final data event).
	StreamEventUsage StreamEventType = "usage"
	// StreamEventDone signals that the stream has finished normally.
	// No further events follow it.
	StreamEventDone StreamEventType = "done"
	// StreamEventError signals an error that terminated the stream.
	// No further events follow it.
	StreamEventError StreamEventType = "error"
)

// ToolCallDelta identifies the tool call a streamed fragment belongs to.
// Start events carry ID and Name; delta events carry ID and Arguments.
// Concatenating all Arguments fragments for one ID in emission order yields
// a JSON-decodable string once the call is complete.
type ToolCallDelta struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`      // Function name (start event only)
	Arguments string `json:"arguments,omitempty"` // Incremental JSON argument fragment
}

// StreamEvent represents a single normalized delta yielded during LLM
// response streaming. Each event carries exactly one type of payload,
// identified by the Type field.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`       // Text delta (Type == StreamEventContent)
	Reasoning    string          `json:"reasoning,omitempty"`     // Reasoning delta (Type == StreamEventReasoning)
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`     // Tool call start/delta payload
	Usage        *Usage          `json:"usage,omitempty"`         // Token usage (Type == StreamEventUsage)
	FinishReason string          `json:"finish_reason,omitempty"` // Present on StreamEventDone
	Error        string          `json:"error,omitempty"`         // Error message (Type == StreamEventError)
}

// streamBufferSize is the capacity of the event channel between the
// background reader goroutine and the consumer. A full channel blocks the
// producer, giving natural backpressure from a slow consumer back to the
// network read.
const streamBufferSize = 100

// ChatStream delivers normalized StreamEvents from a background reader
// goroutine to a single consumer over a bounded channel. The producer closes
// the channel after the terminal Done or Error event, which the consumer
// observes as end-of-stream.
//
// Callers must consume the stream, either by ranging over Events() or by
// calling Collect(). Abandoning a stream mid-way is safe only when the
// context passed to the provider is cancelled: cancellation unblocks the
// producer and releases the underlying HTTP response body.
type ChatStream struct {
	events chan StreamEvent
}

// NewChatStream creates an empty ChatStream with the standard buffer size.
// Providers emit into it from their reader goroutine via Emit and Close.
func NewChatStream() *ChatStream {
	return &ChatStream{events: make(chan StreamEvent, streamBufferSize)}
}

// NewSingleEventStream wraps a completed ChatResponse as an already-populated
// stream. This is the fallback for providers without streaming support: the
// entire response is delivered as one content event (plus reasoning, tool
// call, and usage events where present) followed by a done event.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	stream := &ChatStream{events: make(chan StreamEvent, streamBufferSize)}

	if response.Content != "" {
		stream.events <- StreamEvent{Type: StreamEventContent, Content: response.Content}
	}
	if response.Reasoning != "" {
		stream.events <- StreamEvent{Type: StreamEventReasoning, Reasoning: response.Reasoning}
	}
	for _, toolCall := range response.ToolCalls {
		stream.events <- StreamEvent{
			Type:     StreamEventToolCallStart,
			ToolCall: &ToolCallDelta{ID: toolCall.ID, Name: toolCall.Function.Name},
		}
		stream.events <- StreamEvent{
			Type:     StreamEventToolCallDelta,
			ToolCall: &ToolCallDelta{ID: toolCall.ID, Arguments: toolCall.Function.Arguments},
		}
	}
	if response.Usage != nil {
		stream.events <- StreamEvent{Type: StreamEventUsage, Usage: response.Usage}
	}
	stream.events <- StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason}
	close(stream.events)

	return stream
}

// Events returns the receive side of the bounded event channel. The channel
// is closed by the producer after the terminal Done or Error event.
func (stream *ChatStream) Events() <-chan StreamEvent {
	return stream.events
}

// Emit pushes an event into the stream, blocking while the buffer is full.
// It returns false when ctx is done before the event could be delivered,
// which producers must treat as "consumer gone, stop reading".
func (stream *ChatStream) Emit(ctx context.Context, event StreamEvent) bool {
	select {
	case stream.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close marks the end of the stream. No events may be emitted after Close.
func (stream *ChatStream) Close() {
	close(stream.events)
}

// Collect consumes the entire stream and returns the accumulated ChatResponse.
// This is a convenience for callers who want the complete response but still
// benefit from streaming transport (lower time-to-first-byte). A terminal
// error event terminates collection and returns the partial response together
// with the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	return stream.Observe(nil)
}

// Observe is Collect with a tap: observe is invoked for every event as it is
// consumed, before accumulation. A nil observe makes Observe equivalent to
// Collect.
func (stream *ChatStream) Observe(observe func(StreamEvent)) (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var builders []toolCallBuilder

	for event := range stream.events {
		if observe != nil {
			observe(event)
		}

		switch event.Type {
		case StreamEventContent:
			accumulated.Content += event.Content

		case StreamEventReasoning:
			accumulated.Reasoning += event.Reasoning

		case StreamEventToolCallStart, StreamEventToolCallDelta:
			if event.ToolCall != nil {
				builders = accumulateToolCallDelta(builders, event.ToolCall)
			}

		case StreamEventUsage:
			if event.Usage != nil {
				accumulated.Usage = event.Usage
			}

		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason

		case StreamEventError:
			finalizeToolCalls(accumulated, builders)
			return accumulated, errors.New(event.Error)
		}
	}

	finalizeToolCalls(accumulated, builders)
	return accumulated, nil
}

// toolCallBuilder accumulates incremental tool call fragments into a complete ToolCall.
type toolCallBuilder struct {
	id        string
	name      string
	arguments string
}

// accumulateToolCallDelta merges a ToolCallDelta into the running builder list,
// matching by tool call ID and appending a new builder for unseen IDs. Start
// order is preserved so finalized tool calls come out in announcement order.
func accumulateToolCallDelta(builders []toolCallBuilder, delta *ToolCallDelta) []toolCallBuilder {
	for i := range builders {
		if builders[i].id == delta.ID {
			if delta.Name != "" {
				builders[i].name = delta.Name
			}
			builders[i].arguments += delta.Arguments
			return builders
		}
	}

	return append(builders, toolCallBuilder{
		id:        delta.ID,
		name:      delta.Name,
		arguments: delta.Arguments,
	})
}

// finalizeToolCalls converts accumulated builders into ToolCalls on the response.
func finalizeToolCalls(response *ChatResponse, builders []toolCallBuilder) {
	for i := range builders {
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:   builders[i].id,
			Type: "function",
			Function: ToolCallFunction{
				Name:      builders[i].name,
				Arguments: builders[i].arguments,
			},
		})
	}
}
