package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/ai"
)

// StreamMessage implements [ai.StreamProvider] for the chat completions
// endpoint. It sends a streaming request with stream=true and returns a
// ChatStream populated by a background reader goroutine.
//
// Pre-stream errors (missing API key, non-2xx response, network failure) are
// returned immediately. Once the stream is open, transport errors surface as
// exactly one terminal StreamEventError; per-frame decode failures are
// logged and the frame is skipped.
func (provider *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	chatRequest := requestToChatCompletion(request)
	chatRequest.Stream = utils.Ptr(true)
	chatRequest.StreamOptions = &streamOptions{IncludeUsage: true}

	streamURL := provider.baseURL + chatCompletionsEndpoint
	httpResponse, err := utils.DoPostStream(ctx, provider.client, streamURL, provider.apiKey, chatRequest)
	if err != nil {
		return nil, err
	}

	stream := ai.NewChatStream()
	go readChatCompletionStream(ctx, httpResponse.Body, stream)

	return stream, nil
}

// readChatCompletionStream is the background producer: it reads SSE frames
// from the open response body, normalizes them, and pushes events into the
// bounded stream until the [DONE] sentinel, a transport error, or consumer
// abandonment (context cancellation).
func readChatCompletionStream(ctx context.Context, body io.ReadCloser, stream *ai.ChatStream) {
	defer utils.CloseWithLog(body)
	defer stream.Close()

	sseScanner := utils.NewSSEScanner(body)

	// Tool-call fragments arrive keyed by index; the common event model keys
	// them by ID. announced maps each index to its tool call ID once the
	// start fragment (the one carrying ID and name) has been seen.
	announced := map[int]string{}
	finishReason := ""

	for {
		payload, sseErr := sseScanner.Next()
		if sseErr == io.EOF {
			// The [DONE] sentinel (or body end) terminates the stream; emit
			// the terminal event with the last finish reason seen.
			stream.Emit(ctx, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason})
			return
		}
		if sseErr != nil {
			stream.Emit(ctx, ai.StreamEvent{
				Type:  ai.StreamEventError,
				Error: fmt.Sprintf("SSE read error: %v", sseErr),
			})
			return
		}

		chunk, parseErr := unmarshalStreamChunk(payload)
		if parseErr != nil {
			// A malformed frame is not fatal; skip it and keep reading.
			slog.Debug("skipping undecodable stream chunk",
				"provider", "openai", "error", parseErr.Error(), "payload", utils.TruncateString(payload, 200))
			continue
		}

		for _, event := range chunkToStreamEvents(chunk, announced, &finishReason) {
			if !stream.Emit(ctx, event) {
				return // Consumer gone; stop reading.
			}
		}
	}
}

// chunkToStreamEvents converts a single streaming chunk into zero or more
// normalized events. A single chunk can carry content, tool-call fragments,
// and usage at the same time.
func chunkToStreamEvents(chunk *chatCompletionStreamChunk, announced map[int]string, finishReason *string) []ai.StreamEvent {
	var events []ai.StreamEvent

	// The usage chunk typically has empty choices, so handle it first.
	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type: ai.StreamEventUsage,
			Usage: &ai.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			},
		})
	}

	for _, choice := range chunk.Choices {
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			events = append(events, ai.StreamEvent{
				Type:    ai.StreamEventContent,
				Content: *choice.Delta.Content,
			})
		}

		if choice.Delta.Reasoning != nil && *choice.Delta.Reasoning != "" {
			events = append(events, ai.StreamEvent{
				Type:      ai.StreamEventReasoning,
				Reasoning: *choice.Delta.Reasoning,
			})
		}

		for _, part := range choice.Delta.ToolCalls {
			callID, known := announced[part.Index]
			if !known {
				// First fragment for this index: announce the call. Some
				// OpenAI-compatible servers omit the ID, so synthesize one to
				// keep the ID-keyed delta contract intact.
				callID = part.ID
				if callID == "" {
					callID = "call_" + uuid.NewString()
				}
				announced[part.Index] = callID
				events = append(events, ai.StreamEvent{
					Type:     ai.StreamEventToolCallStart,
					ToolCall: &ai.ToolCallDelta{ID: callID, Name: part.Function.Name},
				})
			}
			if part.Function.Arguments != "" {
				events = append(events, ai.StreamEvent{
					Type:     ai.StreamEventToolCallDelta,
					ToolCall: &ai.ToolCallDelta{ID: callID, Arguments: part.Function.Arguments},
				})
			}
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			*finishReason = *choice.FinishReason
		}
	}

	return events
}
