package anthropic

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/ai"
)

// StreamMessage implements [ai.StreamProvider] for Anthropic's Messages API.
// It sends a streaming request (stream=true) and returns a ChatStream
// populated by a background reader goroutine.
//
// Pre-stream errors (missing API key, non-2xx HTTP response, network
// failure) are returned immediately. Mid-stream failures (an Anthropic
// "error" event, SSE transport error) surface as exactly one terminal
// StreamEventError; undecodable frames are logged and skipped.
//
// Anthropic SSE lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
func (provider *AnthropicProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	anthropicReq := requestToAnthropic(request)
	anthropicReq.Stream = true

	// Pass empty apiKey so DoPostStream does not inject a Bearer token;
	// Anthropic authenticates via x-api-key (set inside buildHeaders).
	httpResponse, err := utils.DoPostStream(
		ctx,
		provider.client,
		provider.baseURL+messagesEndpoint,
		"",
		anthropicReq,
		provider.buildHeaders(request.EnableReasoning)...,
	)
	if err != nil {
		return nil, err
	}

	stream := ai.NewChatStream()
	go readMessagesStream(ctx, httpResponse.Body, stream)

	return stream, nil
}

// readMessagesStream is the background producer for one Anthropic stream.
// It tracks per-stream state: which tool_use block is currently open (so
// input_json_delta fragments attach to the ID announced by the preceding
// content_block_start), token counts spread across message_start and
// message_delta, and the stop reason captured before message_stop.
func readMessagesStream(ctx context.Context, body io.ReadCloser, stream *ai.ChatStream) {
	defer utils.CloseWithLog(body)
	defer stream.Close()

	sseScanner := utils.NewSSEScanner(body)

	// openToolCallID is the ID of the currently open tool_use block; an
	// input_json_delta always targets the most recent content_block_start.
	openToolCallID := ""

	// Token counts are spread across multiple events (message_start carries
	// input tokens, message_delta carries output tokens) so they are
	// accumulated and emitted as a single usage event.
	inputTokens := 0
	finishReason := ""

	for {
		payload, sseErr := sseScanner.Next()
		if sseErr == io.EOF {
			// A body that ends before message_stop still terminates with a
			// done event, so every stream closes on Done or Error.
			stream.Emit(ctx, ai.StreamEvent{
				Type:         ai.StreamEventDone,
				FinishReason: mapStopReason(finishReason),
			})
			return
		}
		if sseErr != nil {
			stream.Emit(ctx, ai.StreamEvent{
				Type:  ai.StreamEventError,
				Error: fmt.Sprintf("SSE read error: %v", sseErr),
			})
			return
		}

		event, parseErr := unmarshalStreamEvent(payload)
		if parseErr != nil {
			slog.Debug("skipping undecodable stream event",
				"provider", "anthropic", "error", parseErr.Error(), "payload", utils.TruncateString(payload, 200))
			continue
		}

		switch event.Type {

		case "message_start":
			// Carries the initial usage snapshot; output tokens are always 0
			// here. No event is emitted until message_delta completes the counts.
			if event.Message != nil {
				inputTokens = event.Message.Usage.InputTokens
			}

		case "content_block_start":
			// For tool_use blocks, the ID and name are only present on this
			// event, never on the subsequent input_json_delta fragments, so
			// the tool call header is announced immediately.
			if event.ContentBlock == nil {
				continue
			}
			if event.ContentBlock.Type == "tool_use" {
				openToolCallID = event.ContentBlock.ID
				if !stream.Emit(ctx, ai.StreamEvent{
					Type: ai.StreamEventToolCallStart,
					ToolCall: &ai.ToolCallDelta{
						ID:   event.ContentBlock.ID,
						Name: event.ContentBlock.Name,
					},
				}) {
					return
				}
			}
			// "text" and "thinking" blocks need no announcement.

		case "content_block_delta":
			if event.Delta == nil {
				continue
			}
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text != "" {
					if !stream.Emit(ctx, ai.StreamEvent{
						Type:    ai.StreamEventContent,
						Content: event.Delta.Text,
					}) {
						return
					}
				}

			case "thinking_delta":
				if event.Delta.Thinking != "" {
					if !stream.Emit(ctx, ai.StreamEvent{
						Type:      ai.StreamEventReasoning,
						Reasoning: event.Delta.Thinking,
					}) {
						return
					}
				}

			case "input_json_delta":
				if event.Delta.PartialJSON != "" && openToolCallID != "" {
					if !stream.Emit(ctx, ai.StreamEvent{
						Type: ai.StreamEventToolCallDelta,
						ToolCall: &ai.ToolCallDelta{
							ID:        openToolCallID,
							Arguments: event.Delta.PartialJSON,
						},
					}) {
						return
					}
				}
			}

		case "content_block_stop":
			// The next content_block_start identifies the new block.

		case "message_delta":
			// Carries the final output token count and the stop reason. The
			// consolidated usage event is emitted here so consumers always
			// receive usage before done.
			outputTokens := 0
			if event.Usage != nil {
				outputTokens = event.Usage.OutputTokens
			}
			if event.Delta != nil && event.Delta.StopReason != "" {
				finishReason = event.Delta.StopReason
			}

			if !stream.Emit(ctx, ai.StreamEvent{
				Type: ai.StreamEventUsage,
				Usage: &ai.Usage{
					PromptTokens:     inputTokens,
					CompletionTokens: outputTokens,
					TotalTokens:      inputTokens + outputTokens,
				},
			}) {
				return
			}

		case "message_stop":
			stream.Emit(ctx, ai.StreamEvent{
				Type:         ai.StreamEventDone,
				FinishReason: mapStopReason(finishReason),
			})
			return

		case "error":
			errMsg := "unknown stream error"
			if event.Error != nil {
				errMsg = event.Error.Message
			}
			stream.Emit(ctx, ai.StreamEvent{
				Type:  ai.StreamEventError,
				Error: "anthropic stream error: " + errMsg,
			})
			return

		case "ping":
			// Keep-alive; nothing to emit.

		default:
			// Unknown event types are skipped for forward-compatibility.
		}
	}
}
