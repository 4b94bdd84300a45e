package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/ai"
)

// StreamMessage implements [ai.StreamProvider] using the
// streamGenerateContent endpoint with alt=sse. Each SSE event carries a full
// generateContentResponse whose parts hold the new text for that chunk;
// thought-flagged parts are routed to reasoning events and function calls
// arrive whole, so each becomes a start event plus a single arguments delta.
func (provider *GeminiProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	streamURL := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", provider.baseURL, request.Model)
	geminiRequest := requestToGemini(request)

	httpResponse, err := utils.DoPostStream(
		ctx, provider.client, streamURL, "", geminiRequest, provider.authHeader())
	if err != nil {
		return nil, err
	}

	stream := ai.NewChatStream()
	go readGenerateContentStream(ctx, httpResponse.Body, stream)

	return stream, nil
}

// readGenerateContentStream is the background producer for one Gemini stream.
func readGenerateContentStream(ctx context.Context, body io.ReadCloser, stream *ai.ChatStream) {
	defer utils.CloseWithLog(body)
	defer stream.Close()

	sseScanner := utils.NewSSEScanner(body)

	toolCallCounter := 0
	finishReason := ""
	var usage *ai.Usage

	for {
		payload, sseErr := sseScanner.Next()
		if sseErr == io.EOF {
			// Usage arrives on the last chunk; emit it ahead of done so the
			// terminal-event invariant holds.
			if usage != nil {
				if !stream.Emit(ctx, ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage}) {
					return
				}
			}
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

		var chunk generateContentResponse
		if parseErr := json.Unmarshal([]byte(payload), &chunk); parseErr != nil {
			slog.Debug("skipping undecodable stream chunk",
				"provider", "gemini", "error", parseErr.Error(), "payload", utils.TruncateString(payload, 200))
			continue
		}

		if chunk.UsageMetadata != nil {
			usage = &ai.Usage{
				PromptTokens:     chunk.UsageMetadata.PromptTokenCount,
				CompletionTokens: chunk.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      chunk.UsageMetadata.TotalTokenCount,
			}
		}

		for _, event := range chunkToStreamEvents(&chunk, &toolCallCounter, &finishReason) {
			if !stream.Emit(ctx, event) {
				return
			}
		}
	}
}

// chunkToStreamEvents converts one streamed generateContentResponse into
// normalized events. Text parts become content or reasoning deltas depending
// on the thought flag; each function call becomes a start event followed by
// one delta carrying the complete arguments object.
func chunkToStreamEvents(chunk *generateContentResponse, toolCallCounter *int, finishReason *string) []ai.StreamEvent {
	var events []ai.StreamEvent

	if len(chunk.Candidates) == 0 {
		return events
	}

	candidate := chunk.Candidates[0]
	if candidate.FinishReason != "" {
		*finishReason = mapFinishReason(candidate.FinishReason)
	}
	if candidate.Content == nil {
		return events
	}

	for _, p := range candidate.Content.Parts {
		if p.Text != "" {
			if p.Thought {
				events = append(events, ai.StreamEvent{
					Type:      ai.StreamEventReasoning,
					Reasoning: p.Text,
				})
			} else {
				events = append(events, ai.StreamEvent{
					Type:    ai.StreamEventContent,
					Content: p.Text,
				})
			}
		}

		if p.FunctionCall != nil {
			callID := fmt.Sprintf("call_%d", *toolCallCounter)
			*toolCallCounter++
			*finishReason = "tool_calls"

			events = append(events,
				ai.StreamEvent{
					Type:     ai.StreamEventToolCallStart,
					ToolCall: &ai.ToolCallDelta{ID: callID, Name: p.FunctionCall.Name},
				},
				ai.StreamEvent{
					Type:     ai.StreamEventToolCallDelta,
					ToolCall: &ai.ToolCallDelta{ID: callID, Arguments: string(p.FunctionCall.Args)},
				},
			)
		}
	}

	return events
}
