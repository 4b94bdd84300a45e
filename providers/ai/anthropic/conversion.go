package anthropic

import (
	"encoding/json"

	"github.com/openscribe/agentkit/providers/ai"
)

// defaultMaxTokens is applied when the caller sets no cap; Anthropic requires
// max_tokens on every request.
const defaultMaxTokens = 4096

// requestToAnthropic converts an ai.ChatRequest into an anthropicRequest
// ready to POST to the Messages API. The system prompt is hoisted into the
// dedicated top-level field; missing optional fields are simply omitted.
func requestToAnthropic(request ai.ChatRequest) anthropicRequest {
	req := anthropicRequest{
		Model:       request.Model,
		Messages:    buildMessages(request.Messages),
		System:      request.SystemPrompt,
		Temperature: request.Temperature,
	}

	req.MaxTokens = request.MaxTokens
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	// Extended thinking: opt-in flag plus optional token budget. The beta
	// HTTP header that must accompany this field is added by buildHeaders.
	if request.EnableReasoning {
		thinking := &anthropicThinkingConfig{Type: "enabled"}
		if request.ThinkingBudget != nil && *request.ThinkingBudget > 0 {
			thinking.BudgetTokens = *request.ThinkingBudget
		}
		req.Thinking = thinking
	}

	for _, tool := range request.Tools {
		req.Tools = append(req.Tools, buildAnthropicTool(tool))
	}

	return req
}

// buildAnthropicTool converts a generic tool description. Anthropic requires
// input_schema, so an empty object schema is sent when the tool declares no
// parameters.
func buildAnthropicTool(tool ai.ToolDescription) anthropicTool {
	wireTool := anthropicTool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}
	if tool.Parameters != nil {
		if schemaBytes, err := json.Marshal(tool.Parameters); err == nil {
			wireTool.InputSchema = schemaBytes
		}
	}
	return wireTool
}

// buildMessages converts the generic message list into Anthropic message
// objects. Anthropic requires strictly alternating user/assistant turns, so
// consecutive tool-result messages are merged into a single user message
// with multiple tool_result content blocks, the only layout the API accepts.
func buildMessages(messages []ai.Message) []anthropicMessage {
	var result []anthropicMessage

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleUser:
			result = append(result, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: msg.Content}},
			})

		case ai.RoleAssistant:
			assistantMsg := anthropicMessage{Role: "assistant"}

			// Tool calls are represented as tool_use blocks with a complete
			// JSON input object.
			for _, toolCall := range msg.ToolCalls {
				assistantMsg.Content = append(assistantMsg.Content, anthropicContentBlock{
					Type:  "tool_use",
					ID:    toolCall.ID,
					Name:  toolCall.Function.Name,
					Input: toolArgumentsToInput(toolCall.Function.Arguments),
				})
			}

			if msg.Content != "" {
				assistantMsg.Content = append(assistantMsg.Content, anthropicContentBlock{
					Type: "text",
					Text: msg.Content,
				})
			}

			if len(assistantMsg.Content) > 0 {
				result = append(result, assistantMsg)
			}

		case ai.RoleTool:
			toolResultBlock := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
			}

			// Merge consecutive tool results into one user message; Anthropic
			// forbids two consecutive user turns.
			if len(result) > 0 && isAllToolResults(result[len(result)-1]) {
				last := &result[len(result)-1]
				last.Content = append(last.Content, toolResultBlock)
			} else {
				result = append(result, anthropicMessage{
					Role:    "user",
					Content: []anthropicContentBlock{toolResultBlock},
				})
			}

		case ai.RoleSystem:
			// System messages belong in the top-level system field. Handle a
			// stray one as a user message to avoid a silent drop.
			result = append(result, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}

	return result
}

// toolArgumentsToInput converts a raw arguments string into the JSON object
// Anthropic expects on a tool_use block. Arguments are untrusted model
// output; anything that is not valid JSON defaults to an empty object.
func toolArgumentsToInput(arguments string) json.RawMessage {
	if json.Valid([]byte(arguments)) && arguments != "" {
		return json.RawMessage(arguments)
	}
	return json.RawMessage(`{}`)
}

// isAllToolResults reports whether every content block in msg is a
// tool_result block, identifying the last message as a mergeable
// tool-result turn.
func isAllToolResults(msg anthropicMessage) bool {
	if msg.Role != "user" || len(msg.Content) == 0 {
		return false
	}
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}

// anthropicToGeneric converts a Messages API response to the
// provider-agnostic ai.ChatResponse. Multiple text blocks are concatenated
// into a single Content string, thinking blocks into Reasoning. Unknown
// block types are skipped for forward-compatibility.
func anthropicToGeneric(response anthropicResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:    response.ID,
		Model: response.Model,
	}

	for _, block := range response.Content {
		switch block.Type {
		case "text":
			result.Content += block.Text

		case "thinking":
			result.Reasoning += block.Thinking

		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	result.FinishReason = mapStopReason(response.StopReason)
	result.Usage = &ai.Usage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
	}

	return result
}

// mapStopReason converts an Anthropic stop_reason to the canonical
// finish_reason vocabulary.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "tool_use":
		return "tool_calls"
	case "max_tokens":
		return "length"
	default:
		return "stop"
	}
}
