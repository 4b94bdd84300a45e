package openai

import (
	"sort"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/ai"
)

// requestToChatCompletion converts an ai.ChatRequest to the chat completions
// wire format. The generic system prompt becomes a leading system-role
// message, since OpenAI has no dedicated top-level field for it. Missing
// optional fields are simply omitted; request construction never fails.
func requestToChatCompletion(request ai.ChatRequest) chatCompletionRequest {
	req := chatCompletionRequest{
		Model:       request.Model,
		Temperature: request.Temperature,
	}

	if request.MaxTokens > 0 {
		req.MaxTokens = utils.Ptr(request.MaxTokens)
	}
	if request.EnableReasoning {
		req.ReasoningEffort = "medium"
	}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(ai.RoleSystem),
			Content: request.SystemPrompt,
		})
	}

	for _, msg := range request.Messages {
		wireMsg := chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role == ai.RoleTool {
			wireMsg.Name = msg.Name
		}
		for _, toolCall := range msg.ToolCalls {
			wireCall := chatToolCall{ID: toolCall.ID, Type: "function"}
			wireCall.Function.Name = toolCall.Function.Name
			wireCall.Function.Arguments = toolCall.Function.Arguments
			wireMsg.ToolCalls = append(wireMsg.ToolCalls, wireCall)
		}
		req.Messages = append(req.Messages, wireMsg)
	}

	for _, tool := range request.Tools {
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	return req
}

// chatCompletionToGeneric converts a chat completions response to the
// provider-agnostic ai.ChatResponse. Only the first choice is considered;
// the runtime never requests multiple candidates.
func chatCompletionToGeneric(resp chatCompletionResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:    resp.ID,
		Model: resp.Model,
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		if choice.Message.Content != nil {
			result.Content = *choice.Message.Content
		}
		if choice.Message.Reasoning != nil {
			result.Reasoning = *choice.Message.Reasoning
		}
		result.FinishReason = choice.FinishReason
		result.ToolCalls = wireToolCallsToGeneric(choice.Message.ToolCalls)
	}

	if resp.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return result
}

func wireToolCallsToGeneric(wireCalls []chatToolCall) []ai.ToolCall {
	var toolCalls []ai.ToolCall
	for _, wireCall := range wireCalls {
		toolCalls = append(toolCalls, ai.ToolCall{
			ID:   wireCall.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      wireCall.Function.Name,
				Arguments: wireCall.Function.Arguments,
			},
		})
	}
	return toolCalls
}

// embeddingsToGeneric converts an embeddings response into input order.
// The API documents data as index-ordered but does not guarantee it, so the
// items are sorted by their Index field before extraction.
func embeddingsToGeneric(resp embeddingsResponse) *ai.EmbedResponse {
	items := make([]embeddingItem, len(resp.Data))
	copy(items, resp.Data)
	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })

	result := &ai.EmbedResponse{}
	for _, item := range items {
		result.Embeddings = append(result.Embeddings, item.Embedding)
	}
	if resp.Usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}
	return result
}
