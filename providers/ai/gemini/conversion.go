package gemini

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openscribe/agentkit/providers/ai"
)

// requestToGemini converts an ai.ChatRequest to a generateContentRequest.
// The system prompt becomes the dedicated systemInstruction field.
func requestToGemini(request ai.ChatRequest) generateContentRequest {
	req := generateContentRequest{}

	if request.SystemPrompt != "" {
		req.SystemInstruction = &systemInstruction{
			Parts: []part{{Text: request.SystemPrompt}},
		}
	}

	req.Contents = buildContents(request.Messages)
	req.GenerationConfig = buildGenerationConfig(request)

	if len(request.Tools) > 0 {
		req.Tools = buildTools(request.Tools)
	}

	return req
}

// buildContents converts the generic message list to Gemini content turns.
// Role mapping: user -> user, assistant -> model, tool -> user with a
// functionResponse part (Gemini has no tool role).
func buildContents(messages []ai.Message) []content {
	var contents []content

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleUser:
			contents = append(contents, content{
				Role:  "user",
				Parts: []part{{Text: msg.Content}},
			})

		case ai.RoleAssistant:
			turn := content{Role: "model"}

			for _, toolCall := range msg.ToolCalls {
				turn.Parts = append(turn.Parts, part{
					FunctionCall: &functionCall{
						Name: toolCall.Function.Name,
						Args: argumentsToRawJSON(toolCall.Function.Arguments),
					},
				})
			}
			if msg.Content != "" {
				turn.Parts = append(turn.Parts, part{Text: msg.Content})
			}

			if len(turn.Parts) > 0 {
				contents = append(contents, turn)
			}

		case ai.RoleTool:
			contents = append(contents, content{
				Role: "user",
				Parts: []part{{
					FunctionResponse: &functionResponse{
						Name:     msg.Name,
						Response: toolResultToResponse(msg.Content),
					},
				}},
			})

		case ai.RoleSystem:
			// System messages belong in systemInstruction; a stray one is
			// converted to a user message rather than silently dropped.
			contents = append(contents, content{
				Role:  "user",
				Parts: []part{{Text: msg.Content}},
			})
		}
	}

	return contents
}

// argumentsToRawJSON passes through valid JSON arguments and defaults
// anything else to an empty object, since Gemini rejects malformed args.
func argumentsToRawJSON(arguments string) json.RawMessage {
	if arguments != "" && json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	return json.RawMessage(`{}`)
}

// toolResultToResponse wraps a tool result string into the JSON object shape
// functionResponse requires. Results that already are JSON objects pass
// through unchanged; plain text is wrapped under a "result" key.
func toolResultToResponse(result string) json.RawMessage {
	trimmed := []byte(result)
	if json.Valid(trimmed) && len(trimmed) > 0 && trimmed[0] == '{' {
		return json.RawMessage(trimmed)
	}
	wrapped, err := json.Marshal(map[string]string{"result": result})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return wrapped
}

func buildGenerationConfig(request ai.ChatRequest) *generationConfig {
	gc := &generationConfig{Temperature: request.Temperature}

	if request.MaxTokens > 0 {
		maxTokens := request.MaxTokens
		gc.MaxOutputTokens = &maxTokens
	}

	if request.EnableReasoning {
		gc.ThinkingConfig = &thinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  request.ThinkingBudget,
		}
	}

	if gc.Temperature == nil && gc.MaxOutputTokens == nil && gc.ThinkingConfig == nil {
		return nil
	}
	return gc
}

// buildTools converts tool descriptions into a single tool entry carrying
// all function declarations, the layout Gemini expects.
func buildTools(aiTools []ai.ToolDescription) []tool {
	var funcDecls []functionDeclaration

	for _, t := range aiTools {
		decl := functionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		if t.Parameters != nil {
			if paramBytes, err := json.Marshal(t.Parameters); err == nil {
				decl.Parameters = paramBytes
			}
		}
		funcDecls = append(funcDecls, decl)
	}

	return []tool{{FunctionDeclarations: funcDecls}}
}

// geminiToGeneric converts a generateContentResponse to ai.ChatResponse.
// Parts flagged thought=true are routed to Reasoning, the rest to Content.
func geminiToGeneric(resp generateContentResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:    fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Model: resp.ModelVersion,
	}

	if usage := resp.UsageMetadata; usage != nil {
		result.Usage = &ai.Usage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		}
	}

	if len(resp.Candidates) == 0 {
		result.FinishReason = "error"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			result.FinishReason = "content_filter"
		}
		return result
	}

	candidate := resp.Candidates[0]
	result.FinishReason = mapFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			if p.Text != "" {
				if p.Thought {
					result.Reasoning += p.Text
				} else {
					result.Content += p.Text
				}
			}

			if p.FunctionCall != nil {
				result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
					ID:   fmt.Sprintf("call_%d", len(result.ToolCalls)),
					Type: "function",
					Function: ai.ToolCallFunction{
						Name:      p.FunctionCall.Name,
						Arguments: string(p.FunctionCall.Args),
					},
				})
			}
		}
	}

	if len(result.ToolCalls) > 0 {
		result.FinishReason = "tool_calls"
	}

	return result
}

// mapFinishReason converts a Gemini finishReason to the canonical
// finish_reason vocabulary.
func mapFinishReason(finishReason string) string {
	switch finishReason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "PROHIBITED_CONTENT", "BLOCKLIST":
		return "content_filter"
	case "":
		return ""
	default:
		return "stop"
	}
}
