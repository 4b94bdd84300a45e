package ai

import (
	"github.com/openscribe/agentkit/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a single outbound chat call. It is built fresh for
// every provider call and never mutated after being handed to an adapter.
type ChatRequest struct {
	Model        string            `json:"model,omitempty"`         // Model name or identifier
	Messages     []Message         `json:"messages"`                // All conversation messages except the system prompt
	SystemPrompt string            `json:"system_prompt,omitempty"` // Optional system prompt; each adapter hoists it into its vendor field
	Tools        []ToolDescription `json:"tools,omitempty"`         // Tool definitions advertised to the model

	Temperature     *float64 `json:"temperature,omitempty"`      // Sampling temperature; omitted from the wire when nil
	MaxTokens       int      `json:"max_tokens,omitempty"`       // Response token cap; omitted when zero
	EnableReasoning bool     `json:"enable_reasoning,omitempty"` // Opt in to extended thinking where the vendor supports it
	ThinkingBudget  *int     `json:"thinking_budget,omitempty"`  // Optional token budget for extended thinking
}

// ToolDescription declares a callable tool to the model. Declared by the
// caller before a run and read-only for its duration.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message represents a single message in a conversation. Messages are
// immutable once constructed; they accumulate into an append-only list owned
// by the agent loop for the lifetime of one run.
//
// Exactly one of Content or ToolCalls is meaningfully populated on an
// assistant message. A tool-role message always carries both ToolCallID and
// Content.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being responded to
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that produced this result
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage carries token accounting for one provider call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the decoded response of a chat completion.
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	Reasoning    string     `json:"reasoning,omitempty"` // Extended thinking output, when requested
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// ToolCall represents a function/tool invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its raw argument payload.
// Arguments is raw model output that may be incomplete or malformed; consumers
// must tolerate it (defaulting to an empty object) rather than aborting.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

/*
	##### EMBEDDINGS #####
*/

// EmbedRequest asks a provider for one embedding vector per input text.
type EmbedRequest struct {
	Model  string   `json:"model,omitempty"`
	Inputs []string `json:"inputs"`
}

// EmbedResponse carries one embedding per request input, in input order.
type EmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Usage      *Usage      `json:"usage,omitempty"`
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)
