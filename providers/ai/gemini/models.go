package gemini

import "encoding/json"

/*
	GEMINI GENERATECONTENT API - REQUEST TYPES
*/

// generateContentRequest represents the models/{model}:generateContent request body.
type generateContentRequest struct {
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
	Contents          []content          `json:"contents"`
	GenerationConfig  *generationConfig  `json:"generationConfig,omitempty"`
	Tools             []tool             `json:"tools,omitempty"`
}

// systemInstruction carries the hoisted system prompt; Gemini has no system
// message role.
type systemInstruction struct {
	Parts []part `json:"parts"`
}

// content is one conversational turn. Role is "user" or "model".
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part is a discriminated union: exactly one of Text, FunctionCall, or
// FunctionResponse is populated. Thought marks interleaved thinking tokens
// on response parts.
type part struct {
	Text             string            `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

// functionCall is a tool invocation requested by the model; Args is a
// complete JSON object, never incremental.
type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// functionResponse submits a tool result back to the model inside a
// user-role turn.
type functionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type generationConfig struct {
	Temperature     *float64        `json:"temperature,omitempty"`
	MaxOutputTokens *int            `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

// thinkingConfig opts the request in to thinking output.
type thinkingConfig struct {
	ThinkingBudget  *int `json:"thinkingBudget,omitempty"`
	IncludeThoughts bool `json:"includeThoughts,omitempty"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
}

type functionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

/*
	GEMINI GENERATECONTENT API - RESPONSE TYPES
*/

// generateContentResponse is returned by both the sync endpoint and, chunk
// by chunk, by streamGenerateContent with alt=sse.
type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

type candidate struct {
	Content      *content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

/*
	GEMINI EMBEDCONTENT API
*/

// embedContentRequest embeds exactly one input; the endpoint has no batch form.
type embedContentRequest struct {
	Content embedContentPayload `json:"content"`
}

type embedContentPayload struct {
	Parts []part `json:"parts"`
}

type embedContentResponse struct {
	Embedding *embeddingValues `json:"embedding,omitempty"`
}

type embeddingValues struct {
	Values []float64 `json:"values"`
}
