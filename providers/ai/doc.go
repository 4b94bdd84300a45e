// Package ai defines the shared, provider-agnostic types and interfaces used
// across all LLM provider implementations (OpenAI-compatible, Anthropic,
// Gemini). Each provider's conversion layer is responsible for mapping these
// types to its own wire format, keeping the rest of the codebase decoupled
// from provider-specific details.
//
// The central interfaces are [Provider] for synchronous chat completions,
// [StreamProvider] for SSE-based streaming responses, and [Embedder] for text
// embeddings. Request data flows through [ChatRequest] and responses are
// returned as [ChatResponse]. For real-time streaming, [ChatStream] carries
// normalized [StreamEvent] deltas to the caller over a bounded channel.
package ai
