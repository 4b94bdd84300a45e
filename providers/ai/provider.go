package ai

import (
	"context"
	"net/http"
)

// Provider is the core interface that every LLM provider implementation must
// satisfy. It covers the full lifecycle of a single request: authentication,
// endpoint configuration, message dispatch, and response interpretation.
// Use [StreamProvider] in addition when the provider supports streaming, and
// [Embedder] when it offers an embeddings endpoint.
type Provider interface {
	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response represents a terminal
	// completion (the model has nothing more to say and no further tool
	// calls are expected). Providers use their own finish-reason semantics
	// to implement this check.
	IsStopMessage(message *ChatResponse) bool

	// HealthCheck is a best-effort reachability probe with a short timeout.
	// Any network failure or non-success status reports false; it never
	// returns an error.
	HealthCheck(ctx context.Context) bool

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	// This is how OpenAI-compatible local servers (LM-Studio, vLLM) are
	// targeted through the OpenAI adapter.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}

// StreamProvider is an optional interface that providers implement to support
// streaming (SSE-based) responses. Callers detect streaming support via type
// assertion: provider.(StreamProvider). If the provider does not implement
// this interface, callers should fall back to SendMessage wrapped in
// [NewSingleEventStream].
type StreamProvider interface {
	Provider

	// StreamMessage sends a chat request and returns a ChatStream populated
	// by a background reader goroutine. Pre-stream errors (auth, bad
	// request, network) are returned as a normal error. Mid-stream errors
	// surface as exactly one terminal StreamEventError on the stream.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}

// Embedder is an optional interface for providers with an embeddings
// endpoint. Providers without one return [UnsupportedError] instead of
// implementing this interface with a stub.
type Embedder interface {
	// Embed generates one embedding per input text, in input order.
	Embed(ctx context.Context, request EmbedRequest) (*EmbedResponse, error)
}
