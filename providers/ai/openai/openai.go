package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
	embeddingsEndpoint      = "/embeddings"
	modelsEndpoint          = "/models"

	// healthCheckTimeout bounds the reachability probe.
	healthCheckTimeout = 10 * time.Second
)

// OpenAIProvider implements [ai.Provider], [ai.StreamProvider], and
// [ai.Embedder] for the OpenAI chat completions API and compatible servers.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an OpenAIProvider initialized from environment variables.
// It reads OPENAI_API_KEY for authentication and OPENAI_API_BASE_URL for the
// endpoint base (defaulting to https://api.openai.com/v1 when unset). Point
// the base URL at an LM-Studio or vLLM server to use local models through
// the same adapter.
func New() *OpenAIProvider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (provider *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	provider.apiKey = apiKey
	return provider
}

// WithBaseURL sets the base URL for the API.
func (provider *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	provider.baseURL = baseURL
	return provider
}

// WithHttpClient sets a custom HTTP client.
func (provider *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	provider.client = httpClient
	return provider
}

// SendMessage implements [ai.Provider] by issuing a single-shot chat
// completions call and decoding the result into the generic format.
func (provider *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	chatRequest := requestToChatCompletion(request)

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](
		ctx, provider.client, provider.baseURL+chatCompletionsEndpoint, provider.apiKey, chatRequest)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, &ai.InvalidResponseError{Reason: "empty response body: " + httpResponse.Status}
	}
	if len(resp.Choices) == 0 {
		return nil, &ai.InvalidResponseError{Reason: "no choices in response"}
	}

	return chatCompletionToGeneric(*resp), nil
}

// Embed implements [ai.Embedder] using the /v1/embeddings endpoint.
// All inputs go out in a single batched request; results come back in input
// order.
func (provider *OpenAIProvider) Embed(ctx context.Context, request ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	wireRequest := embeddingsRequest{Model: request.Model, Input: request.Inputs}

	httpResponse, resp, err := utils.DoPostSync[embeddingsResponse](
		ctx, provider.client, provider.baseURL+embeddingsEndpoint, provider.apiKey, wireRequest)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, &ai.InvalidResponseError{Reason: "empty embeddings body: " + httpResponse.Status}
	}
	if len(resp.Data) != len(request.Inputs) {
		return nil, &ai.InvalidResponseError{
			Reason: fmt.Sprintf("embeddings count mismatch: %d inputs, %d results", len(request.Inputs), len(resp.Data)),
		}
	}

	return embeddingsToGeneric(*resp), nil
}

// HealthCheck probes the models listing endpoint. All failures map to false.
func (provider *OpenAIProvider) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return utils.DoGet(ctx, provider.client, provider.baseURL+modelsEndpoint,
		utils.HeaderOption{Key: "Authorization", Value: "Bearer " + provider.apiKey})
}

// IsStopMessage reports whether the given chat response should be treated as
// a terminal completion.
func (provider *OpenAIProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	// Pending tool calls always mean another turn.
	if len(message.ToolCalls) > 0 {
		return false
	}
	if message.FinishReason == "stop" || message.FinishReason == "length" || message.FinishReason == "content_filter" {
		return true
	}
	// No content and no tool calls: implicit stop.
	return message.Content == ""
}
