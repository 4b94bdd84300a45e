package anthropic

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
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	messagesEndpoint = "/messages"
	modelsEndpoint   = "/models"

	// anthropicVersion is the required anthropic-version header value.
	// Anthropic uses this to version-lock response formats independently of
	// the URL.
	anthropicVersion = "2023-06-01"

	// thinkingBetaHeader must accompany requests that enable extended thinking.
	thinkingBetaHeader = "interleaved-thinking-2025-05-14"

	healthCheckTimeout = 10 * time.Second
)

// AnthropicProvider implements [ai.Provider] and [ai.StreamProvider] for
// Anthropic's Messages API, including extended thinking and tool use.
// Anthropic offers no embeddings endpoint, so [ai.Embedder] is not
// implemented; callers probing for it receive [ai.UnsupportedError] via
// [Embed].
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an AnthropicProvider initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL
// for the endpoint base (defaulting to https://api.anthropic.com/v1 when
// unset).
func New() *AnthropicProvider {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key used for authenticating requests. It overrides
// the value read from ANTHROPIC_API_KEY.
func (provider *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	provider.apiKey = apiKey
	return provider
}

// WithBaseURL overrides the API base URL. Use this when targeting a proxy or
// local testing endpoint.
func (provider *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	provider.baseURL = baseURL
	return provider
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (provider *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	provider.client = httpClient
	return provider
}

// buildHeaders constructs the HTTP headers required for every Anthropic
// request. x-api-key carries the credential (Anthropic does not use Bearer
// tokens) and anthropic-version pins the wire format. The anthropic-beta
// header is added only when extended thinking is requested, so it is absent
// for standard requests.
func (provider *AnthropicProvider) buildHeaders(enableThinking bool) []utils.HeaderOption {
	headers := []utils.HeaderOption{
		{Key: "x-api-key", Value: provider.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
	if enableThinking {
		headers = append(headers, utils.HeaderOption{Key: "anthropic-beta", Value: thinkingBetaHeader})
	}
	return headers
}

// SendMessage implements [ai.Provider] by sending a synchronous request to
// the Messages API and mapping the result into the generic format.
func (provider *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	anthropicReq := requestToAnthropic(request)

	// Pass empty apiKey so DoPostSync does not inject a Bearer token;
	// Anthropic authenticates via x-api-key instead.
	httpResponse, resp, err := utils.DoPostSync[anthropicResponse](
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

	if resp == nil {
		return nil, &ai.InvalidResponseError{Reason: "empty response body: " + httpResponse.Status}
	}

	result := anthropicToGeneric(*resp)

	// Fall back to the request model when the response omits it so callers
	// always have a non-empty Model field.
	if result.Model == "" {
		result.Model = request.Model
	}

	return result, nil
}

// Embed returns [ai.UnsupportedError]: Anthropic has no embeddings endpoint.
func (provider *AnthropicProvider) Embed(ctx context.Context, request ai.EmbedRequest) (*ai.EmbedResponse, error) {
	return nil, &ai.UnsupportedError{Reason: "anthropic does not provide an embeddings endpoint"}
}

// HealthCheck probes the models listing endpoint. All failures map to false.
func (provider *AnthropicProvider) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return utils.DoGet(ctx, provider.client, provider.baseURL+modelsEndpoint,
		utils.HeaderOption{Key: "x-api-key", Value: provider.apiKey},
		utils.HeaderOption{Key: "anthropic-version", Value: anthropicVersion})
}

// IsStopMessage reports whether message represents a terminal response that
// requires no further action. Responses that contain tool calls are never
// considered stops even when FinishReason is "stop", because some models set
// stop_reason to "end_turn" alongside tool_use blocks.
func (provider *AnthropicProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	if len(message.ToolCalls) > 0 {
		return false
	}
	if message.FinishReason == "stop" || message.FinishReason == "length" || message.FinishReason == "content_filter" {
		return true
	}
	return message.Content == ""
}
