package gemini

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
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	healthCheckTimeout = 10 * time.Second
)

// GeminiProvider implements [ai.Provider], [ai.StreamProvider], and
// [ai.Embedder] for Google's Gemini API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a GeminiProvider initialized from environment variables.
// It reads GEMINI_API_KEY for authentication and GEMINI_API_BASE_URL for the
// endpoint base (defaulting to the public generativelanguage host when unset).
func New() *GeminiProvider {
	apiKey := os.Getenv("GEMINI_API_KEY")
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (provider *GeminiProvider) WithAPIKey(apiKey string) ai.Provider {
	provider.apiKey = apiKey
	return provider
}

// WithBaseURL sets the base URL for the API.
func (provider *GeminiProvider) WithBaseURL(baseURL string) ai.Provider {
	provider.baseURL = baseURL
	return provider
}

// WithHttpClient sets a custom HTTP client.
func (provider *GeminiProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	provider.client = httpClient
	return provider
}

// authHeader returns the x-goog-api-key header; Gemini does not use Bearer
// tokens.
func (provider *GeminiProvider) authHeader() utils.HeaderOption {
	return utils.HeaderOption{Key: "x-goog-api-key", Value: provider.apiKey}
}

// SendMessage implements [ai.Provider] using the generateContent endpoint.
func (provider *GeminiProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", provider.baseURL, request.Model)
	geminiRequest := requestToGemini(request)

	// Empty apiKey suppresses DoPostSync's Bearer auth; Gemini authenticates
	// via x-goog-api-key.
	httpResponse, resp, err := utils.DoPostSync[generateContentResponse](
		ctx, provider.client, url, "", geminiRequest, provider.authHeader())
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, &ai.InvalidResponseError{Reason: "empty response body: " + httpResponse.Status}
	}
	if len(resp.Candidates) == 0 && resp.PromptFeedback == nil {
		return nil, &ai.InvalidResponseError{Reason: "no candidates in response"}
	}

	result := geminiToGeneric(*resp)
	if result.Model == "" {
		result.Model = request.Model
	}
	return result, nil
}

// Embed implements [ai.Embedder]. The embedContent endpoint accepts one
// input at a time, so batch embedding issues one call per input and
// concatenates the results in input order.
func (provider *GeminiProvider) Embed(ctx context.Context, request ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", provider.baseURL, request.Model)
	result := &ai.EmbedResponse{}

	for i, input := range request.Inputs {
		wireRequest := embedContentRequest{
			Content: embedContentPayload{Parts: []part{{Text: input}}},
		}

		_, resp, err := utils.DoPostSync[embedContentResponse](
			ctx, provider.client, url, "", wireRequest, provider.authHeader())
		if err != nil {
			return nil, fmt.Errorf("embedding input %d: %w", i, err)
		}
		if resp == nil || resp.Embedding == nil {
			return nil, &ai.InvalidResponseError{Reason: fmt.Sprintf("no embedding for input %d", i)}
		}

		result.Embeddings = append(result.Embeddings, resp.Embedding.Values)
	}

	return result, nil
}

// HealthCheck probes the models listing endpoint. All failures map to false.
func (provider *GeminiProvider) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return utils.DoGet(ctx, provider.client, provider.baseURL+"/models", provider.authHeader())
}

// IsStopMessage reports whether the response is a terminal completion.
func (provider *GeminiProvider) IsStopMessage(message *ai.ChatResponse) bool {
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
