package middleware

import (
	"context"
	"net/http"

	"github.com/openscribe/agentkit/providers/ai"
)

// SendFunc is the base unit threaded through the send middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// StreamFunc is the streaming counterpart of SendFunc.
type StreamFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)

// Middleware pairs a send wrapper with its optional streaming counterpart.
// A nil Send or Stream field means calls of that kind bypass this middleware.
type Middleware struct {
	Send   func(next SendFunc) SendFunc
	Stream func(next StreamFunc) StreamFunc
}

// Wrap decorates provider with the given middlewares. The first middleware is
// the outermost wrapper, i.e. the first to see an incoming request. The
// returned provider delegates everything except SendMessage and StreamMessage
// to the wrapped provider unchanged.
func Wrap(provider ai.Provider, middlewares ...Middleware) ai.StreamProvider {
	return &wrappedProvider{
		inner:       provider,
		middlewares: middlewares,
		send:        buildSendChain(provider, middlewares),
		stream:      buildStreamChain(provider, middlewares),
	}
}

type wrappedProvider struct {
	inner       ai.Provider
	middlewares []Middleware
	send        SendFunc
	stream      StreamFunc
}

func (p *wrappedProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return p.send(ctx, request)
}

func (p *wrappedProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	return p.stream(ctx, request)
}

func (p *wrappedProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return p.inner.IsStopMessage(message)
}

func (p *wrappedProvider) HealthCheck(ctx context.Context) bool {
	return p.inner.HealthCheck(ctx)
}

// The With* setters reconfigure the wrapped provider and rebuild the chains
// around the result, preserving the middleware stack.

func (p *wrappedProvider) WithAPIKey(apiKey string) ai.Provider {
	return Wrap(p.inner.WithAPIKey(apiKey), p.middlewares...)
}

func (p *wrappedProvider) WithBaseURL(baseURL string) ai.Provider {
	return Wrap(p.inner.WithBaseURL(baseURL), p.middlewares...)
}

func (p *wrappedProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	return Wrap(p.inner.WithHttpClient(httpClient), p.middlewares...)
}

// buildSendChain applies middlewares in reverse so the first entry is the
// outermost wrapper. The base function calls the provider directly.
func buildSendChain(provider ai.Provider, middlewares []Middleware) SendFunc {
	chain := SendFunc(provider.SendMessage)

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Send != nil {
			chain = middlewares[i].Send(chain)
		}
	}
	return chain
}

// buildStreamChain mirrors buildSendChain for streaming calls. The base
// function uses native streaming when the provider offers it and otherwise
// falls back to a complete send replayed as one burst of events.
func buildStreamChain(provider ai.Provider, middlewares []Middleware) StreamFunc {
	chain := StreamFunc(func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
		if streamer, ok := provider.(ai.StreamProvider); ok {
			return streamer.StreamMessage(ctx, request)
		}

		response, err := provider.SendMessage(ctx, request)
		if err != nil {
			return nil, err
		}
		return ai.NewSingleEventStream(response), nil
	})

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}

// tapStream forwards every event from inner to a fresh stream, invoking
// onEvent per event and onEnd exactly once when the inner stream ends or the
// consumer goes away. Middlewares use it to observe stream lifetimes without
// owning the consumer loop.
func tapStream(ctx context.Context, inner *ai.ChatStream, onEvent func(ai.StreamEvent), onEnd func()) *ai.ChatStream {
	out := ai.NewChatStream()

	go func() {
		defer onEnd()
		defer out.Close()

		for event := range inner.Events() {
			if onEvent != nil {
				onEvent(event)
			}
			if !out.Emit(ctx, event) {
				return
			}
		}
	}()

	return out
}
