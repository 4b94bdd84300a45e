package middleware

import (
	"context"
	"time"

	"github.com/openscribe/agentkit/providers/ai"
)

// Timeout returns a middleware that enforces a per-request deadline on both
// send and streaming calls. A caller-supplied context with a shorter deadline
// wins, per normal context semantics.
//
// For sends the deadline covers the complete call. For streams the deadline
// covers the complete lifetime of the stream, not just the time to the first
// event: the context is released only once the stream ends or the consumer
// abandons it.
func Timeout(timeout time.Duration) Middleware {
	return Middleware{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				return next(ctx, request)
			}
		},
		Stream: func(next StreamFunc) StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)

				stream, err := next(ctx, request)
				if err != nil {
					cancel()
					return nil, err
				}

				return tapStream(ctx, stream, nil, cancel), nil
			}
		},
	}
}
