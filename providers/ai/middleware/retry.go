package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/openscribe/agentkit/providers/ai"
)

// ErrRetryExhausted is returned when every retry attempt has been consumed
// without a successful response. It wraps the last provider error, so
// errors.Is/As reach the root cause.
var ErrRetryExhausted = errors.New("all retry attempts exhausted")

// RetryConfig holds the tuning parameters for [Retry]. Zero values are
// replaced with the documented defaults.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first failure.
	// Default: 3 (at most 4 provider calls).
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier:
	// backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise in [0, JitterFraction*backoff] to
	// spread out synchronized retries. Default: 0.1.
	JitterFraction float64

	// Retryable reports whether an error should trigger a retry. The default
	// retries [ai.APIError] statuses 429, 500, 502, 503, and 529.
	Retryable func(error) bool
}

// Retryable statuses: rate limits and transient upstream failures. 529 is
// Anthropic's "overloaded".
func defaultRetryable(err error) bool {
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case 429, 500, 502, 503, 529:
		return true
	}
	return false
}

func (c *RetryConfig) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2.0
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = 0.1
	}
	if c.Retryable == nil {
		c.Retryable = defaultRetryable
	}
}

// computeBackoff returns the wait for the given 0-indexed attempt.
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64()
	return time.Duration(base + jitter)
}

// Retry returns a middleware that retries failed send requests with
// exponential backoff. Streaming requests bypass it: a mid-stream failure
// cannot be transparently retried once events have been delivered.
func Retry(config RetryConfig) Middleware {
	config.applyDefaults()

	return Middleware{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				var lastErr error

				for attempt := 0; attempt <= config.MaxRetries; attempt++ {
					if attempt > 0 {
						select {
						case <-ctx.Done():
							return nil, ctx.Err()
						case <-time.After(computeBackoff(config, attempt-1)):
						}
					}

					response, err := next(ctx, request)
					if err == nil {
						return response, nil
					}
					lastErr = err

					if !config.Retryable(err) {
						return nil, err
					}
				}

				return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
			}
		},
	}
}
