package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogMinimal logs only the model name, duration, and token counts.
	LogMinimal LogLevel = iota

	// LogStandard adds the message count and finish reason. Recommended
	// default.
	LogStandard

	// LogVerbose adds the first message and the response content, each
	// truncated to 500 characters.
	//
	// WARNING: verbose output contains raw prompt and response text, which
	// may include sensitive user data. Local debugging only.
	LogVerbose
)

// logTruncateLen caps content length in verbose log output.
const logTruncateLen = 500

// Logging returns a middleware that emits structured slog entries before and
// after every provider call. For streams the completion entry is emitted once
// the stream is fully consumed. logger must not be nil; pass slog.Default()
// when no custom logger is configured.
func Logging(logger *slog.Logger, level LogLevel) Middleware {
	return Middleware{
		Send:   buildSendLogging(logger, level),
		Stream: buildStreamLogging(logger, level),
	}
}

func buildSendLogging(logger *slog.Logger, level LogLevel) func(SendFunc) SendFunc {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", requestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm send failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", responseAttrs(response, elapsed, level)...)
			return response, nil
		}
	}
}

func buildStreamLogging(logger *slog.Logger, level LogLevel) func(StreamFunc) StreamFunc {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
			logger.InfoContext(ctx, "llm stream", requestAttrs(request, level)...)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed",
					slog.String("model", request.Model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			// Tap the stream so the completion entry carries the finish
			// reason and usage observed on the way through.
			var finishReason string
			var usage *ai.Usage
			var failure string

			onEvent := func(event ai.StreamEvent) {
				switch event.Type {
				case ai.StreamEventUsage:
					if event.Usage != nil {
						usage = event.Usage
					}
				case ai.StreamEventDone:
					finishReason = event.FinishReason
				case ai.StreamEventError:
					failure = event.Error
				}
			}
			onEnd := func() {
				elapsed := time.Since(start)
				if failure != "" {
					logger.ErrorContext(ctx, "llm stream failed",
						slog.String("model", request.Model),
						slog.Duration("duration", elapsed),
						slog.String("error", failure),
					)
					return
				}

				attrs := []any{
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
				}
				if level >= LogStandard && finishReason != "" {
					attrs = append(attrs, slog.String("finish_reason", finishReason))
				}
				if usage != nil {
					attrs = append(attrs,
						slog.Int("prompt_tokens", usage.PromptTokens),
						slog.Int("completion_tokens", usage.CompletionTokens),
						slog.Int("total_tokens", usage.TotalTokens),
					)
				}
				logger.InfoContext(ctx, "llm stream completed", attrs...)
			}

			return tapStream(ctx, stream, onEvent, onEnd), nil
		}
	}
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	if level >= LogStandard {
		attrs = append(attrs, slog.Int("message_count", len(request.Messages)))
	}
	if level >= LogVerbose && len(request.Messages) > 0 {
		first := request.Messages[0]
		attrs = append(attrs,
			slog.String("first_message_role", string(first.Role)),
			slog.String("first_message_content", utils.TruncateString(first.Content, logTruncateLen)),
		)
	}
	return attrs
}

func responseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}
	if level >= LogStandard && response.FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
	}
	if level >= LogVerbose && response.Content != "" {
		attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, logTruncateLen)))
	}
	return attrs
}
