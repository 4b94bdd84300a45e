// Package middleware decorates an [ai.Provider] with cross-cutting request
// behavior: structured logging, retry with exponential backoff, and
// per-request deadlines.
//
// Middlewares compose around the provider's SendMessage and StreamMessage
// calls without the provider or the agent loop knowing about them:
//
//	provider := middleware.Wrap(openai.New(),
//		middleware.Logging(slog.Default(), middleware.LogStandard),
//		middleware.Retry(middleware.RetryConfig{}),
//		middleware.Timeout(60*time.Second),
//	)
//
// The first middleware in the list is the outermost wrapper. The wrapped
// provider implements [ai.StreamProvider]; providers without native streaming
// are adapted by replaying their complete response as a single burst of
// events.
package middleware
