package ai

import (
	"errors"
	"fmt"
)

// ErrCancelled signals that a run was cancelled via its cancellation token.
// A cancelled run still returns whatever partial output existed at the
// cancellation boundary; this sentinel only distinguishes it from a normal
// completion.
var ErrCancelled = errors.New("run cancelled")

// APIError represents a non-2xx HTTP response from a provider. The response
// body is preserved verbatim for diagnostics.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: status %d: %s", e.Status, e.Body)
}

// UnsupportedError signals an operation the vendor does not offer, such as
// embeddings on a chat-only API.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return "unsupported operation: " + e.Reason
}

// InvalidResponseError signals a response that decoded as JSON but is missing
// required fields (e.g. no candidates, no choices).
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid provider response: " + e.Reason
}
