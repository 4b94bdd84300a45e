package agent

import "sync/atomic"

// CancelToken is a shared cancellation flag with a one-way false→true
// transition. The caller that starts a run owns the token and may share it
// with a pipeline wrapper; any number of goroutines may read it, but the
// transition itself is idempotent, so concurrent Cancel calls are safe.
//
// The loop checks the token only at iteration boundaries, after tool results
// have been appended and before the next provider call. Cancellation
// therefore interrupts between turns, never mid-network-call and never
// mid-tool-execution, which keeps partial state consistent.
type CancelToken struct {
	cancelled atomic.Bool
}

// NewCancelToken returns a token in the not-cancelled state.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests cancellation. Calling it more than once has no further
// effect.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called. A nil token is never
// cancelled.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}
