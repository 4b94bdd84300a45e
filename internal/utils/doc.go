// Package utils provides small internal helpers shared across the module:
// JSON-over-HTTP POST helpers for synchronous and streaming provider calls,
// an SSE scanner with cross-chunk line buffering, and string/pointer
// conveniences.
package utils
