// Package openai implements the [ai.Provider] family for OpenAI's chat
// completions API and for OpenAI-compatible servers (LM-Studio, vLLM, and
// other self-hosted endpoints reachable via a base-URL override).
//
// The adapter is the wire-format boundary: it builds vendor request JSON
// from the generic [ai.ChatRequest], decodes vendor responses back into
// [ai.ChatResponse], and normalizes the SSE streaming framing (data: lines,
// [DONE] sentinel, index-keyed incremental tool-call fragments) into the
// common [ai.StreamEvent] model.
package openai
