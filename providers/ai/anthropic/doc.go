// Package anthropic implements the [ai.Provider] family for Anthropic's
// Messages API.
//
// Anthropic differs from the OpenAI-style wire format in three ways this
// adapter reconciles: the system prompt is hoisted out of the message list
// into a dedicated request field; assistant tool invocations are typed
// tool_use content blocks carrying a complete JSON input object (while the
// streamed form delivers the same arguments as input_json_delta fragments
// tied to the block announced by content_block_start); and extended thinking
// is an opt-in request flag plus a beta HTTP header producing its own
// thinking block and thinking_delta stream events.
//
// Anthropic has no embeddings endpoint, so the provider does not implement
// [ai.Embedder].
package anthropic
