// Package agent implements the bounded, cancellable tool-calling loop that
// drives a conversation with an AI provider until the model produces a final
// answer.
//
// A [Runner] repeatedly sends the running message list to a provider,
// resolves any tool calls in the response through an injected [ToolExecutor]
// (sequentially, in the order the model requested them), appends the results
// as tool messages, and loops. The run ends when the model answers without
// tool calls, when the iteration cap is reached, or when the caller's
// [CancelToken] is set.
//
// Tool errors are not run failures: a tool returning an error has its error
// text fed back to the model as the tool's result, so the model can recover
// or explain. Only transport-level failures end a run with an error.
package agent
