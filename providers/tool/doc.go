// Package tool defines typed, callable tools that a language model can
// invoke mid-conversation. A [Tool] binds a name and description to a
// strongly-typed Go function and derives the JSON schema advertised to the
// model from its input type. The [Catalog] is a thread-safe registry of
// tools that also serves as the agent loop's tool executor.
package tool
