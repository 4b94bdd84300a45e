// Package gemini implements the [ai.Provider] family for Google's Gemini
// generateContent API.
//
// Gemini has no system role (the system prompt becomes the dedicated
// systemInstruction field), no tool role (tool results are submitted as a
// user-role functionResponse part), and no separate thinking block type:
// thinking tokens are interleaved with normal content as parts flagged
// thought=true and are routed to reasoning versus content events
// accordingly. The embeddings endpoint accepts one input at a time, so batch
// embedding issues one call per input and concatenates results in input
// order.
package gemini
