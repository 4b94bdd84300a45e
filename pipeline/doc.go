// Package pipeline composes multiple agent-loop runs into multi-phase
// orchestrations. A [Pipeline] is an ordered list of [Phase] values, each a
// single agent run with its own system prompt, tool set, and iteration cap;
// a phase's textual output feeds the next phase's input through an optional
// bridging function.
//
// [DeepResearch] is the canonical pipeline: a planning run decomposes a
// topic into sub-questions, a bridge parses the plan leniently, per-question
// research runs gather material with the web tool set, and a final run
// synthesizes a cited write-up. Progress is reported through a fire-and-
// forget [ProgressSink] correlated by a per-run ID.
package pipeline
