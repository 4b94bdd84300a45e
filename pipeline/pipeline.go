package pipeline

import (
	"context"
	"fmt"

	"github.com/openscribe/agentkit/agent"
	"github.com/openscribe/agentkit/providers/ai"
)

// Phase is one agent-loop run within a pipeline: its own system prompt, its
// own (possibly empty) tool set, and its own iteration cap.
type Phase struct {
	Name          string
	SystemPrompt  string
	Tools         []ai.ToolDescription
	Executor      agent.ToolExecutor
	MaxIterations int

	// Bridge transforms this phase's final response into the next phase's
	// input. Nil passes the response through unchanged. Bridges are where
	// cross-phase state lives: closures may record findings or emit
	// progress events.
	Bridge func(output string) string
}

// PhaseResult pairs a phase name with the aggregate result of its run.
type PhaseResult struct {
	Name   string
	Result *agent.RunResult
}

// Result is the outcome of a full pipeline run. Output is the final phase's
// response text; a cancelled run carries whatever partial output existed at
// the cancellation boundary.
type Result struct {
	Output    string
	Phases    []PhaseResult
	Cancelled bool
}

// Pipeline executes a fixed sequence of phases strictly sequentially, each
// phase a fresh run of the same agent-loop primitive.
type Pipeline struct {
	provider ai.Provider
	model    string
	phases   []Phase
}

// New builds a pipeline over the given provider and model.
func New(provider ai.Provider, model string, phases ...Phase) *Pipeline {
	return &Pipeline{provider: provider, model: model, phases: phases}
}

// Run feeds input to the first phase and threads each phase's bridged output
// into the next. The cancel token is checked before starting each phase (in
// addition to the per-iteration checks inside each run); a cancelled
// pipeline returns partial results, not an error. A transport failure in
// any phase ends the pipeline with an error naming the phase.
func (p *Pipeline) Run(ctx context.Context, input string, cancel *agent.CancelToken) (*Result, error) {
	result := &Result{}
	current := input

	for _, phase := range p.phases {
		if cancel.Cancelled() {
			result.Cancelled = true
			return result, nil
		}

		runner := agent.NewRunner(p.provider).
			SetModel(p.model).
			SetSystemPrompt(phase.SystemPrompt).
			SetTools(phase.Tools).
			SetExecutor(phase.Executor).
			SetMaxIterations(phase.MaxIterations)

		runResult, err := runner.Run(ctx, current, cancel)
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", phase.Name, err)
		}

		result.Phases = append(result.Phases, PhaseResult{Name: phase.Name, Result: runResult})
		result.Output = runResult.FinalResponse

		if runResult.Cancelled {
			result.Cancelled = true
			return result, nil
		}

		current = runResult.FinalResponse
		if phase.Bridge != nil {
			current = phase.Bridge(current)
		}
	}

	return result, nil
}
