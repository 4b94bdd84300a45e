package pipeline

import "log/slog"

// ProgressStage identifies where a pipeline run currently is. Stages are
// reported in order; Researching repeats once per sub-question.
type ProgressStage string

const (
	StagePlanning         ProgressStage = "planning"
	StagePlanningComplete ProgressStage = "planning_complete"
	StageResearching      ProgressStage = "researching"
	StageReflecting       ProgressStage = "reflecting"
	StageSynthesizing     ProgressStage = "synthesizing"
	StageCompleted        ProgressStage = "completed"
)

// ProgressEvent is a one-way notification emitted at pipeline stage
// transitions. RunID correlates all events of one run. Only the fields
// relevant to the stage are populated.
type ProgressEvent struct {
	RunID string
	Stage ProgressStage

	Questions []string // PlanningComplete: the parsed sub-questions
	Current   string   // Researching: the sub-question being worked on
	Index     int      // Researching: 1-based question index
	Total     int      // Researching: total question count
	GapsFound int      // Reflecting: questions whose research came back empty
	Sources   int      // Completed: tool invocations made while researching
}

// ProgressSink receives progress events. Delivery is fire-and-forget: a nil
// sink is ignored and a panicking sink is swallowed, so progress reporting
// can never fail a pipeline.
type ProgressSink func(ProgressEvent)

func emitProgress(sink ProgressSink, event ProgressEvent) {
	if sink == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Debug("progress sink panicked", "stage", event.Stage, "panic", recovered)
		}
	}()
	sink(event)
}
