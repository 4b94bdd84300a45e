package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscribe/agentkit/agent"
	"github.com/openscribe/agentkit/config"
	"github.com/openscribe/agentkit/providers/ai"
	"github.com/openscribe/agentkit/providers/tool"
)

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Text string `json:"text"`
}

func echoCatalog() *tool.Catalog {
	echo := tool.New("echo", "Echoes its input.", func(_ context.Context, in echoInput) (echoOutput, error) {
		return echoOutput{Text: in.Text}, nil
	})
	return tool.NewCatalog(echo)
}

func toolCall(id, name, arguments string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Content:      "Checking.",
		FinishReason: "tool_calls",
		ToolCalls: []ai.ToolCall{{
			ID:   id,
			Type: "function",
			Function: ai.ToolCallFunction{Name: name, Arguments: arguments},
		}},
		Usage: &ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func TestDeepResearchEndToEnd(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		stop(`{"sub_questions": ["q one", "q two"], "research_approach": "two angles"}`),
		toolCall("call_1", "echo", `{"text": "hello"}`),
		stop("finding one"),
		stop("finding two"),
		stop("final report"),
	}}

	var events []ProgressEvent
	research := NewDeepResearch(provider, config.Default()).
		SetModel("test-model").
		SetCatalog(echoCatalog()).
		SetProgressSink(func(event ProgressEvent) {
			events = append(events, event)
		})

	result, err := research.Run(context.Background(), "some topic", "background notes", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"q one", "q two"}, result.Plan.SubQuestions)
	assert.Equal(t, "two angles", result.Plan.ResearchApproach)
	assert.Equal(t, "final report", result.Report)
	assert.Equal(t, []string{"finding one", "finding two"}, result.Findings)
	assert.Equal(t, 1, result.Sources, "tool calls during research count as sources")
	assert.False(t, result.Cancelled)
	assert.Equal(t, 75, result.Usage.TotalTokens, "usage summed across all five provider calls")

	stages := make([]ProgressStage, 0, len(events))
	for _, event := range events {
		stages = append(stages, event.Stage)
		assert.Equal(t, result.RunID, event.RunID)
	}
	assert.Equal(t, []ProgressStage{
		StagePlanning,
		StagePlanningComplete,
		StageResearching,
		StageResearching,
		StageReflecting,
		StageSynthesizing,
		StageCompleted,
	}, stages)

	// Spot-check event payloads.
	assert.Equal(t, []string{"q one", "q two"}, events[1].Questions)
	assert.Equal(t, "q one", events[2].Current)
	assert.Equal(t, 1, events[2].Index)
	assert.Equal(t, 2, events[2].Total)
	assert.Equal(t, "q two", events[3].Current)
	assert.Equal(t, 2, events[3].Index)
	assert.Equal(t, 0, events[4].GapsFound)
	assert.Equal(t, 1, events[6].Sources)

	// The synthesis turn receives topic, plan, and findings.
	synthesisInput := provider.requests[len(provider.requests)-1].Messages[0].Content
	assert.Contains(t, synthesisInput, "some topic")
	assert.Contains(t, synthesisInput, "finding one")
	assert.Contains(t, synthesisInput, "finding two")
	assert.Contains(t, synthesisInput, "background notes")
}

func TestDeepResearchUnparseablePlanFallsBackToTopic(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		stop("I am unable to produce a plan."),
		stop("single finding"),
		stop("short report"),
	}}

	result, err := NewDeepResearch(provider, config.Default()).
		SetCatalog(echoCatalog()).
		Run(context.Background(), "fallback topic", "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"fallback topic"}, result.Plan.SubQuestions)
	assert.Equal(t, "short report", result.Report)
}

func TestDeepResearchEmptyFindingIsAGap(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		stop(`{"sub_questions": ["q one", "q two"]}`),
		stop("finding one"),
		stop("   "),
		stop("report"),
	}}

	var gaps int
	research := NewDeepResearch(provider, config.Default()).
		SetCatalog(echoCatalog()).
		SetProgressSink(func(event ProgressEvent) {
			if event.Stage == StageReflecting {
				gaps = event.GapsFound
			}
		})

	_, err := research.Run(context.Background(), "topic", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gaps)

	// Missing findings are flagged in the synthesis input rather than dropped.
	synthesisInput := provider.requests[len(provider.requests)-1].Messages[0].Content
	assert.Contains(t, synthesisInput, "(no usable findings)")
	assert.Contains(t, strings.ToLower(synthesisInput), "q two")
}

func TestDeepResearchCancelDuringPlanning(t *testing.T) {
	token := agent.NewCancelToken()
	token.Cancel()
	provider := &scriptedProvider{}

	result, err := NewDeepResearch(provider, config.Default()).
		Run(context.Background(), "topic", "", token)
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Empty(t, result.Report)
	assert.Empty(t, provider.requests)
}

func TestDeepResearchPanickingSinkDoesNotFailRun(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		stop(`{"sub_questions": ["only"]}`),
		stop("finding"),
		stop("report"),
	}}

	result, err := NewDeepResearch(provider, config.Default()).
		SetCatalog(echoCatalog()).
		SetProgressSink(func(ProgressEvent) { panic("observer bug") }).
		Run(context.Background(), "topic", "", nil)

	require.NoError(t, err)
	assert.Equal(t, "report", result.Report)
}

func TestDeepResearchMaxSubQuestionsCap(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		stop(`{"sub_questions": ["a", "b", "c", "d"]}`),
		stop("finding a"),
		stop("finding b"),
		stop("report"),
	}}

	result, err := NewDeepResearch(provider, config.Default()).
		SetCatalog(echoCatalog()).
		SetMaxSubQuestions(2).
		Run(context.Background(), "topic", "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, result.Plan.SubQuestions)
	assert.Len(t, result.Findings, 2)
}
