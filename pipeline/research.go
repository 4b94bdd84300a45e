package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openscribe/agentkit/agent"
	"github.com/openscribe/agentkit/config"
	"github.com/openscribe/agentkit/providers/ai"
	"github.com/openscribe/agentkit/providers/tool"
	"github.com/openscribe/agentkit/providers/tool/webfetch"
	"github.com/openscribe/agentkit/providers/tool/websearch"
)

const (
	defaultMaxSubQuestions      = 7
	defaultResearchIterations   = 15
	defaultSynthesizeIterations = 3
	defaultPlanIterations       = 2
)

const planSystemPrompt = `You are a research planner. Decompose the user's topic into between 3 and 7 focused sub-questions that together cover the topic.

Respond with strict JSON only, no prose, in exactly this shape:
{"sub_questions": ["...", "..."], "research_approach": "one sentence describing the overall approach"}`

const researchSystemPrompt = `You are a research assistant investigating one sub-question of a larger topic. Use the available tools to gather concrete, citable material: search the web, fetch promising pages, and read them.

When you have enough material, answer the sub-question in a few paragraphs. Include the source URL for every fact you state. If you find nothing relevant, say so explicitly.`

const synthesizeSystemPrompt = `You are a research writer. You are given a topic, a research plan, and per-question findings gathered by assistants. Write a structured final report on the topic: an opening summary, one section per sub-question, and a closing "Sources" list of every cited URL.

Base the report only on the findings provided. Where a finding is empty or inconclusive, note the gap instead of inventing content.`

// ResearchResult is the outcome of one deep-research run.
type ResearchResult struct {
	RunID     string
	Plan      Plan
	Report    string
	Findings  []string
	Sources   int
	Usage     ai.Usage
	Cancelled bool
}

// DeepResearch orchestrates the plan → research → synthesize pipeline: a
// tool-free planning run, one tool-equipped research run per sub-question,
// and a final synthesis run over the collected findings.
type DeepResearch struct {
	provider           ai.Provider
	model              string
	catalog            *tool.Catalog
	sink               ProgressSink
	maxSubQuestions    int
	researchIterations int
}

// NewDeepResearch returns a deep-research pipeline over the given provider.
// The research tool set defaults to the web tools permitted by cfg; add
// further tools with [DeepResearch.SetCatalog].
func NewDeepResearch(provider ai.Provider, cfg config.AgentConfig) *DeepResearch {
	catalog := tool.NewCatalog()
	if cfg.WebSearchEnabled {
		catalog.Register(websearch.New())
	}
	if cfg.WebFetchEnabled {
		catalog.Register(webfetch.New())
	}

	return &DeepResearch{
		provider:           provider,
		catalog:            catalog,
		maxSubQuestions:    defaultMaxSubQuestions,
		researchIterations: defaultResearchIterations,
	}
}

// SetModel selects the model used by every phase.
func (d *DeepResearch) SetModel(model string) *DeepResearch {
	d.model = model
	return d
}

// SetCatalog replaces the research tool set entirely.
func (d *DeepResearch) SetCatalog(catalog *tool.Catalog) *DeepResearch {
	d.catalog = catalog
	return d
}

// SetProgressSink installs a fire-and-forget observer for stage transitions.
func (d *DeepResearch) SetProgressSink(sink ProgressSink) *DeepResearch {
	d.sink = sink
	return d
}

// SetMaxSubQuestions caps how many sub-questions the plan may produce.
func (d *DeepResearch) SetMaxSubQuestions(max int) *DeepResearch {
	if max > 0 {
		d.maxSubQuestions = max
	}
	return d
}

// SetResearchIterations caps the tool-resolution rounds per sub-question.
func (d *DeepResearch) SetResearchIterations(max int) *DeepResearch {
	if max > 0 {
		d.researchIterations = max
	}
	return d
}

// Run researches topic end to end. extraContext is optional caller-supplied
// background woven into the research and synthesis prompts. The cancel
// token is honored at every phase and iteration boundary; a cancelled run
// returns partial results with Cancelled set, not an error.
func (d *DeepResearch) Run(ctx context.Context, topic, extraContext string, cancel *agent.CancelToken) (*ResearchResult, error) {
	result := &ResearchResult{RunID: uuid.NewString()}

	emitProgress(d.sink, ProgressEvent{RunID: result.RunID, Stage: StagePlanning})

	planner := agent.NewRunner(d.provider).
		SetModel(d.model).
		SetSystemPrompt(planSystemPrompt).
		SetMaxIterations(defaultPlanIterations)
	planRun, err := planner.Run(ctx, planUserPrompt(topic, extraContext), cancel)
	if err != nil {
		return nil, fmt.Errorf("planning phase: %w", err)
	}
	result.Usage = planRun.Usage
	if planRun.Cancelled {
		result.Cancelled = true
		return result, nil
	}

	result.Plan = ParsePlan(planRun.FinalResponse, topic, d.maxSubQuestions)
	questions := result.Plan.SubQuestions
	emitProgress(d.sink, ProgressEvent{
		RunID:     result.RunID,
		Stage:     StagePlanningComplete,
		Questions: questions,
	})

	// Research and synthesis run as one pipeline built around the parsed
	// plan. The bridge closures record each phase's findings and emit the
	// stage transitions as they happen.
	findings := make([]string, len(questions))
	pipe := New(d.provider, d.model, d.buildPhases(result, topic, extraContext, findings)...)

	emitProgress(d.sink, ProgressEvent{
		RunID:   result.RunID,
		Stage:   StageResearching,
		Current: questions[0],
		Index:   1,
		Total:   len(questions),
	})
	pipeResult, err := pipe.Run(ctx, researchUserPrompt(topic, questions[0], extraContext), cancel)
	if err != nil {
		return nil, err
	}

	for _, phase := range pipeResult.Phases {
		run := phase.Result
		result.Usage.PromptTokens += run.Usage.PromptTokens
		result.Usage.CompletionTokens += run.Usage.CompletionTokens
		result.Usage.TotalTokens += run.Usage.TotalTokens
		if phase.Name != phaseSynthesize {
			result.Sources += len(run.ToolCalls)
		}
	}
	result.Findings = findings
	result.Report = pipeResult.Output

	if pipeResult.Cancelled {
		result.Cancelled = true
		return result, nil
	}

	emitProgress(d.sink, ProgressEvent{
		RunID:   result.RunID,
		Stage:   StageCompleted,
		Sources: result.Sources,
	})
	return result, nil
}

const phaseSynthesize = "synthesize"

// buildPhases lays out one research phase per sub-question followed by the
// synthesis phase. Each research bridge stores its finding, announces the
// next question, and on the last question reports gaps before handing the
// collected findings to synthesis.
func (d *DeepResearch) buildPhases(result *ResearchResult, topic, extraContext string, findings []string) []Phase {
	questions := result.Plan.SubQuestions
	tools := d.catalog.Descriptions()

	phases := make([]Phase, 0, len(questions)+1)
	for i := range questions {
		index := i
		phases = append(phases, Phase{
			Name:          fmt.Sprintf("research-%d", index+1),
			SystemPrompt:  researchSystemPrompt,
			Tools:         tools,
			Executor:      d.catalog,
			MaxIterations: d.researchIterations,
			Bridge: func(output string) string {
				findings[index] = output

				if next := index + 1; next < len(questions) {
					emitProgress(d.sink, ProgressEvent{
						RunID:   result.RunID,
						Stage:   StageResearching,
						Current: questions[next],
						Index:   next + 1,
						Total:   len(questions),
					})
					return researchUserPrompt(topic, questions[next], extraContext)
				}

				emitProgress(d.sink, ProgressEvent{
					RunID:     result.RunID,
					Stage:     StageReflecting,
					GapsFound: countGaps(findings),
				})
				emitProgress(d.sink, ProgressEvent{RunID: result.RunID, Stage: StageSynthesizing})
				return synthesizeUserPrompt(topic, result.Plan, findings, extraContext)
			},
		})
	}

	phases = append(phases, Phase{
		Name:          phaseSynthesize,
		SystemPrompt:  synthesizeSystemPrompt,
		MaxIterations: defaultSynthesizeIterations,
	})
	return phases
}

// countGaps counts sub-questions whose research produced no usable finding.
func countGaps(findings []string) int {
	gaps := 0
	for _, finding := range findings {
		if strings.TrimSpace(finding) == "" {
			gaps++
		}
	}
	return gaps
}

func planUserPrompt(topic, extraContext string) string {
	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(topic)
	if extraContext != "" {
		b.WriteString("\n\nBackground context:\n")
		b.WriteString(extraContext)
	}
	return b.String()
}

func researchUserPrompt(topic, question, extraContext string) string {
	var b strings.Builder
	b.WriteString("Overall topic: ")
	b.WriteString(topic)
	b.WriteString("\n\nSub-question to research now: ")
	b.WriteString(question)
	if extraContext != "" {
		b.WriteString("\n\nBackground context:\n")
		b.WriteString(extraContext)
	}
	return b.String()
}

func synthesizeUserPrompt(topic string, plan Plan, findings []string, extraContext string) string {
	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(topic)
	if plan.ResearchApproach != "" {
		b.WriteString("\nResearch approach: ")
		b.WriteString(plan.ResearchApproach)
	}
	if extraContext != "" {
		b.WriteString("\n\nBackground context:\n")
		b.WriteString(extraContext)
	}
	b.WriteString("\n\nFindings:")
	for i, question := range plan.SubQuestions {
		b.WriteString(fmt.Sprintf("\n\n## %d. %s\n", i+1, question))
		if i < len(findings) && strings.TrimSpace(findings[i]) != "" {
			b.WriteString(findings[i])
		} else {
			b.WriteString("(no usable findings)")
		}
	}
	return b.String()
}
