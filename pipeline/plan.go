package pipeline

import (
	"strings"

	"github.com/openscribe/agentkit/core/parse"
)

// Plan is the structured output requested from the planning phase.
type Plan struct {
	SubQuestions     []string `json:"sub_questions"`
	ResearchApproach string   `json:"research_approach"`
}

// ParsePlan turns the planning phase's raw response into a usable Plan. It
// never fails: strict JSON parsing is tried first (with automatic repair of
// near-JSON), then the first-"{"-to-last-"}" substring of the text, and as a
// last resort the topic itself becomes the single sub-question. Blank
// entries are dropped and the list is truncated to maxQuestions.
func ParsePlan(raw, topic string, maxQuestions int) Plan {
	plan, err := parse.StringAs[Plan](raw)
	if err != nil || len(plan.SubQuestions) == 0 {
		if extracted, ok := parse.ExtractObject(raw); ok {
			if recovered, extractErr := parse.StringAs[Plan](extracted); extractErr == nil {
				plan = recovered
			}
		}
	}

	questions := plan.SubQuestions[:0:0]
	for _, question := range plan.SubQuestions {
		if trimmed := strings.TrimSpace(question); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	if len(questions) == 0 {
		questions = []string{topic}
	}
	if maxQuestions > 0 && len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}

	plan.SubQuestions = questions
	return plan
}
