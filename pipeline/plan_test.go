package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanStrictJSON(t *testing.T) {
	plan := ParsePlan(`{"sub_questions": ["a", "b"], "research_approach": "broad survey"}`, "topic", 7)

	assert.Equal(t, []string{"a", "b"}, plan.SubQuestions)
	assert.Equal(t, "broad survey", plan.ResearchApproach)
}

func TestParsePlanRepairsNearJSON(t *testing.T) {
	plan := ParsePlan(`{sub_questions: ['a', 'b'], research_approach: 'x',}`, "topic", 7)

	assert.Equal(t, []string{"a", "b"}, plan.SubQuestions)
}

func TestParsePlanExtractsFromProse(t *testing.T) {
	raw := "Sure! Here is the plan you asked for:\n```json\n" +
		`{"sub_questions": ["what", "why"], "research_approach": "x"}` +
		"\n```\nLet me know if you want changes."

	plan := ParsePlan(raw, "topic", 7)
	assert.Equal(t, []string{"what", "why"}, plan.SubQuestions)
}

func TestParsePlanFallsBackToTopic(t *testing.T) {
	for _, raw := range []string{
		"I cannot produce JSON right now.",
		`{"sub_questions": [], "research_approach": "x"}`,
		`{"sub_questions": ["   ", ""]}`,
	} {
		plan := ParsePlan(raw, "history of Go", 7)
		assert.Equal(t, []string{"history of Go"}, plan.SubQuestions, "raw: %q", raw)
	}
}

func TestParsePlanDropsBlankAndTruncates(t *testing.T) {
	raw := `{"sub_questions": ["a", "  ", "b", "c", "d"]}`

	plan := ParsePlan(raw, "topic", 3)
	assert.Equal(t, []string{"a", "b", "c"}, plan.SubQuestions)
}
