package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// StringAs parses a string into the target type T. Plain JSON is tried
// first; on failure the content is run through jsonrepair (fixing single
// quotes, unquoted keys, trailing commas, truncation) and retried.
//
// Example:
//
//	plan, err := parse.StringAs[ResearchPlan](`{sub_questions: ['a', 'b']}`)
func StringAs[T any](content string) (T, error) {
	var result T

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	if err = json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
	return result, nil
}

// ExtractObject locates the first '{' and last '}' in text and returns the
// substring between them. Models frequently wrap a requested JSON object in
// prose or markdown fences; this recovers the object without caring about
// what surrounds it. Returns false when no braced region exists.
func ExtractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ToolArguments decodes a tool call's raw arguments string into a generic
// JSON object. Malformed or empty input yields an empty object rather than
// an error: tool argument payloads are untrusted model output, and the run
// must tolerate imperfection instead of aborting.
func ToolArguments(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err == nil && args != nil {
		return args
	}

	if repaired, err := jsonrepair.JSONRepair(trimmed); err == nil {
		if err := json.Unmarshal([]byte(repaired), &args); err == nil && args != nil {
			return args
		}
	}

	return map[string]any{}
}
