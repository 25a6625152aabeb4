package coach

import "github.com/abhisek/certprep/internal/llm"

// MaxTips caps the number of study tips in one piece of advice.
const MaxTips = 5

// AdviceSchema defines the JSON schema for LLM study advice.
var AdviceSchema = &llm.Schema{
	Name:        "study-advice",
	Description: "Short, encouraging study advice for a learner preparing for a certification exam",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"headline": map[string]any{
				"type":        "string",
				"minLength":   1,
				"maxLength":   80,
				"description": "One-line status for the learner, at most 80 characters",
			},
			"summary": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Two or three sentences on where the learner stands and what to do next",
			},
			"tips": map[string]any{
				"type":        "array",
				"minItems":    1,
				"maxItems":    MaxTips,
				"items":       map[string]any{"type": "string", "minLength": 1},
				"description": "Concrete study actions, most important first",
			},
		},
		"required":             []any{"headline", "summary", "tips"},
		"additionalProperties": false,
	},
}
