package tutor

import (
	"github.com/abhisek/sapprep/internal/domain"
	"github.com/abhisek/sapprep/internal/llm"
)

// ExplanationSchema is the structured output for Explain.
var ExplanationSchema = &llm.Schema{
	Name:        "answer-explanation",
	Description: "Explanation of the correct answer to an AWS SAP-C02 practice question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "One or two sentences naming the requirement that decides the question",
			},
			"why_correct": map[string]any{
				"type":        "string",
				"description": "Why the correct option(s) satisfy every stated requirement",
			},
			"why_wrong": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"letter": map[string]any{"type": "string", "pattern": "^[A-F]$"},
						"reason": map[string]any{"type": "string"},
					},
					"required":             []any{"letter", "reason"},
					"additionalProperties": false,
				},
			},
			"misconception": map[string]any{
				"type":        "string",
				"description": "What the learner's answer suggests they misunderstood; empty if not applicable",
			},
			"key_services": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "AWS services central to the question",
			},
		},
		"required":             []any{"summary", "why_correct", "why_wrong", "misconception", "key_services"},
		"additionalProperties": false,
	},
}

// StudyPlanSchema is the structured output for Plan.
var StudyPlanSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "Prioritised study plan for the SAP-C02 exam",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-4 sentences on overall readiness",
			},
			"focus_areas": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 5,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"domain": map[string]any{"type": "string", "enum": domainEnum()},
						"reason": map[string]any{"type": "string"},
						"topics": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []any{"domain", "reason", "topics"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "focus_areas"},
		"additionalProperties": false,
	},
}

func domainEnum() []any {
	out := make([]any, 0, 5)
	for _, d := range domain.All() {
		out = append(out, string(d))
	}
	return out
}
