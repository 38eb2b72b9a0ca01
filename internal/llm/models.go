package llm

import "strings"

// ModelCost is USD per one million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost prices a request.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1_000_000
}

type model struct {
	provider string
	alias    string
	id       string
	cost     ModelCost
}

// models lists what the tutor is configured with by default and the usual
// alternatives. Prices as published, 2026-02.
var models = []model{
	{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001", ModelCost{1, 5}},
	{"anthropic", "claude-sonnet", "claude-sonnet-4-5-20250929", ModelCost{3, 15}},
	{"anthropic", "claude-opus", "claude-opus-4-5-20251101", ModelCost{5, 25}},

	{"openai", "gpt-4o-mini", "gpt-4o-mini", ModelCost{0.15, 0.6}},
	{"openai", "gpt-4o", "gpt-4o", ModelCost{2.5, 10}},
	{"openai", "gpt-4.1-mini", "gpt-4.1-mini", ModelCost{0.4, 1.6}},
	{"openai", "gpt-5-mini", "gpt-5-mini", ModelCost{0.25, 2}},

	{"gemini", "gemini-flash", "gemini-2.5-flash", ModelCost{0.3, 2.5}},
	{"gemini", "gemini-flash-lite", "gemini-2.5-flash-lite", ModelCost{0.1, 0.4}},
	{"gemini", "gemini-pro", "gemini-2.5-pro", ModelCost{1.25, 10}},
}

// resolveModel maps a configured alias to the provider's model id. Anything
// else is taken to be an id already.
func resolveModel(provider, name string) string {
	for _, m := range models {
		if m.provider == provider && m.alias == name {
			return m.id
		}
	}
	return name
}

// LookupCost prices a model by alias or id. Snapshot suffixes
// ("gpt-4o-mini-2024-07-18") and OpenRouter vendor prefixes
// ("anthropic/claude-haiku-4.5") are accepted. Unknown models return nil.
func LookupCost(name string) *ModelCost {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = dashed(name)
	for _, m := range models {
		if name == dashed(m.id) || name == dashed(m.alias) {
			c := m.cost
			return &c
		}
	}
	for _, m := range models {
		if isSnapshotOf(name, dashed(m.id)) || isSnapshotOf(dashed(m.id), name) {
			c := m.cost
			return &c
		}
	}
	return nil
}

func dashed(s string) string { return strings.ReplaceAll(s, ".", "-") }

// isSnapshotOf reports whether id is base followed by a date suffix.
func isSnapshotOf(id, base string) bool {
	rest, ok := strings.CutPrefix(id, base+"-")
	if !ok || rest == "" {
		return false
	}
	return strings.Trim(rest, "0123456789-") == ""
}
