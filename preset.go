package mas

import "github.com/voocel/mas/agent"

// Preset returns a built-in role system prompt, or a generic fallback
// for an unrecognized name.
func Preset(name string) string {
	if prompt, ok := presets[name]; ok {
		return prompt
	}
	return "You are a " + name + "."
}

// WithPreset applies a built-in role prompt as the agent's system prompt.
func WithPreset(name string) agent.Option {
	return agent.WithSystemPrompt(Preset(name))
}

var presets = map[string]string{
	"assistant":  "You are a friendly assistant who provides clear, accurate, and concise answers.",
	"researcher": "You are a research assistant. Analyze the problem first, then provide a conclusion with rationale.",
	"writer":     "You are a writing assistant who produces structured, readable content.",
	"analyst":    "You are an analytical assistant who breaks down problems and delivers data-driven conclusions.",
	"engineer":   "You are an engineer who values feasibility and best practices.",
}
