package agent

import (
	"time"

	"github.com/voocel/mas/hooks"
	"github.com/voocel/mas/interrupt"
	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/memory"
	"github.com/voocel/mas/tools"
)

// Option configures an Agent at construction time. Functional options
// are the sole configuration surface here; there is no environment or
// flag parsing at this layer.
type Option func(*Agent)

func WithID(id string) Option { return func(a *Agent) { a.id = id } }

func WithName(name string) Option { return func(a *Agent) { a.name = name } }

func WithModel(m llm.Model) Option { return func(a *Agent) { a.model = m } }

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

func WithMemory(m memory.Memory) Option { return func(a *Agent) { a.mem = m } }

func WithToolkit(r *tools.Registry) Option { return func(a *Agent) { a.toolkit = r } }

// WithTools registers additional tools into the agent's toolkit at
// construction time.
func WithTools(ts ...tools.Tool) Option {
	return func(a *Agent) {
		for _, t := range ts {
			_ = a.toolkit.RegisterToolEntry(t)
		}
	}
}

// WithHooks installs hooks into the pipeline in the given order.
func WithHooks(hs ...hooks.Hook) Option {
	return func(a *Agent) {
		for _, h := range hs {
			a.pipeline.Append(h)
		}
	}
}

func WithMaxIters(n int) Option { return func(a *Agent) { a.maxIters = n } }

func WithMaxToolErrors(n int) Option { return func(a *Agent) { a.maxToolErrors = n } }

func WithMaxRetries(n int) Option { return func(a *Agent) { a.maxRetries = n } }

// WithInterruptController overrides the agent's interrupt cell, e.g.
// to share one controller across a pipeline-composed set of agents.
func WithInterruptController(c *interrupt.Controller) Option {
	return func(a *Agent) { a.interrupts = c }
}

// WithReasoningTimeout bounds a single reasoning request's wall-clock
// time. Zero (the default) leaves it unbounded beyond the caller's ctx.
func WithReasoningTimeout(d time.Duration) Option {
	return func(a *Agent) { a.reasoningTimeout = d }
}

// WithToolTimeout bounds a single tool invocation's wall-clock time.
// Zero (the default) leaves it unbounded beyond the caller's ctx.
func WithToolTimeout(d time.Duration) Option {
	return func(a *Agent) { a.toolTimeout = d }
}
