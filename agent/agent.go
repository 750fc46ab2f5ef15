// Package agent implements the ReAct reasoning/acting loop: the state
// machine that alternates calling the model and dispatching tools,
// bounded by a maximum iteration count, terminated by a
// generate_response tool call or an interruption.
package agent

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/voocel/mas/hooks"
	"github.com/voocel/mas/interrupt"
	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/memory"
	"github.com/voocel/mas/tools"
)

// Agent is one configured ReAct loop instance: a model, a toolkit, a
// memory, a hook pipeline, and its own interrupt cell.
type Agent struct {
	id   string
	name string

	model        llm.Model
	toolkit      *tools.Registry
	mem          memory.Memory
	pipeline     *hooks.Pipeline
	interrupts   *interrupt.Controller
	systemPrompt string

	maxIters      int
	maxToolErrors int
	maxRetries    int

	// reasoningTimeout/toolTimeout bound a single reasoning request or
	// tool invocation, respectively. Zero means no deadline beyond
	// ctx's own. This lives here rather than as a hook because no
	// phase callback in the hook pipeline returns a derived context —
	// wrapping the context is a call-site concern, not an observer one.
	reasoningTimeout time.Duration
	toolTimeout      time.Duration

	toolErrors map[string]int
	running    atomic.Bool
}

// New builds an Agent from options. A Model is required; everything
// else defaults to an empty in-process component.
func New(opts ...Option) (*Agent, error) {
	a := &Agent{
		id:            uuid.NewString(),
		toolkit:       tools.New(),
		mem:           memory.New(),
		pipeline:      hooks.NewPipeline(),
		interrupts:    interrupt.New(),
		maxIters:      10,
		maxToolErrors: 0,
		maxRetries:    3,
		toolErrors:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.model == nil {
		return nil, fmt.Errorf("agent: WithModel is required")
	}
	if _, ok := a.toolkit.Lookup(tools.GenerateResponseName); !ok {
		_ = a.toolkit.RegisterToolEntry(tools.NewGenerateResponse())
	}
	return a, nil
}

// ID satisfies hooks.AgentView.
func (a *Agent) ID() string { return a.id }

// Name satisfies hooks.AgentView.
func (a *Agent) Name() string { return a.name }

// Toolkit exposes the agent's mutable tool registry so callers can
// register/deregister tools and change active groups between calls.
func (a *Agent) Toolkit() *tools.Registry { return a.toolkit }

// Memory exposes the agent's working memory.
func (a *Agent) Memory() memory.Memory { return a.mem }

// AppendHook installs a hook at the end of the pipeline, after any
// hook already present. Used by optional attachable components (e.g.
// the plan notebook) that must register after caller-supplied hooks.
func (a *Agent) AppendHook(h hooks.Hook) { a.pipeline.Append(h) }

// RemoveHook uninstalls a previously appended hook, the inverse of
// AppendHook. Used by optional attachable components to undo their own
// registration atomically with deregistering their tools.
func (a *Agent) RemoveHook(h hooks.Hook) { a.pipeline.Remove(h) }

// Interrupt signals a USER-sourced interrupt for the call currently in
// flight, if any. Returns false if a signal was already pending.
func (a *Agent) Interrupt(userMessage string) bool {
	return a.interrupts.Signal(interrupt.Context{
		Source:      interrupt.SourceUser,
		UserMessage: userMessage,
	})
}

// IsRunning reports whether a call is currently executing.
func (a *Agent) IsRunning() bool { return a.running.Load() }
