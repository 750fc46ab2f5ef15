// Package hooks implements the ordered, suspension-capable observer
// pipeline the ReAct loop dispatches to at nine named phases. A hook
// implements only the capability interfaces it cares about (the
// marker-interface pattern the corpus's runner middleware uses for
// BeforeLLM/AfterLLM/BeforeTool/AfterTool); every callback not
// implemented defaults to identity/no-op.
package hooks

import (
	"context"

	"github.com/voocel/mas/schema"
)

// AgentView is the read-only introspection surface hooks receive in
// place of a concrete agent type, breaking the import cycle between
// this package and the agent package that drives it.
type AgentView interface {
	ID() string
	Name() string
}

// ChunkMode selects how a hook wants streaming reasoning chunks
// delivered: the new delta only, or the accumulated text so far.
type ChunkMode int

const (
	Incremental ChunkMode = iota
	Cumulative
)

// Hook is a marker interface: implementations satisfy any subset of
// the phase interfaces below. A value that implements none of them is
// accepted but never called.
type Hook interface{}

type PreCallHook interface {
	PreCall(ctx context.Context, agent AgentView) error
}

type PreReasoningHook interface {
	PreReasoning(ctx context.Context, agent AgentView, msgs []schema.Msg) ([]schema.Msg, error)
}

// ReasoningChunkHook observes streamed reasoning fragments as they
// arrive, reassembled into a partial Msg. Mode controls whether chunk
// carries only the new delta's content or everything accumulated so
// far in the current turn.
type ReasoningChunkHook interface {
	ChunkMode() ChunkMode
	OnReasoningChunk(ctx context.Context, agent AgentView, chunk schema.Msg) error
}

type PostReasoningHook interface {
	PostReasoning(ctx context.Context, agent AgentView, msg schema.Msg) (schema.Msg, error)
}

type PreActingHook interface {
	PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error)
}

type ActingChunkHook interface {
	OnActingChunk(ctx context.Context, agent AgentView, use schema.ToolUse, chunk schema.ToolResult) error
}

type PostActingHook interface {
	PostActing(ctx context.Context, agent AgentView, use schema.ToolUse, result schema.ToolResult) (schema.ToolResult, error)
}

type ErrorHook interface {
	OnError(ctx context.Context, agent AgentView, err error)
}

type PostCallHook interface {
	PostCall(ctx context.Context, agent AgentView, final schema.Msg) (schema.Msg, error)
}
