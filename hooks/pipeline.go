package hooks

import (
	"context"

	"github.com/voocel/mas/coreerr"
	"github.com/voocel/mas/schema"
)

// Pipeline runs a fixed, ordered list of hooks through all nine
// phases. Transformations compose in registration order: hook N sees
// hook N-1's output. A failing hook's error is reported to OnError on
// every subsequent hook, then returned to the caller (the caller
// decides whether that aborts the loop or is absorbed as an
// interruption). The two chunk phases, OnReasoningChunk and
// OnActingChunk, only report a failure to OnError; they return nothing.
type Pipeline struct {
	hooks []Hook
}

// NewPipeline builds a pipeline over hooks, in the order given. Order
// is load-bearing: it is both dispatch order and transform-composition
// order.
func NewPipeline(hooks ...Hook) *Pipeline {
	return &Pipeline{hooks: append([]Hook(nil), hooks...)}
}

// Append adds a hook to the end of the pipeline. Used by optional
// attachable components (e.g. the plan notebook) that must register
// their hook after any caller-supplied ones.
func (p *Pipeline) Append(h Hook) {
	p.hooks = append(p.hooks, h)
}

// Remove removes the first occurrence of h from the pipeline by
// identity, preserving the order of the rest. Used by optional
// attachable components to undo their own Append when detaching,
// symmetrically with tools.Registry.Deregister. A no-op if h is not
// currently installed.
func (p *Pipeline) Remove(h Hook) {
	for i, hh := range p.hooks {
		if hh == h {
			p.hooks = append(p.hooks[:i:i], p.hooks[i+1:]...)
			return
		}
	}
}

func (p *Pipeline) PreCall(ctx context.Context, agent AgentView) error {
	for i, h := range p.hooks {
		hh, ok := h.(PreCallHook)
		if !ok {
			continue
		}
		if err := hh.PreCall(ctx, agent); err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "preCall", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
			return werr
		}
	}
	return nil
}

func (p *Pipeline) PreReasoning(ctx context.Context, agent AgentView, msgs []schema.Msg) ([]schema.Msg, error) {
	for i, h := range p.hooks {
		hh, ok := h.(PreReasoningHook)
		if !ok {
			continue
		}
		out, err := hh.PreReasoning(ctx, agent, msgs)
		if err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "preReasoning", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
			return msgs, werr
		}
		msgs = out
	}
	return msgs, nil
}

// OnReasoningChunk dispatches chunk to every ReasoningChunkHook,
// converting to a delta-only view for hooks in Incremental mode.
// cumulative carries everything accumulated so far in the turn; delta
// carries only the newest fragment's content.
func (p *Pipeline) OnReasoningChunk(ctx context.Context, agent AgentView, cumulative, delta schema.Msg) {
	for i, h := range p.hooks {
		hh, ok := h.(ReasoningChunkHook)
		if !ok {
			continue
		}
		chunk := cumulative
		if hh.ChunkMode() == Incremental {
			chunk = delta
		}
		if err := hh.OnReasoningChunk(ctx, agent, chunk); err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "onReasoningChunk", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
		}
	}
}

func (p *Pipeline) PostReasoning(ctx context.Context, agent AgentView, msg schema.Msg) (schema.Msg, error) {
	for i, h := range p.hooks {
		hh, ok := h.(PostReasoningHook)
		if !ok {
			continue
		}
		out, err := hh.PostReasoning(ctx, agent, msg)
		if err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "postReasoning", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
			return msg, werr
		}
		msg = out
	}
	return msg, nil
}

func (p *Pipeline) PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	for i, h := range p.hooks {
		hh, ok := h.(PreActingHook)
		if !ok {
			continue
		}
		out, err := hh.PreActing(ctx, agent, use)
		if err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "preActing", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
			return use, werr
		}
		use = out
	}
	return use, nil
}

func (p *Pipeline) OnActingChunk(ctx context.Context, agent AgentView, use schema.ToolUse, chunk schema.ToolResult) {
	for i, h := range p.hooks {
		hh, ok := h.(ActingChunkHook)
		if !ok {
			continue
		}
		if err := hh.OnActingChunk(ctx, agent, use, chunk); err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "onActingChunk", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
		}
	}
}

func (p *Pipeline) PostActing(ctx context.Context, agent AgentView, use schema.ToolUse, result schema.ToolResult) (schema.ToolResult, error) {
	for i, h := range p.hooks {
		hh, ok := h.(PostActingHook)
		if !ok {
			continue
		}
		out, err := hh.PostActing(ctx, agent, use, result)
		if err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "postActing", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
			return result, werr
		}
		result = out
	}
	return result, nil
}

func (p *Pipeline) OnError(ctx context.Context, agent AgentView, err error) {
	p.notifyError(ctx, agent, 0, err)
}

func (p *Pipeline) notifyError(ctx context.Context, agent AgentView, from int, err error) {
	for _, h := range p.hooks[from:] {
		if hh, ok := h.(ErrorHook); ok {
			hh.OnError(ctx, agent, err)
		}
	}
}

func (p *Pipeline) PostCall(ctx context.Context, agent AgentView, final schema.Msg) (schema.Msg, error) {
	for i, h := range p.hooks {
		hh, ok := h.(PostCallHook)
		if !ok {
			continue
		}
		out, err := hh.PostCall(ctx, agent, final)
		if err != nil {
			werr := &coreerr.HookError{Hook: hookName(h), Phase: "postCall", Err: err}
			p.notifyError(ctx, agent, i+1, werr)
			return final, werr
		}
		final = out
	}
	return final, nil
}

// hookName reports a type name for error context; hooks aren't
// required to carry their own name.
func hookName(h Hook) string {
	type named interface{ Name() string }
	if n, ok := h.(named); ok {
		return n.Name()
	}
	return "hook"
}
