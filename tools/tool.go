// Package tools implements the Toolkit: a registry mapping tool names to
// invokable entries with JSON-schema parameter descriptors, dynamic
// grouping, and the reserved generate_response terminal tool.
package tools

import (
	"context"

	"github.com/voocel/mas/schema"
)

// Tool is one catalogued toolkit entry. Name, Description and Schema
// describe it to the model; Invoke runs it.
type Tool interface {
	Name() string
	Description() string
	// Schema is the JSON-schema object describing the tool's input.
	Schema() map[string]any
	// Group is the toolkit group this entry belongs to; the empty group
	// is always active.
	Group() string
	// Concurrent reports whether the ReAct loop may dispatch this tool
	// alongside others from the same reasoning turn. Opt-in: the zero
	// value (false) is the safe default for tools with side effects.
	Concurrent() bool
	// Invoke runs the tool for call. The returned channel yields zero or
	// more intermediate ToolResult chunks followed by exactly one
	// terminal chunk, then closes. Every chunk's ID equals call.ID.
	// Invoke itself only returns an error for failures to even start
	// the tool (e.g. bad plumbing); ordinary tool-level failures are
	// reported as a terminal chunk with IsError set, per spec.
	Invoke(ctx context.Context, call schema.ToolUse) (<-chan schema.ToolResult, error)
}

// Func adapts a simple synchronous function into a Tool that never
// streams intermediate chunks.
type Func struct {
	ToolName        string
	ToolDescription string
	ToolSchema      map[string]any
	ToolGroup       string
	ToolConcurrent  bool
	Fn              func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error)
}

func (f *Func) Name() string             { return f.ToolName }
func (f *Func) Description() string      { return f.ToolDescription }
func (f *Func) Schema() map[string]any   { return f.ToolSchema }
func (f *Func) Group() string            { return f.ToolGroup }
func (f *Func) Concurrent() bool         { return f.ToolConcurrent }

func (f *Func) Invoke(ctx context.Context, call schema.ToolUse) (<-chan schema.ToolResult, error) {
	ch := make(chan schema.ToolResult, 1)
	go func() {
		defer close(ch)
		result, err := f.Fn(ctx, call)
		if err != nil {
			ch <- schema.ErrorToolResult(call.ID, call.Name, err.Error())
			return
		}
		if result.ID == "" {
			result.ID = call.ID
		}
		if result.Name == "" {
			result.Name = call.Name
		}
		ch <- result
	}()
	return ch, nil
}

var _ Tool = (*Func)(nil)

// Streaming adapts a function that emits intermediate progress chunks
// onto emit before returning its terminal result.
type Streaming struct {
	ToolName        string
	ToolDescription string
	ToolSchema      map[string]any
	ToolGroup       string
	ToolConcurrent  bool
	Fn              func(ctx context.Context, call schema.ToolUse, emit func(schema.ToolResult)) (schema.ToolResult, error)
}

func (s *Streaming) Name() string           { return s.ToolName }
func (s *Streaming) Description() string    { return s.ToolDescription }
func (s *Streaming) Schema() map[string]any { return s.ToolSchema }
func (s *Streaming) Group() string          { return s.ToolGroup }
func (s *Streaming) Concurrent() bool       { return s.ToolConcurrent }

func (s *Streaming) Invoke(ctx context.Context, call schema.ToolUse) (<-chan schema.ToolResult, error) {
	ch := make(chan schema.ToolResult)
	go func() {
		defer close(ch)
		emit := func(chunk schema.ToolResult) {
			if chunk.ID == "" {
				chunk.ID = call.ID
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
			}
		}
		result, err := s.Fn(ctx, call, emit)
		if err != nil {
			ch <- schema.ErrorToolResult(call.ID, call.Name, err.Error())
			return
		}
		if result.ID == "" {
			result.ID = call.ID
		}
		if result.Name == "" {
			result.Name = call.Name
		}
		select {
		case ch <- result:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

var _ Tool = (*Streaming)(nil)

// Terminal drains ch and returns its last value, which by contract is
// the terminal result. Callers that don't care about intermediate
// progress chunks use this.
func Terminal(ch <-chan schema.ToolResult) schema.ToolResult {
	var last schema.ToolResult
	for r := range ch {
		last = r
	}
	return last
}
