// Package llm defines the abstract streaming chat-completion contract
// the ReAct loop drives, independent of any provider SDK.
package llm

import (
	"context"

	"github.com/voocel/mas/schema"
)

// FragmentType discriminates a ReasoningFragment.
type FragmentType string

const (
	FragmentText     FragmentType = "text_delta"
	FragmentThinking FragmentType = "thinking_delta"
	FragmentToolUse  FragmentType = "tool_use_delta"
	FragmentFinish   FragmentType = "finish"
)

// ReasoningFragment is one increment of a streamed model turn. The
// reasoning loop aggregates fragments by ToolUseID into a Msg whose
// block order is described on Accumulator.
type ReasoningFragment struct {
	Type FragmentType

	TextDelta     string
	ThinkingDelta string

	// ToolUseID/Name/InputDelta apply to FragmentToolUse. InputDelta is
	// a partial JSON-object string; the loop concatenates deltas with
	// the same ToolUseID and parses once the stream finishes.
	ToolUseID         string
	ToolUseName       string
	ToolUseInputDelta string

	// FinishReason and Err apply to FragmentFinish, the stream's final
	// fragment. Err is non-nil if the stream terminated on failure;
	// the caller must still treat the channel close as authoritative.
	FinishReason string
	Err          error
}

// ToolSchema is a tool descriptor as sent to the model: name,
// description and JSON-schema input shape.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Options carries per-call generation knobs. The zero value means
// "use the model's defaults".
type Options struct {
	Temperature   *float64
	MaxTokens     *int
	ThinkingLevel string
}

// Model is the abstract contract every provider adapter implements.
// Stream is single-producer: the returned channel is closed once the
// terminal FragmentFinish has been sent, and remains drainable after
// ctx is cancelled (fragments already in flight may still arrive).
type Model interface {
	Stream(ctx context.Context, prompt []schema.Msg, toolSchemas []ToolSchema, opts Options) (<-chan ReasoningFragment, error)
}

// Accumulator folds a sequence of ReasoningFragments into one
// assistant Msg per the reassembly rule: text and thinking deltas
// concatenate into their own blocks; tool-use deltas accumulate per
// ToolUseID and become complete ToolUseBlocks once their buffered JSON
// input parses. The final Msg holds the text and thinking blocks first,
// in the order of their first fragment, then the tool-use blocks in the
// order of their first fragment; a tool-use emitted before any text is
// still placed after the text block. It is the single implementation of that rule, shared
// by Reassemble (below) and the agent loop's chunk-dispatching drain,
// which needs the same folding logic but must also observe the
// in-progress cumulative Msg and per-fragment delta as each fragment
// arrives.
type Accumulator struct {
	blocks    []schema.ContentBlock
	textIdx   int
	thinkIdx  int
	toolOrder []string
	toolIdx   map[string]int
	toolName  map[string]string
	toolInput map[string]string
}

// NewAccumulator builds an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		textIdx:   -1,
		thinkIdx:  -1,
		toolIdx:   map[string]int{},
		toolName:  map[string]string{},
		toolInput: map[string]string{},
	}
}

// Apply folds one fragment into the accumulator and returns a Msg
// carrying just that fragment's delta (FragmentFinish folds into
// nothing and returns the zero Msg; callers handle finish
// reason/error themselves).
func (a *Accumulator) Apply(frag ReasoningFragment) schema.Msg {
	switch frag.Type {
	case FragmentText:
		if a.textIdx == -1 {
			a.blocks = append(a.blocks, schema.TextBlock(""))
			a.textIdx = len(a.blocks) - 1
		}
		a.blocks[a.textIdx].Text += frag.TextDelta
		return schema.NewMsg("", schema.RoleAssistant, schema.TextBlock(frag.TextDelta))
	case FragmentThinking:
		if a.thinkIdx == -1 {
			a.blocks = append(a.blocks, schema.ThinkingBlock(""))
			a.thinkIdx = len(a.blocks) - 1
		}
		a.blocks[a.thinkIdx].Thinking += frag.ThinkingDelta
		return schema.NewMsg("", schema.RoleAssistant, schema.ThinkingBlock(frag.ThinkingDelta))
	case FragmentToolUse:
		if _, ok := a.toolIdx[frag.ToolUseID]; !ok {
			a.toolOrder = append(a.toolOrder, frag.ToolUseID)
			a.toolIdx[frag.ToolUseID] = len(a.toolOrder) - 1
		}
		if frag.ToolUseName != "" {
			a.toolName[frag.ToolUseID] = frag.ToolUseName
		}
		a.toolInput[frag.ToolUseID] += frag.ToolUseInputDelta
		return schema.NewMsg("", schema.RoleAssistant, schema.ToolUseBlock(frag.ToolUseID, frag.ToolUseName, nil))
	default:
		return schema.Msg{}
	}
}

// Cumulative returns a snapshot Msg of every block folded in so far.
func (a *Accumulator) Cumulative() schema.Msg {
	return schema.NewMsg("", schema.RoleAssistant, a.blocks...)
}

// Finish parses every accumulated tool-use's buffered JSON input and
// returns the final assistant Msg, plus the first parse error
// encountered, if any.
func (a *Accumulator) Finish() (schema.Msg, error) {
	blocks := append([]schema.ContentBlock(nil), a.blocks...)
	var err error
	for _, id := range a.toolOrder {
		input, perr := ParseToolInput(a.toolInput[id])
		if perr != nil && err == nil {
			err = perr
		}
		blocks = append(blocks, schema.ToolUseBlock(id, a.toolName[id], input))
	}
	return schema.NewMsg("", schema.RoleAssistant, blocks...), err
}

// Reassemble aggregates a drained fragment stream into a single
// assistant Msg using Accumulator (block order as described there;
// tool-use blocks follow the text and thinking blocks). It returns the
// finish reason and the first error observed on the stream, if any.
func Reassemble(fragments <-chan ReasoningFragment) (schema.Msg, string, error) {
	acc := NewAccumulator()
	var finishReason string
	var streamErr error

	for frag := range fragments {
		if frag.Type == FragmentFinish {
			finishReason = frag.FinishReason
			streamErr = frag.Err
			continue
		}
		acc.Apply(frag)
	}

	msg, parseErr := acc.Finish()
	if streamErr == nil {
		streamErr = parseErr
	}
	return msg, finishReason, streamErr
}
