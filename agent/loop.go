package agent

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/voocel/mas/coreerr"
	"github.com/voocel/mas/interrupt"
	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/schema"
	"github.com/voocel/mas/tools"
)

// Call runs one full ReAct cycle: the input, if non-empty, is appended
// to memory, then the loop alternates reasoning and acting until a
// generate_response tool call is consumed, maxIters elapses, or an
// interrupt is observed. Concurrent calls on one Agent are not
// supported; the caller must serialize them.
func (a *Agent) Call(ctx context.Context, input schema.Msg) (schema.Msg, error) {
	if !a.running.CompareAndSwap(false, true) {
		return schema.Msg{}, fmt.Errorf("agent: a call is already in progress")
	}
	defer a.running.Store(false)

	a.interrupts.Reset()
	a.toolErrors = make(map[string]int)

	if err := a.pipeline.PreCall(ctx, a); err != nil {
		a.pipeline.OnError(ctx, a, err)
		return schema.Msg{}, err
	}

	if !input.IsEmpty() {
		a.mem.Append(input)
	}

	final, err := a.runLoop(ctx)
	if err != nil {
		a.pipeline.OnError(ctx, a, err)
		return final, err
	}

	final, err = a.pipeline.PostCall(ctx, a, final)
	if err != nil {
		a.pipeline.OnError(ctx, a, err)
		return final, err
	}
	return final, nil
}

func (a *Agent) runLoop(ctx context.Context) (schema.Msg, error) {
	for iter := 0; iter < a.maxIters; iter++ {
		if ic, ok := a.interrupts.GetAndClear(); ok {
			return a.reconcile(ctx, ic, nil)
		}

		_, uses, err := a.reason(ctx)
		if err != nil {
			return schema.Msg{}, err
		}
		if ic, ok := a.interrupts.GetAndClear(); ok {
			return a.reconcile(ctx, ic, uses)
		}

		if len(uses) == 0 {
			a.mem.Append(schema.SystemMsg("No tool call was made; continue reasoning or call generate_response to finish."))
			continue
		}

		if final, done, ferr := a.actFinalIfPresent(ctx, uses); done {
			return final, ferr
		}

		if ic, ok := a.interrupts.GetAndClear(); ok {
			return a.reconcile(ctx, ic, uses)
		}

		if err := a.act(ctx, uses); err != nil {
			if ic, ok := a.interrupts.GetAndClear(); ok {
				return a.reconcile(ctx, ic, nil)
			}
			return schema.Msg{}, err
		}
	}

	a.interrupts.Signal(interrupt.Context{
		Source:      interrupt.SourceSystem,
		UserMessage: fmt.Sprintf("maximum iterations reached (%d)", a.maxIters),
	})
	ic, _ := a.interrupts.GetAndClear()
	return a.reconcile(ctx, ic, nil)
}

// reason executes one reasoning turn: preReasoning, the (retrying)
// model stream, reassembly, postReasoning, and the memory append.
func (a *Agent) reason(ctx context.Context) (schema.Msg, []schema.ToolUse, error) {
	msgs, err := a.pipeline.PreReasoning(ctx, a, a.mem.Snapshot())
	if err != nil {
		return schema.Msg{}, nil, err
	}
	prompt := a.withSystemPrompt(msgs)

	reasonCtx := ctx
	if a.reasoningTimeout > 0 {
		var cancel context.CancelFunc
		reasonCtx, cancel = context.WithTimeout(ctx, a.reasoningTimeout)
		defer cancel()
	}

	fragments, err := llm.StreamWithRetry(reasonCtx, a.model, prompt, a.toolSchemas(), llm.Options{}, llm.RetryConfig{MaxRetries: a.maxRetries})
	if err != nil {
		return schema.Msg{}, nil, &coreerr.ModelError{Err: err}
	}

	assistantMsg, streamErr := a.drainReasoning(ctx, fragments)
	if _, interrupted := a.interrupts.Peek(); interrupted {
		// The message was never appended to memory, so it has no
		// enumerated tool-uses as far as reconciliation is concerned;
		// returning its (possibly partial) ToolUses here would make
		// reconcile synthesize ToolResultBlocks whose ToolUseBlock
		// was never committed.
		return assistantMsg, nil, nil
	}
	if streamErr != nil {
		return schema.Msg{}, nil, &coreerr.ModelError{Err: streamErr}
	}

	assistantMsg, err = a.pipeline.PostReasoning(ctx, a, assistantMsg)
	if err != nil {
		return schema.Msg{}, nil, err
	}
	a.mem.Append(assistantMsg)

	return assistantMsg, assistantMsg.ToolUses(), nil
}

// drainReasoning folds the fragment stream into one assistant Msg via
// llm.Accumulator (the same reassembly rule llm.Reassemble uses),
// dispatching onReasoningChunk as each fragment arrives and checking
// the interrupt cell at every fragment (suspension point b in spec
// §5). On interrupt it keeps draining the channel (the producer side
// must remain drainable) but stops forwarding to hooks and stops
// folding further fragments into the accumulator.
func (a *Agent) drainReasoning(ctx context.Context, fragments <-chan llm.ReasoningFragment) (schema.Msg, error) {
	acc := llm.NewAccumulator()
	var streamErr error

	for frag := range fragments {
		if _, interrupted := a.interrupts.Peek(); interrupted {
			continue
		}

		if frag.Type == llm.FragmentFinish {
			streamErr = frag.Err
			continue
		}

		delta := acc.Apply(frag)
		a.pipeline.OnReasoningChunk(ctx, a, acc.Cumulative(), delta)
	}

	msg, parseErr := acc.Finish()
	if streamErr == nil {
		streamErr = parseErr
	}
	return msg, streamErr
}

// actFinalIfPresent looks for a generate_response tool-use among uses
// (there should be at most one; the model is expected to emit it
// alone, but the contract only requires termination once one is
// observed). If found, it invokes it through invokeOne (which runs
// postActing; preActing is not run for generate_response), appends the
// terminal result, and builds the final message.
func (a *Agent) actFinalIfPresent(ctx context.Context, uses []schema.ToolUse) (schema.Msg, bool, error) {
	for _, use := range uses {
		if !tools.IsGenerateResponse(use.Name) {
			continue
		}
		result, err := a.invokeOne(ctx, use)
		if err != nil {
			return schema.Msg{}, true, err
		}
		a.mem.Append(schema.NewMsg("", schema.RoleTool, schema.ToolResultBlock(result)))
		return schema.NewMsg("", schema.RoleAssistant, result.Output...), true, nil
	}
	return schema.Msg{}, false, nil
}

// act dispatches every remaining tool-use in model-emission order,
// honoring each tool's Concurrent() flag: maximal consecutive runs of
// concurrent-safe tools execute together via a bounded worker pool;
// everything else runs strictly one at a time. Regardless of
// execution order, results are appended to memory in the model's
// original order.
func (a *Agent) act(ctx context.Context, uses []schema.ToolUse) error {
	results := make([]schema.ToolResult, len(uses))

	i := 0
	for i < len(uses) {
		if a.toolConcurrent(uses[i]) {
			j := i
			for j < len(uses) && a.toolConcurrent(uses[j]) {
				j++
			}
			if err := a.actBatch(ctx, uses[i:j], results[i:j]); err != nil {
				return err
			}
			i = j
			continue
		}

		result, err := a.actOne(ctx, uses[i])
		if err != nil {
			return err
		}
		results[i] = result
		i++
	}

	for _, r := range results {
		a.mem.Append(schema.NewMsg("", schema.RoleTool, schema.ToolResultBlock(r)))
	}
	return nil
}

func (a *Agent) actBatch(ctx context.Context, uses []schema.ToolUse, out []schema.ToolResult) error {
	g, gctx := errgroup.WithContext(ctx)
	for idx, use := range uses {
		idx, use := idx, use
		g.Go(func() error {
			result, err := a.actOne(gctx, use)
			if err != nil {
				return err
			}
			out[idx] = result
			return nil
		})
	}
	return g.Wait()
}

// actOne runs preActing, invokes the tool (checking the interrupt cell
// before dispatch and after every chunk), and runs postActing on the
// terminal result.
func (a *Agent) actOne(ctx context.Context, use schema.ToolUse) (schema.ToolResult, error) {
	if _, interrupted := a.interrupts.Peek(); interrupted {
		return schema.InterruptedToolResult(use.ID, use.Name), nil
	}

	use, err := a.pipeline.PreActing(ctx, a, use)
	if err != nil {
		var guardErr *coreerr.GuardrailError
		if errors.As(err, &guardErr) {
			return schema.ErrorToolResult(use.ID, use.Name, err.Error()), nil
		}
		return schema.ToolResult{}, err
	}

	return a.invokeOne(ctx, use)
}

// invokeOne invokes a tool directly, without preActing (used both by
// actOne and by the generate_response path). The circuit breaker check
// and its consecutive-error bookkeeping apply on both paths. If the
// interrupt cell is signaled while the tool's chunks are being drained,
// the tool's output is replaced with a synthetic interrupted result.
func (a *Agent) invokeOne(ctx context.Context, use schema.ToolUse) (schema.ToolResult, error) {
	tool, ok := a.toolkit.Lookup(use.Name)
	if !ok || !a.toolkit.IsActive(use.Name) {
		result := schema.ErrorToolResult(use.ID, use.Name, fmt.Sprintf("tool %q not found or not active", use.Name))
		return a.finishActing(ctx, use, result)
	}

	if a.maxToolErrors > 0 && a.toolErrors[use.Name] >= a.maxToolErrors {
		result := schema.ErrorToolResult(use.ID, use.Name, fmt.Sprintf("tool %q disabled after %d consecutive errors", use.Name, a.maxToolErrors))
		return a.finishActing(ctx, use, result)
	}

	toolCtx := interrupt.WithInterrupter(ctx, func(reason string) {
		a.interrupts.Signal(interrupt.Context{
			Source:           interrupt.SourceTool,
			UserMessage:      reason,
			PendingToolCalls: []schema.ToolUse{use},
		})
	})
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(toolCtx, a.toolTimeout)
		defer cancel()
	}

	ch, err := tool.Invoke(toolCtx, use)
	if err != nil {
		result := schema.ErrorToolResult(use.ID, use.Name, err.Error())
		return a.finishActing(ctx, use, result)
	}

	var terminal schema.ToolResult
	dropped := false
	for chunk := range ch {
		if _, interrupted := a.interrupts.Peek(); interrupted {
			dropped = true
			continue
		}
		terminal = chunk
		a.pipeline.OnActingChunk(ctx, a, use, chunk)
	}
	if dropped {
		terminal = schema.InterruptedToolResult(use.ID, use.Name)
	}

	if terminal.IsError {
		a.toolErrors[use.Name]++
	} else {
		a.toolErrors[use.Name] = 0
	}

	return a.finishActing(ctx, use, terminal)
}

func (a *Agent) finishActing(ctx context.Context, use schema.ToolUse, result schema.ToolResult) (schema.ToolResult, error) {
	result, err := a.pipeline.PostActing(ctx, a, use, result)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (a *Agent) toolConcurrent(use schema.ToolUse) bool {
	t, ok := a.toolkit.Lookup(use.Name)
	return ok && t.Concurrent()
}

// reconcile implements spec §4.5's three-step procedure: synthesize
// interrupted results for any enumerated-but-incomplete tool-uses, run
// postActing on them, append a recovery message, and return.
func (a *Agent) reconcile(ctx context.Context, ic interrupt.Context, pending []schema.ToolUse) (schema.Msg, error) {
	for _, use := range pending {
		result := schema.InterruptedToolResult(use.ID, use.Name)
		result, _ = a.pipeline.PostActing(ctx, a, use, result)
		a.mem.Append(schema.NewMsg("", schema.RoleTool, schema.ToolResultBlock(result)))
	}

	recovery := schema.SystemMsg(interrupt.RecoveryMessage(ic))
	a.mem.Append(recovery)
	return recovery, nil
}

func (a *Agent) withSystemPrompt(msgs []schema.Msg) []schema.Msg {
	if a.systemPrompt == "" {
		return msgs
	}
	out := make([]schema.Msg, 0, len(msgs)+1)
	out = append(out, schema.SystemMsg(a.systemPrompt))
	out = append(out, msgs...)
	return out
}

func (a *Agent) toolSchemas() []llm.ToolSchema {
	active := a.toolkit.ListActive()
	out := make([]llm.ToolSchema, 0, len(active))
	for _, t := range active {
		out = append(out, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return out
}

