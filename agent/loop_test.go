package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voocel/mas/coreerr"
	"github.com/voocel/mas/hooks"
	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/schema"
	"github.com/voocel/mas/tools"
)

// scriptedModel replays a fixed sequence of turns, one per Stream call.
// Each turn is a list of fragments terminated implicitly by the loop
// closing the channel after they're all sent.
type scriptedModel struct {
	mu    sync.Mutex
	turns [][]llm.ReasoningFragment
	calls int
}

func (m *scriptedModel) Stream(ctx context.Context, prompt []schema.Msg, toolSchemas []llm.ToolSchema, opts llm.Options) (<-chan llm.ReasoningFragment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.turns) {
		return nil, errors.New("scriptedModel: no more turns scripted")
	}
	turn := m.turns[m.calls]
	m.calls++

	ch := make(chan llm.ReasoningFragment, len(turn))
	for _, f := range turn {
		ch <- f
	}
	close(ch)
	return ch, nil
}

func textTurn(text string) []llm.ReasoningFragment {
	return []llm.ReasoningFragment{
		{Type: llm.FragmentText, TextDelta: text},
		{Type: llm.FragmentFinish, FinishReason: "stop"},
	}
}

func toolTurn(id, name string, inputJSON string) []llm.ReasoningFragment {
	return []llm.ReasoningFragment{
		{Type: llm.FragmentToolUse, ToolUseID: id, ToolUseName: name, ToolUseInputDelta: inputJSON},
		{Type: llm.FragmentFinish, FinishReason: "tool_use"},
	}
}

func generateResponseTurn(response string) []llm.ReasoningFragment {
	return toolTurn("final-1", tools.GenerateResponseName, `{"response":"`+response+`"}`)
}

func newTestAgent(t *testing.T, model llm.Model, opts ...Option) *Agent {
	t.Helper()
	base := []Option{WithModel(model)}
	a, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestCallGenerateResponseTerminates(t *testing.T) {
	model := &scriptedModel{turns: [][]llm.ReasoningFragment{generateResponseTurn("hello there")}}
	a := newTestAgent(t, model)

	out, err := a.Call(context.Background(), schema.UserMsg("hi"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Text() != "hello there" {
		t.Fatalf("got %q, want %q", out.Text(), "hello there")
	}
	if model.calls != 1 {
		t.Fatalf("expected exactly one model turn, got %d", model.calls)
	}
}

func TestCallNoToolUseLoopsBack(t *testing.T) {
	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		textTurn("thinking out loud"),
		generateResponseTurn("done"),
	}}
	a := newTestAgent(t, model)

	out, err := a.Call(context.Background(), schema.UserMsg("hi"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Text() != "done" {
		t.Fatalf("got %q, want %q", out.Text(), "done")
	}
	if model.calls != 2 {
		t.Fatalf("expected two model turns, got %d", model.calls)
	}
}

func TestCallMaxItersExhausted(t *testing.T) {
	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		textTurn("still thinking"),
		textTurn("still thinking"),
		textTurn("still thinking"),
	}}
	a := newTestAgent(t, model, WithMaxIters(3))

	out, err := a.Call(context.Background(), schema.UserMsg("hi"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Role != schema.RoleSystem {
		t.Fatalf("expected a system recovery message, got role %v", out.Role)
	}
}

func TestCallToolDispatchSequential(t *testing.T) {
	var invoked []string
	var mu sync.Mutex
	echoTool := &tools.Func{
		ToolName:        "echo",
		ToolDescription: "echoes",
		ToolSchema:      schema.Object(),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			mu.Lock()
			invoked = append(invoked, call.Name)
			mu.Unlock()
			return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock("echoed")}}, nil
		},
	}

	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		toolTurn("call-1", "echo", `{}`),
		generateResponseTurn("all done"),
	}}
	a := newTestAgent(t, model, WithTools(echoTool))

	out, err := a.Call(context.Background(), schema.UserMsg("hi"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Text() != "all done" {
		t.Fatalf("got %q", out.Text())
	}
	if len(invoked) != 1 || invoked[0] != "echo" {
		t.Fatalf("expected echo tool invoked once, got %v", invoked)
	}

	snap := a.Memory().Snapshot()
	var sawToolResult bool
	for _, msg := range snap {
		if msg.Role == schema.RoleTool {
			sawToolResult = true
		}
	}
	if !sawToolResult {
		t.Fatal("expected a tool-result message appended to memory")
	}
}

func TestCallConcurrentToolBatch(t *testing.T) {
	var mu sync.Mutex
	var order []string
	release := make(chan struct{})

	slowTool := func(name string) *tools.Func {
		return &tools.Func{
			ToolName:       name,
			ToolSchema:     schema.Object(),
			ToolConcurrent: true,
			Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
				<-release
				mu.Lock()
				order = append(order, call.Name)
				mu.Unlock()
				return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock("ok")}}, nil
			},
		}
	}

	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		append(toolTurn("a", "tool-a", `{}`), toolTurn("b", "tool-b", `{}`)...),
		generateResponseTurn("done"),
	}}
	a := newTestAgent(t, model, WithTools(slowTool("tool-a"), slowTool("tool-b")))

	done := make(chan struct{})
	go func() {
		_, err := a.Call(context.Background(), schema.UserMsg("hi"))
		if err != nil {
			t.Errorf("Call: %v", err)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for concurrent tool batch to complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 {
		t.Fatalf("expected both tools to run, got %v", order)
	}
}

func TestCallToolErrorCircuitBreaker(t *testing.T) {
	var calls int
	var mu sync.Mutex
	failingTool := &tools.Func{
		ToolName:   "flaky",
		ToolSchema: schema.Object(),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return schema.ErrorToolResult(call.ID, call.Name, "boom"), nil
		},
	}

	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		toolTurn("t1", "flaky", `{}`),
		toolTurn("t2", "flaky", `{}`),
		generateResponseTurn("gave up"),
	}}
	a := newTestAgent(t, model, WithTools(failingTool), WithMaxToolErrors(1))

	out, err := a.Call(context.Background(), schema.UserMsg("hi"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Text() != "gave up" {
		t.Fatalf("got %q", out.Text())
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected the tool to actually run once before the breaker tripped, got %d", calls)
	}
}

type denyingGuardrail struct{}

func (denyingGuardrail) PreActing(ctx context.Context, agent hooks.AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	return use, &coreerr.GuardrailError{Name: "deny-all", Phase: "input", Reason: "not allowed"}
}

func TestCallPreActingGuardrailDenial(t *testing.T) {
	noopTool := &tools.Func{
		ToolName:   "sensitive",
		ToolSchema: schema.Object(),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			t.Fatal("tool should never run once the guardrail denies it")
			return schema.ToolResult{}, nil
		},
	}

	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		toolTurn("t1", "sensitive", `{}`),
		generateResponseTurn("blocked"),
	}}
	a := newTestAgent(t, model, WithTools(noopTool), WithHooks(denyingGuardrail{}))

	out, err := a.Call(context.Background(), schema.UserMsg("hi"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Text() != "blocked" {
		t.Fatalf("got %q", out.Text())
	}
}

func TestCallUserInterruptReconciles(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	blockingTool := &tools.Func{
		ToolName:   "blocking",
		ToolSchema: schema.Object(),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			close(started)
			<-block
			return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock("ok")}}, nil
		},
	}

	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		toolTurn("t1", "blocking", `{}`),
	}}
	a := newTestAgent(t, model, WithTools(blockingTool))

	result := make(chan schema.Msg, 1)
	go func() {
		out, err := a.Call(context.Background(), schema.UserMsg("hi"))
		if err != nil {
			t.Errorf("Call: %v", err)
		}
		result <- out
	}()

	<-started
	if !a.Interrupt("please stop") {
		t.Fatal("expected Interrupt to win the race")
	}
	close(block)

	select {
	case out := <-result:
		if out.Role != schema.RoleSystem {
			t.Fatalf("expected system recovery message, got role %v", out.Role)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for interrupted call to reconcile")
	}
}

// blockingStreamModel sends one tool-use fragment, signals started,
// then waits for the test to release it before sending the closing
// fragment — letting the test interrupt the agent while the reasoning
// stream is still being drained.
type blockingStreamModel struct {
	started chan struct{}
	resume  chan struct{}
}

func (m *blockingStreamModel) Stream(ctx context.Context, prompt []schema.Msg, toolSchemas []llm.ToolSchema, opts llm.Options) (<-chan llm.ReasoningFragment, error) {
	ch := make(chan llm.ReasoningFragment)
	go func() {
		defer close(ch)
		ch <- llm.ReasoningFragment{Type: llm.FragmentToolUse, ToolUseID: "t1", ToolUseName: "blocking", ToolUseInputDelta: "{}"}
		close(m.started)
		<-m.resume
		ch <- llm.ReasoningFragment{Type: llm.FragmentFinish, FinishReason: "tool_use"}
	}()
	return ch, nil
}

func TestCallInterruptDuringReasoningStreamDoesNotOrphanToolResult(t *testing.T) {
	model := &blockingStreamModel{started: make(chan struct{}), resume: make(chan struct{})}
	a := newTestAgent(t, model)

	result := make(chan schema.Msg, 1)
	go func() {
		out, err := a.Call(context.Background(), schema.UserMsg("hi"))
		if err != nil {
			t.Errorf("Call: %v", err)
		}
		result <- out
	}()

	<-model.started
	if !a.Interrupt("stop mid-stream") {
		t.Fatal("expected Interrupt to win the race")
	}
	close(model.resume)

	select {
	case out := <-result:
		if out.Role != schema.RoleSystem {
			t.Fatalf("expected a system recovery message, got role %v", out.Role)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for interrupted call to reconcile")
	}

	for _, msg := range a.Memory().Snapshot() {
		if msg.Role == schema.RoleTool {
			t.Fatalf("expected no tool-result message in memory: the tool-use was never committed, so reconciling it would leave a dangling result, got %+v", msg)
		}
		if msg.Role == schema.RoleAssistant {
			t.Fatalf("expected no partial assistant message committed to memory, got %+v", msg)
		}
	}
}

func TestCallRejectsConcurrentCalls(t *testing.T) {
	block := make(chan struct{})
	blockingTool := &tools.Func{
		ToolName:   "blocking",
		ToolSchema: schema.Object(),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			<-block
			return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock("ok")}}, nil
		},
	}
	model := &scriptedModel{turns: [][]llm.ReasoningFragment{
		toolTurn("t1", "blocking", `{}`),
		generateResponseTurn("done"),
	}}
	a := newTestAgent(t, model, WithTools(blockingTool))

	go a.Call(context.Background(), schema.UserMsg("hi"))
	time.Sleep(20 * time.Millisecond)

	_, err := a.Call(context.Background(), schema.UserMsg("again"))
	if err == nil {
		t.Fatal("expected an error calling an already-running agent")
	}
	close(block)
}
