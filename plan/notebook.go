// Package plan implements an optional attachable planning component: a
// small notebook of subtasks the model can create and update through
// dedicated tools, surfaced back to the model on every reasoning turn
// via a preReasoning hook that appends the current plan state to the
// prompt as a trailing system message.
package plan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/voocel/mas/hooks"
	"github.com/voocel/mas/schema"
	"github.com/voocel/mas/tools"
)

// Status is a subtask's place in its NEW -> IN_PROGRESS -> DONE |
// ABANDONED lifecycle.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusAbandoned  Status = "ABANDONED"
)

// Subtask is one entry in the notebook.
type Subtask struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Notebook tracks subtasks for one agent. It is safe for concurrent
// use since its tools may be invoked from a parallel tool batch.
type Notebook struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]*Subtask
	order   []int
}

// New builds an empty Notebook.
func New() *Notebook {
	return &Notebook{subs: make(map[int]*Subtask), nextID: 1}
}

func (n *Notebook) create(title string) *Subtask {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := &Subtask{ID: n.nextID, Title: title, Status: StatusNew}
	n.subs[s.ID] = s
	n.order = append(n.order, s.ID)
	n.nextID++
	return s
}

func (n *Notebook) transition(id int, to Status, note string) (*Subtask, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.subs[id]
	if !ok {
		return nil, fmt.Errorf("plan: no subtask #%d", id)
	}
	if !validTransition(s.Status, to) {
		return nil, fmt.Errorf("plan: subtask #%d cannot move from %s to %s", id, s.Status, to)
	}
	s.Status = to
	if note != "" {
		s.Note = note
	}
	return s, nil
}

func validTransition(from, to Status) bool {
	switch from {
	case StatusNew:
		return to == StatusInProgress || to == StatusAbandoned
	case StatusInProgress:
		return to == StatusDone || to == StatusAbandoned
	default:
		return false
	}
}

// List returns every subtask, ordered by creation.
func (n *Notebook) List() []Subtask {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Subtask, 0, len(n.order))
	ids := append([]int(nil), n.order...)
	sort.Ints(ids)
	for _, id := range ids {
		out = append(out, *n.subs[id])
	}
	return out
}

// Render renders the current plan state as the text of the system
// message PreReasoning appends to the prompt. An empty notebook renders
// to "", so attaching a
// Notebook with nothing in it is a no-op on the prompt.
func (n *Notebook) Render() string {
	subs := n.List()
	if len(subs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Current plan:\n")
	for _, s := range subs {
		fmt.Fprintf(&sb, "- [%s] #%d %s", s.Status, s.ID, s.Title)
		if s.Note != "" {
			fmt.Fprintf(&sb, " (%s)", s.Note)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Tools builds the five fixed notebook tools (create_subtask,
// start_subtask, mark_complete, abandon_subtask, list_subtasks), each
// bound to this Notebook.
func (n *Notebook) Tools() []tools.Tool {
	return []tools.Tool{n.createSubtaskTool(), n.markInProgressTool(), n.markCompleteTool(), n.abandonTool(), n.listTool()}
}

func (n *Notebook) createSubtaskTool() tools.Tool {
	return &tools.Func{
		ToolName:        "create_subtask",
		ToolDescription: "Add a new subtask to the plan, in the NEW state.",
		ToolSchema: schema.Object(
			schema.Property("title", schema.String("A short, concrete description of the subtask.")).Required(),
		),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			title, _ := call.Input["title"].(string)
			if strings.TrimSpace(title) == "" {
				return schema.ErrorToolResult(call.ID, call.Name, "title is required"), nil
			}
			s := n.create(title)
			return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock(fmt.Sprintf("created subtask #%d", s.ID))}}, nil
		},
	}
}

func (n *Notebook) markInProgressTool() tools.Tool {
	return &tools.Func{
		ToolName:        "start_subtask",
		ToolDescription: "Move a subtask from NEW to IN_PROGRESS.",
		ToolSchema: schema.Object(
			schema.Property("id", schema.Int("The subtask id.")).Required(),
		),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			return n.applyTransition(call, StatusInProgress)
		},
	}
}

func (n *Notebook) markCompleteTool() tools.Tool {
	return &tools.Func{
		ToolName:        "mark_complete",
		ToolDescription: "Mark a subtask DONE.",
		ToolSchema: schema.Object(
			schema.Property("id", schema.Int("The subtask id.")).Required(),
			schema.Property("note", schema.String("An optional completion note.")),
		),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			return n.applyTransition(call, StatusDone)
		},
	}
}

func (n *Notebook) abandonTool() tools.Tool {
	return &tools.Func{
		ToolName:        "abandon_subtask",
		ToolDescription: "Mark a subtask ABANDONED, with a reason.",
		ToolSchema: schema.Object(
			schema.Property("id", schema.Int("The subtask id.")).Required(),
			schema.Property("note", schema.String("Why the subtask was abandoned.")),
		),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			return n.applyTransition(call, StatusAbandoned)
		},
	}
}

func (n *Notebook) applyTransition(call schema.ToolUse, to Status) (schema.ToolResult, error) {
	idf, ok := call.Input["id"].(float64)
	if !ok {
		return schema.ErrorToolResult(call.ID, call.Name, "id is required"), nil
	}
	note, _ := call.Input["note"].(string)
	s, err := n.transition(int(idf), to, note)
	if err != nil {
		return schema.ErrorToolResult(call.ID, call.Name, err.Error()), nil
	}
	return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock(fmt.Sprintf("subtask #%d is now %s", s.ID, s.Status))}}, nil
}

func (n *Notebook) listTool() tools.Tool {
	return &tools.Func{
		ToolName:        "list_subtasks",
		ToolDescription: "List every subtask and its status.",
		ToolSchema:      schema.Object(),
		Fn: func(ctx context.Context, call schema.ToolUse) (schema.ToolResult, error) {
			rendered := n.Render()
			if rendered == "" {
				rendered = "No subtasks yet."
			}
			return schema.ToolResult{Output: []schema.ContentBlock{schema.TextBlock(rendered)}}, nil
		},
	}
}

// PreReasoning appends the current plan state to the prompt sent for
// this turn, without mutating memory.
func (n *Notebook) PreReasoning(ctx context.Context, agent hooks.AgentView, msgs []schema.Msg) ([]schema.Msg, error) {
	block := n.Render()
	if block == "" {
		return msgs, nil
	}
	out := make([]schema.Msg, 0, len(msgs)+1)
	out = append(out, msgs...)
	out = append(out, schema.SystemMsg(block))
	return out, nil
}

var _ hooks.PreReasoningHook = (*Notebook)(nil)

// Attacher is the subset of *agent.Agent a Notebook needs to install
// and remove its tools and hook.
type Attacher interface {
	Toolkit() *tools.Registry
	// AppendHook installs a hook at the end of the pipeline, run after
	// any caller-supplied hooks.
	AppendHook(h hooks.Hook)
	// RemoveHook uninstalls a previously appended hook.
	RemoveHook(h hooks.Hook)
}

// Attach registers the notebook's tools and preReasoning hook onto a,
// in one step so a caller never observes the tools present without the
// hook (or vice versa) between two of its own calls. Callers that need
// to add more hooks should do so before attaching a Notebook, since
// per the resolved design its hook always registers last.
func Attach(a Attacher, n *Notebook) {
	for _, t := range n.Tools() {
		_ = a.Toolkit().RegisterToolEntry(t)
	}
	a.AppendHook(n)
}

// Detach removes both the notebook's tools and its preReasoning hook
// from a, atomically: leaving the hook installed after its tools are
// gone would keep injecting the last rendered plan state into every
// subsequent reasoning turn for as long as the notebook has any
// non-empty subtasks.
func Detach(a Attacher, n *Notebook) {
	for _, t := range n.Tools() {
		a.Toolkit().Deregister(t.Name())
	}
	a.RemoveHook(n)
}
