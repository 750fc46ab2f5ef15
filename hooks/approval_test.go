package hooks

import (
	"context"
	"strings"
	"testing"

	"github.com/voocel/mas/interrupt"
	"github.com/voocel/mas/schema"
)

func TestApprovalHookAllows(t *testing.T) {
	h := NewApprovalHook(ApproverFunc(func(ctx context.Context, agent AgentView, use schema.ToolUse) Decision {
		return Allow()
	}), interrupt.New())

	use, err := h.PreActing(context.Background(), fakeAgentView{id: "a1"}, schema.ToolUse{ID: "t1", Name: "shell"})
	if err != nil {
		t.Fatalf("PreActing: %v", err)
	}
	if use.Name != "shell" {
		t.Fatalf("got %q", use.Name)
	}
}

func TestApprovalHookDeniesAndSignalsInterrupt(t *testing.T) {
	controller := interrupt.New()
	h := NewApprovalHook(ApproverFunc(func(ctx context.Context, agent AgentView, use schema.ToolUse) Decision {
		return Deny("not today")
	}), controller)

	_, err := h.PreActing(context.Background(), fakeAgentView{id: "a1"}, schema.ToolUse{ID: "t1", Name: "shell"})
	if err == nil {
		t.Fatal("expected a denial error")
	}

	ic, ok := controller.Peek()
	if !ok {
		t.Fatal("expected the denial to raise a pending interrupt")
	}
	if ic.Source != interrupt.SourceTool {
		t.Fatalf("expected a TOOL-sourced interrupt, got %v", ic.Source)
	}
	if ic.UserMessage != "not today" {
		t.Fatalf("got %q", ic.UserMessage)
	}
	if len(ic.PendingToolCalls) != 1 || ic.PendingToolCalls[0].Name != "shell" {
		t.Fatalf("expected the denied tool call to be recorded as pending, got %+v", ic.PendingToolCalls)
	}

	recovery := interrupt.RecoveryMessage(ic)
	if !strings.Contains(recovery, "shell") || !strings.Contains(recovery, "not today") {
		t.Fatalf("expected the recovery message to name the tool and the reason, got %q", recovery)
	}
}
