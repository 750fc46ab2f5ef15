package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/voocel/mas/coreerr"
	"github.com/voocel/mas/schema"
)

type fakeAgentView struct{ id, name string }

func (f fakeAgentView) ID() string   { return f.id }
func (f fakeAgentView) Name() string { return f.name }

func TestAllowlistAllowsListedTool(t *testing.T) {
	a := NewAllowlist("search", "fetch")
	use, err := a.PreActing(context.Background(), fakeAgentView{id: "a1"}, schema.ToolUse{Name: "search"})
	if err != nil {
		t.Fatalf("PreActing: %v", err)
	}
	if use.Name != "search" {
		t.Fatalf("got %q", use.Name)
	}
}

func TestAllowlistDeniesUnlistedTool(t *testing.T) {
	a := NewAllowlist("search")
	_, err := a.PreActing(context.Background(), fakeAgentView{id: "a1"}, schema.ToolUse{Name: "shell"})
	if err == nil {
		t.Fatal("expected an error for an unlisted tool")
	}
	var guardErr *coreerr.GuardrailError
	if !errors.As(err, &guardErr) {
		t.Fatalf("expected a *coreerr.GuardrailError, got %T", err)
	}
}

func TestAllowlistEmptyDeniesEverything(t *testing.T) {
	a := NewAllowlist()
	_, err := a.PreActing(context.Background(), fakeAgentView{id: "a1"}, schema.ToolUse{Name: "anything"})
	if err == nil {
		t.Fatal("expected an empty allowlist to deny every tool")
	}
}
