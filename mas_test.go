package mas

import (
	"context"
	"testing"

	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/schema"
	"github.com/voocel/mas/tools"
)

type oneShotModel struct{}

func (oneShotModel) Stream(ctx context.Context, prompt []schema.Msg, toolSchemas []llm.ToolSchema, opts llm.Options) (<-chan llm.ReasoningFragment, error) {
	ch := make(chan llm.ReasoningFragment, 2)
	ch <- llm.ReasoningFragment{
		Type:              llm.FragmentToolUse,
		ToolUseID:         "final",
		ToolUseName:       tools.GenerateResponseName,
		ToolUseInputDelta: `{"response":"hi from preset"}`,
	}
	ch <- llm.ReasoningFragment{Type: llm.FragmentFinish, FinishReason: "tool_use"}
	close(ch)
	return ch, nil
}

func TestQueryReturnsFinalResponse(t *testing.T) {
	out, err := Query(context.Background(), oneShotModel{}, "hello")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if out.Text() != "hi from preset" {
		t.Fatalf("got %q", out.Text())
	}
}

func TestQueryRejectsNilModel(t *testing.T) {
	if _, err := Query(context.Background(), nil, "hello"); err == nil {
		t.Fatal("expected an error for a nil model")
	}
}

func TestClientSendWithPreset(t *testing.T) {
	client, err := NewClient(oneShotModel{}, WithPreset("researcher"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if out.Text() != "hi from preset" {
		t.Fatalf("got %q", out.Text())
	}
}

func TestPresetFallback(t *testing.T) {
	if got := Preset("pirate"); got != "You are a pirate." {
		t.Fatalf("got %q", got)
	}
}
