package llm

import "testing"

func fragments(frags ...ReasoningFragment) <-chan ReasoningFragment {
	ch := make(chan ReasoningFragment, len(frags))
	for _, f := range frags {
		ch <- f
	}
	close(ch)
	return ch
}

func TestReassembleConcatenatesTextAcrossFragments(t *testing.T) {
	msg, reason, err := Reassemble(fragments(
		ReasoningFragment{Type: FragmentText, TextDelta: "hel"},
		ReasoningFragment{Type: FragmentText, TextDelta: "lo"},
		ReasoningFragment{Type: FragmentFinish, FinishReason: "stop"},
	))
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if reason != "stop" {
		t.Fatalf("got finish reason %q", reason)
	}
	if msg.Text() != "hello" {
		t.Fatalf("got %q", msg.Text())
	}
}

func TestReassembleAccumulatesToolUseByID(t *testing.T) {
	msg, _, err := Reassemble(fragments(
		ReasoningFragment{Type: FragmentToolUse, ToolUseID: "t1", ToolUseName: "search", ToolUseInputDelta: `{"q":`},
		ReasoningFragment{Type: FragmentToolUse, ToolUseID: "t1", ToolUseInputDelta: `"go"}`},
		ReasoningFragment{Type: FragmentFinish, FinishReason: "tool_use"},
	))
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	uses := msg.ToolUses()
	if len(uses) != 1 || uses[0].ID != "t1" || uses[0].Name != "search" {
		t.Fatalf("got %+v", uses)
	}
	if uses[0].Input["q"] != "go" {
		t.Fatalf("got input %+v", uses[0].Input)
	}
}

func TestReassembleSurfacesMalformedToolInput(t *testing.T) {
	_, _, err := Reassemble(fragments(
		ReasoningFragment{Type: FragmentToolUse, ToolUseID: "t1", ToolUseName: "search", ToolUseInputDelta: `not json`},
		ReasoningFragment{Type: FragmentFinish, FinishReason: "tool_use"},
	))
	if err == nil {
		t.Fatal("expected a parse error for malformed tool input")
	}
}

func TestReassembleStreamErrorTakesPrecedenceOverParseError(t *testing.T) {
	streamErr := &ModelStubError{}
	_, _, err := Reassemble(fragments(
		ReasoningFragment{Type: FragmentToolUse, ToolUseID: "t1", ToolUseInputDelta: `not json`},
		ReasoningFragment{Type: FragmentFinish, Err: streamErr},
	))
	if err != streamErr {
		t.Fatalf("expected the stream's own error to win, got %v", err)
	}
}

// ModelStubError is a trivial error type so tests can assert identity
// (err != streamErr) rather than string matching.
type ModelStubError struct{}

func (*ModelStubError) Error() string { return "stub stream error" }

func TestAccumulatorCumulativeReflectsEachFragmentInOrder(t *testing.T) {
	acc := NewAccumulator()
	acc.Apply(ReasoningFragment{Type: FragmentText, TextDelta: "a"})
	if got := acc.Cumulative().Text(); got != "a" {
		t.Fatalf("got %q", got)
	}
	acc.Apply(ReasoningFragment{Type: FragmentText, TextDelta: "b"})
	if got := acc.Cumulative().Text(); got != "ab" {
		t.Fatalf("got %q", got)
	}
}

func TestAccumulatorApplyReturnsPerFragmentDelta(t *testing.T) {
	acc := NewAccumulator()
	acc.Apply(ReasoningFragment{Type: FragmentText, TextDelta: "a"})
	delta := acc.Apply(ReasoningFragment{Type: FragmentText, TextDelta: "b"})
	if delta.Text() != "b" {
		t.Fatalf("expected the delta to carry only the new fragment, got %q", delta.Text())
	}
}
