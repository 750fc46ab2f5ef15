package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/voocel/mas/schema"
)

type fakeStage struct {
	name    string
	fn      func(schema.Msg) (schema.Msg, error)
	calls   int
	lastIn  schema.Msg
}

func (f *fakeStage) Call(ctx context.Context, input schema.Msg) (schema.Msg, error) {
	f.calls++
	f.lastIn = input
	return f.fn(input)
}

func upper(suffix string) func(schema.Msg) (schema.Msg, error) {
	return func(m schema.Msg) (schema.Msg, error) {
		return schema.UserMsg(m.Text() + suffix), nil
	}
}

func TestSequentialPipelineThreadsOutput(t *testing.T) {
	s1 := &fakeStage{fn: upper("-a")}
	s2 := &fakeStage{fn: upper("-b")}
	p := NewSequentialPipeline(s1, s2)

	out, err := p.Call(context.Background(), schema.UserMsg("in"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Text(); got != "in-a-b" {
		t.Fatalf("got %q", got)
	}
	if s2.lastIn.Text() != "in-a" {
		t.Fatalf("stage 2 did not see stage 1's output, got %q", s2.lastIn.Text())
	}
}

func TestSequentialPipelineEmptyReturnsInputUnchanged(t *testing.T) {
	p := NewSequentialPipeline()
	in := schema.UserMsg("unchanged")
	out, err := p.Call(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text() != "unchanged" {
		t.Fatalf("got %q", out.Text())
	}
}

func TestSequentialPipelineAbortsOnFailure(t *testing.T) {
	s1 := &fakeStage{fn: func(m schema.Msg) (schema.Msg, error) { return schema.Msg{}, fmt.Errorf("boom") }}
	s2 := &fakeStage{fn: upper("-b")}
	p := NewSequentialPipeline(s1, s2)

	_, err := p.Call(context.Background(), schema.UserMsg("in"))
	if err == nil {
		t.Fatal("expected error")
	}
	if s2.calls != 0 {
		t.Fatalf("stage 2 should not have run, calls=%d", s2.calls)
	}
}

func TestFanoutPipelineReturnsStageOrder(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		s1 := &fakeStage{fn: upper("-1")}
		s2 := &fakeStage{fn: upper("-2")}
		s3 := &fakeStage{fn: upper("-3")}
		p := NewFanoutPipeline(concurrent, s1, s2, s3)

		out, err := p.Call(context.Background(), schema.UserMsg("in"))
		if err != nil {
			t.Fatalf("concurrent=%v: unexpected error: %v", concurrent, err)
		}
		want := []string{"in-1", "in-2", "in-3"}
		for i, w := range want {
			if out[i].Text() != w {
				t.Fatalf("concurrent=%v: index %d: got %q, want %q", concurrent, i, out[i].Text(), w)
			}
		}
	}
}

func TestFanoutPipelineFirstErrorByStageOrder(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		s1 := &fakeStage{fn: upper("-1")}
		s2 := &fakeStage{fn: func(m schema.Msg) (schema.Msg, error) { return schema.Msg{}, fmt.Errorf("stage2 failed") }}
		s3 := &fakeStage{fn: func(m schema.Msg) (schema.Msg, error) { return schema.Msg{}, fmt.Errorf("stage3 failed") }}
		p := NewFanoutPipeline(concurrent, s1, s2, s3)

		_, err := p.Call(context.Background(), schema.UserMsg("in"))
		if err == nil {
			t.Fatalf("concurrent=%v: expected error", concurrent)
		}
		if got := err.Error(); got != "pipeline: stage 1: stage2 failed" {
			t.Fatalf("concurrent=%v: got %q", concurrent, got)
		}
		if s1.calls != 1 {
			t.Fatalf("concurrent=%v: stage 1 should have run, calls=%d", concurrent, s1.calls)
		}
		if s3.calls != 1 {
			t.Fatalf("concurrent=%v: stage 3 should still run even though an earlier stage failed, calls=%d", concurrent, s3.calls)
		}
	}
}
