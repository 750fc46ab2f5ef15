package hooks

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voocel/mas/schema"
)

// TracingHook opens an OpenTelemetry span for each reasoning turn and
// each tool invocation, grounded on the corpus's own Tracer contract
// (StartSpan(ctx, name, attrs) -> (ctx, endFunc)) but backed by a real
// trace.Tracer instead of the teacher's NoopTracer/custom
// implementations. Since no hook phase returns a derived context, a
// span's start and end live on the same goroutine-safe map rather
// than being threaded through ctx: a reasoning span is keyed by the
// agent's ID (one reasoning turn in flight per agent, enforced by the
// agent's own in-flight guard) and a tool span by the tool-use ID
// (unique within a turn).
type TracingHook struct {
	tracer trace.Tracer

	mu          sync.Mutex
	reasonSpans map[string]trace.Span
	toolSpans   map[string]trace.Span
}

// NewTracingHook builds a TracingHook from an OpenTelemetry tracer,
// e.g. otel.Tracer("github.com/voocel/mas/agent").
func NewTracingHook(tracer trace.Tracer) *TracingHook {
	return &TracingHook{
		tracer:      tracer,
		reasonSpans: make(map[string]trace.Span),
		toolSpans:   make(map[string]trace.Span),
	}
}

func (h *TracingHook) PreReasoning(ctx context.Context, agent AgentView, msgs []schema.Msg) ([]schema.Msg, error) {
	_, span := h.tracer.Start(ctx, "agent.reasoning",
		trace.WithAttributes(
			attribute.String("agent.id", agent.ID()),
			attribute.String("agent.name", agent.Name()),
			attribute.Int("reasoning.prompt_messages", len(msgs)),
		),
	)
	h.mu.Lock()
	h.reasonSpans[agent.ID()] = span
	h.mu.Unlock()
	return msgs, nil
}

func (h *TracingHook) PostReasoning(ctx context.Context, agent AgentView, msg schema.Msg) (schema.Msg, error) {
	h.endReasonSpan(agent.ID(), nil)
	return msg, nil
}

func (h *TracingHook) PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	_, span := h.tracer.Start(ctx, "agent.tool",
		trace.WithAttributes(
			attribute.String("agent.id", agent.ID()),
			attribute.String("tool.name", use.Name),
			attribute.String("tool.call_id", use.ID),
		),
	)
	h.mu.Lock()
	h.toolSpans[use.ID] = span
	h.mu.Unlock()
	return use, nil
}

func (h *TracingHook) PostActing(ctx context.Context, agent AgentView, use schema.ToolUse, result schema.ToolResult) (schema.ToolResult, error) {
	h.mu.Lock()
	span, ok := h.toolSpans[use.ID]
	delete(h.toolSpans, use.ID)
	h.mu.Unlock()
	if ok {
		span.SetAttributes(
			attribute.Bool("tool.is_error", result.IsError),
			attribute.Bool("tool.interrupted", result.Interrupted),
		)
		if result.IsError {
			span.SetStatus(codes.Error, result.Text())
		}
		span.End()
	}
	return result, nil
}

// OnError marks the in-flight reasoning span (if any) as failed. Tool
// spans are closed from PostActing regardless of outcome, so only the
// reasoning span can still be open when an error reaches here.
func (h *TracingHook) OnError(ctx context.Context, agent AgentView, err error) {
	h.endReasonSpan(agent.ID(), err)
}

func (h *TracingHook) endReasonSpan(agentID string, err error) {
	h.mu.Lock()
	span, ok := h.reasonSpans[agentID]
	delete(h.reasonSpans, agentID)
	h.mu.Unlock()
	if !ok {
		return
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var (
	_ PreReasoningHook  = (*TracingHook)(nil)
	_ PostReasoningHook = (*TracingHook)(nil)
	_ PreActingHook     = (*TracingHook)(nil)
	_ PostActingHook    = (*TracingHook)(nil)
	_ ErrorHook         = (*TracingHook)(nil)
)
