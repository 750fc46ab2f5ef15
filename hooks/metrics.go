package hooks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voocel/mas/schema"
)

// MetricsHook publishes Prometheus counters for the ReAct loop's
// externally observable events: reasoning turns, tool calls/errors,
// and surfaced errors. Grounded on the corpus's counter-style
// Observer, generalized from atomic counters to prometheus.CounterVec
// so a caller can scrape them alongside its other service metrics.
type MetricsHook struct {
	reasoningTurns *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
	toolErrors     *prometheus.CounterVec
	errors         *prometheus.CounterVec
}

// NewMetricsHook registers its counters against reg. Pass
// prometheus.DefaultRegisterer to publish on the default /metrics
// endpoint, or a scoped registry in tests.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	h := &MetricsHook{
		reasoningTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mas",
			Subsystem: "agent",
			Name:      "reasoning_turns_total",
			Help:      "Reasoning turns completed by an agent call.",
		}, []string{"agent"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mas",
			Subsystem: "agent",
			Name:      "tool_calls_total",
			Help:      "Tool invocations dispatched by an agent call.",
		}, []string{"agent", "tool"}),
		toolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mas",
			Subsystem: "agent",
			Name:      "tool_errors_total",
			Help:      "Tool invocations that terminated with isError set.",
		}, []string{"agent", "tool"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mas",
			Subsystem: "agent",
			Name:      "errors_total",
			Help:      "Errors surfaced to onError.",
		}, []string{"agent"}),
	}
	reg.MustRegister(h.reasoningTurns, h.toolCalls, h.toolErrors, h.errors)
	return h
}

func (h *MetricsHook) PostReasoning(ctx context.Context, agent AgentView, msg schema.Msg) (schema.Msg, error) {
	h.reasoningTurns.WithLabelValues(agent.ID()).Inc()
	return msg, nil
}

func (h *MetricsHook) PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	h.toolCalls.WithLabelValues(agent.ID(), use.Name).Inc()
	return use, nil
}

func (h *MetricsHook) PostActing(ctx context.Context, agent AgentView, use schema.ToolUse, result schema.ToolResult) (schema.ToolResult, error) {
	if result.IsError {
		h.toolErrors.WithLabelValues(agent.ID(), use.Name).Inc()
	}
	return result, nil
}

func (h *MetricsHook) OnError(ctx context.Context, agent AgentView, err error) {
	h.errors.WithLabelValues(agent.ID()).Inc()
}

var (
	_ PostReasoningHook = (*MetricsHook)(nil)
	_ PreActingHook     = (*MetricsHook)(nil)
	_ PostActingHook    = (*MetricsHook)(nil)
	_ ErrorHook         = (*MetricsHook)(nil)
)
