package hooks

import (
	"context"
	"log/slog"

	"github.com/voocel/mas/schema"
)

// LoggingHook emits structured log lines for the lifecycle events a
// caller would otherwise only see by inspecting memory after the
// fact, grounded on the corpus's Observer interface
// (OnLLMStart/OnLLMEnd/OnToolCall/OnToolResult/OnError) but
// retargeted at log/slog's structured-field logging instead of a
// bespoke callback struct, the way voocel-mas's own agent package logs
// (plain messages, upgraded here to attached fields).
type LoggingHook struct {
	log *slog.Logger
}

// NewLoggingHook builds a LoggingHook over log. Pass slog.Default()
// for the common case.
func NewLoggingHook(log *slog.Logger) *LoggingHook {
	return &LoggingHook{log: log}
}

func (h *LoggingHook) PreReasoning(ctx context.Context, agent AgentView, msgs []schema.Msg) ([]schema.Msg, error) {
	h.log.DebugContext(ctx, "reasoning turn starting",
		"agent_id", agent.ID(), "agent_name", agent.Name(), "prompt_messages", len(msgs))
	return msgs, nil
}

func (h *LoggingHook) PostReasoning(ctx context.Context, agent AgentView, msg schema.Msg) (schema.Msg, error) {
	h.log.DebugContext(ctx, "reasoning turn finished",
		"agent_id", agent.ID(), "tool_uses", len(msg.ToolUses()), "text_len", len(msg.Text()))
	return msg, nil
}

func (h *LoggingHook) PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	h.log.InfoContext(ctx, "tool call starting",
		"agent_id", agent.ID(), "tool", use.Name, "call_id", use.ID)
	return use, nil
}

func (h *LoggingHook) PostActing(ctx context.Context, agent AgentView, use schema.ToolUse, result schema.ToolResult) (schema.ToolResult, error) {
	level := slog.LevelInfo
	if result.IsError {
		level = slog.LevelWarn
	}
	h.log.Log(ctx, level, "tool call finished",
		"agent_id", agent.ID(), "tool", use.Name, "call_id", use.ID,
		"is_error", result.IsError, "interrupted", result.Interrupted)
	return result, nil
}

func (h *LoggingHook) OnError(ctx context.Context, agent AgentView, err error) {
	h.log.ErrorContext(ctx, "agent call error", "agent_id", agent.ID(), "error", err)
}

func (h *LoggingHook) PostCall(ctx context.Context, agent AgentView, final schema.Msg) (schema.Msg, error) {
	h.log.InfoContext(ctx, "agent call finished", "agent_id", agent.ID(), "response_len", len(final.Text()))
	return final, nil
}

var (
	_ PreReasoningHook  = (*LoggingHook)(nil)
	_ PostReasoningHook = (*LoggingHook)(nil)
	_ PreActingHook     = (*LoggingHook)(nil)
	_ PostActingHook    = (*LoggingHook)(nil)
	_ ErrorHook         = (*LoggingHook)(nil)
	_ PostCallHook      = (*LoggingHook)(nil)
)
