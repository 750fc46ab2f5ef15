package hooks

import (
	"context"

	"github.com/voocel/mas/coreerr"
	"github.com/voocel/mas/interrupt"
	"github.com/voocel/mas/schema"
)

// Decision is an approver's verdict on a proposed tool call, grounded
// on the corpus's HITLDecision (Allow/Interrupt) human-in-the-loop
// gate.
type Decision struct {
	Allow  bool
	Reason string
}

func Allow() Decision            { return Decision{Allow: true} }
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Approver decides whether a tool call may proceed.
type Approver interface {
	ApproveTool(ctx context.Context, agent AgentView, use schema.ToolUse) Decision
}

// ApproverFunc adapts a plain function to Approver.
type ApproverFunc func(ctx context.Context, agent AgentView, use schema.ToolUse) Decision

func (f ApproverFunc) ApproveTool(ctx context.Context, agent AgentView, use schema.ToolUse) Decision {
	return f(ctx, agent, use)
}

// ApprovalHook gates tool execution on an Approver, raising a
// TOOL-sourced interrupt (instead of silently failing the call) when
// denied, since a human-in-the-loop rejection is exactly the "tool
// implementation invokes the interrupter" path spec §4.5 describes.
type ApprovalHook struct {
	Approver   Approver
	interrupts *interrupt.Controller
}

// NewApprovalHook binds an Approver to the Controller the owning
// agent call uses for interrupt signaling.
func NewApprovalHook(approver Approver, controller *interrupt.Controller) *ApprovalHook {
	return &ApprovalHook{Approver: approver, interrupts: controller}
}

func (h *ApprovalHook) PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	d := h.Approver.ApproveTool(ctx, agent, use)
	if d.Allow {
		return use, nil
	}
	if h.interrupts != nil {
		h.interrupts.Signal(interrupt.Context{
			Source:           interrupt.SourceTool,
			UserMessage:      d.Reason,
			PendingToolCalls: []schema.ToolUse{use},
		})
	}
	return use, &coreerr.GuardrailError{Name: "approval", Phase: "input", Reason: d.Reason}
}

var _ PreActingHook = (*ApprovalHook)(nil)
