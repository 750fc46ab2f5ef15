package interrupt

import (
	"fmt"

	"github.com/voocel/mas/schema"
)

// SyntheticResults builds the interrupted ToolResultBlock for every
// enumerated but not-yet-completed tool-use, per spec step 1 of
// reconciliation.
func SyntheticResults(pending []schema.ToolUse) []schema.ToolResult {
	out := make([]schema.ToolResult, len(pending))
	for i, use := range pending {
		out[i] = schema.InterruptedToolResult(use.ID, use.Name)
	}
	return out
}

// RecoveryMessage renders the final recovery message text appended
// after reconciliation, per spec step 3: its wording depends on the
// interrupt's source.
func RecoveryMessage(ic Context) string {
	switch ic.Source {
	case SourceUser:
		if ic.UserMessage != "" {
			return ic.UserMessage
		}
		return "Interrupted by user"
	case SourceTool:
		name := "unknown tool"
		if len(ic.PendingToolCalls) > 0 {
			name = ic.PendingToolCalls[0].Name
		}
		return fmt.Sprintf("Interrupted by tool %q: %s", name, ic.UserMessage)
	case SourceSystem:
		return fmt.Sprintf("Interrupted: %s", ic.UserMessage)
	default:
		return "Interrupted"
	}
}
