package hooks

import (
	"context"
	"fmt"

	"github.com/voocel/mas/coreerr"
	"github.com/voocel/mas/schema"
)

// Allowlist denies any tool call whose name is not in Allowed. An
// empty Allowed denies everything, matching the corpus's
// ToolAccessPolicy default-deny stance.
type Allowlist struct {
	Allowed map[string]struct{}
}

// NewAllowlist builds an Allowlist from a name list.
func NewAllowlist(names ...string) *Allowlist {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			allowed[n] = struct{}{}
		}
	}
	return &Allowlist{Allowed: allowed}
}

func (a *Allowlist) PreActing(ctx context.Context, agent AgentView, use schema.ToolUse) (schema.ToolUse, error) {
	if _, ok := a.Allowed[use.Name]; ok {
		return use, nil
	}
	return use, &coreerr.GuardrailError{
		Name:   "allowlist",
		Phase:  "input",
		Reason: fmt.Sprintf("tool not allowed: %s", use.Name),
	}
}

var _ PreActingHook = (*Allowlist)(nil)
