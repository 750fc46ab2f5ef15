package tools

import (
	"context"
	"encoding/json"

	"github.com/voocel/mas/schema"
)

// GenerateResponseName is the reserved tool name that terminates a
// ReAct loop. The Registry does not reject other tools under this name:
// registering one replaces the entry, and the loop treats whatever is
// registered here as the terminal tool.
const GenerateResponseName = "generate_response"

// generateResponse is the built-in, reserved, zero-I/O terminal tool.
// It performs no work: its invocation simply echoes the model's
// structured input back as the terminal result, letting the ReAct loop
// recognise the call by name and end the turn.
type generateResponse struct {
	paramSchema map[string]any
}

// NewGenerateResponse builds the generate_response entry. fields names
// the structured-extraction properties the caller wants the model to
// fill in, in addition to the always-present "response" text field.
func NewGenerateResponse(fields ...schema.Prop) Tool {
	props := append([]schema.Prop{
		schema.Property("response", schema.String("The final, user-visible response text.")).Required(),
	}, fields...)
	return &generateResponse{paramSchema: schema.Object(props...)}
}

func (g *generateResponse) Name() string           { return GenerateResponseName }
func (g *generateResponse) Description() string    { return "Produce the final response and end the turn." }
func (g *generateResponse) Schema() map[string]any { return g.paramSchema }
func (g *generateResponse) Group() string          { return "" }
func (g *generateResponse) Concurrent() bool       { return false }

func (g *generateResponse) Invoke(ctx context.Context, call schema.ToolUse) (<-chan schema.ToolResult, error) {
	ch := make(chan schema.ToolResult, 1)
	text, _ := call.Input["response"].(string)
	if text == "" {
		if raw, err := json.Marshal(call.Input); err == nil {
			text = string(raw)
		}
	}
	ch <- schema.ToolResult{
		ID:     call.ID,
		Name:   call.Name,
		Output: []schema.ContentBlock{schema.TextBlock(text)},
	}
	close(ch)
	return ch, nil
}

var _ Tool = (*generateResponse)(nil)

// IsGenerateResponse reports whether name is the reserved terminal
// tool name, the signal the ReAct loop uses to end a turn.
func IsGenerateResponse(name string) bool { return name == GenerateResponseName }
