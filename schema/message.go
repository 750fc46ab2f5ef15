package schema

import (
	"strings"
	"time"
)

// Role identifies the participant role of a Msg.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleControl   Role = "control"
)

// Msg is an immutable structured message composed of an ordered,
// non-empty list of content blocks. Editing a Msg produces a new one;
// nothing in this package mutates a Msg's Content slice in place.
type Msg struct {
	Participant string
	Role        Role
	CreatedAt   time.Time
	Content     []ContentBlock
}

// NewMsg constructs a Msg with the given role and blocks, stamping the
// creation time with time.Now().
func NewMsg(participant string, role Role, blocks ...ContentBlock) Msg {
	return Msg{
		Participant: participant,
		Role:        role,
		CreatedAt:   time.Now(),
		Content:     blocks,
	}
}

// UserMsg creates a plain-text user message.
func UserMsg(text string) Msg {
	return NewMsg("", RoleUser, TextBlock(text))
}

// AssistantMsg creates a plain-text assistant message.
func AssistantMsg(text string) Msg {
	return NewMsg("", RoleAssistant, TextBlock(text))
}

// SystemMsg creates a system message.
func SystemMsg(text string) Msg {
	return NewMsg("", RoleSystem, TextBlock(text))
}

// WithParticipant returns a copy of m with the participant name set.
func (m Msg) WithParticipant(name string) Msg {
	m.Participant = name
	return m
}

// Clone returns a copy of m with its own Content slice; the blocks'
// pointer payloads (ToolUse, ToolResult, Media, Control) are shared with
// m. Msg values are otherwise treated as immutable once appended to
// memory.
func (m Msg) Clone() Msg {
	blocks := make([]ContentBlock, len(m.Content))
	copy(blocks, m.Content)
	return Msg{
		Participant: m.Participant,
		Role:        m.Role,
		CreatedAt:   m.CreatedAt,
		Content:     blocks,
	}
}

// Text concatenates all TextBlock content in emission order.
func (m Msg) Text() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if b.Type == ContentText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// Thinking concatenates all ThinkingBlock content in emission order.
func (m Msg) Thinking() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if b.Type == ContentThinking {
			sb.WriteString(b.Thinking)
		}
	}
	return sb.String()
}

// ToolUses returns every ToolUseBlock in m, in emission order.
func (m Msg) ToolUses() []ToolUse {
	var out []ToolUse
	for _, b := range m.Content {
		if b.Type == ContentToolUse && b.ToolUse != nil {
			out = append(out, *b.ToolUse)
		}
	}
	return out
}

// HasToolUses reports whether m carries any ToolUseBlock.
func (m Msg) HasToolUses() bool {
	for _, b := range m.Content {
		if b.Type == ContentToolUse {
			return true
		}
	}
	return false
}

// ToolResults returns every ToolResultBlock in m, in emission order.
func (m Msg) ToolResults() []ToolResult {
	var out []ToolResult
	for _, b := range m.Content {
		if b.Type == ContentToolResult && b.ToolResult != nil {
			out = append(out, *b.ToolResult)
		}
	}
	return out
}

// IsEmpty reports whether m carries no content blocks.
func (m Msg) IsEmpty() bool {
	return len(m.Content) == 0
}
