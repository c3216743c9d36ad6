package ai

import (
	"context"
	"encoding/json"
)

// Message roles as they travel to the model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the dialog history.
type Message struct {
	Role       string     `json:"role"`
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // set when the assistant requested tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // set when Role == "tool"
}

// ToolDef describes a callable operation offered to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema, type=object
}

// ToolCall is the model's request to invoke one tool.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Reply is the model output: plain text, a tool request, or both.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// AI — the external dialog intelligence. It knows nothing about the
// database or the scam domain; instructions carry everything it needs.
// A regenerate attempt is the same call with a corrective system message
// appended to history.
type AI interface {
	Generate(
		ctx context.Context,
		instructions string,
		history []Message,
		tools []ToolDef,
	) (*Reply, error)
}
