// Package agenkit provides the core contracts shared by tools, models and crews.
package agenkit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message roles understood by the model adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleAgent     = "agent"
)

// Message represents a message exchanged with a language model.
type Message struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewMessage creates a new message with the given role and content.
func NewMessage(role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		Metadata:  make(map[string]interface{}),
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata adds metadata to the message and returns the message for chaining.
func (m *Message) WithMetadata(key string, value interface{}) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
	return m
}

// Validate checks the role and bounds the content size.
func (m *Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleAgent:
	case "":
		return fmt.Errorf("message role cannot be empty")
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}

	const maxContentSize = 1024 * 1024
	if len(m.Content) > maxContentSize {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d bytes)", maxContentSize, len(m.Content))
	}
	return nil
}

// ToolResult represents the outcome of a tool invocation.
//
// Tools never return Go errors to the model: a failure is carried in Error and
// rendered as a descriptive text payload so the caller still receives
// well-formed output.
type ToolResult struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// NewToolResult creates a successful tool result.
func NewToolResult(data interface{}) *ToolResult {
	return &ToolResult{
		Success:  true,
		Data:     data,
		Metadata: make(map[string]interface{}),
	}
}

// NewToolError creates a tool result representing an error.
func NewToolError(err string) *ToolResult {
	return &ToolResult{
		Success:  false,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the tool result and returns it for chaining.
func (t *ToolResult) WithMetadata(key string, value interface{}) *ToolResult {
	t.Metadata[key] = value
	return t
}

// String renders the result as the text payload handed back to a model.
// String data is passed through, anything else is JSON encoded.
func (t *ToolResult) String() string {
	if !t.Success {
		return t.Error
	}
	switch v := t.Data.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	}
	data, err := json.Marshal(t.Data)
	if err != nil {
		return fmt.Sprintf("%v", t.Data)
	}
	return string(data)
}

// Tool represents an executable capability that agents can use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Invoke runs the tool on the raw input text chosen by the model.
	Invoke(ctx context.Context, input string) *ToolResult
}
