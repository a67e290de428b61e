package agenkit

import (
	"strings"
	"testing"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		wantErr bool
	}{
		{"user", NewMessage(RoleUser, "hi"), false},
		{"system", NewMessage(RoleSystem, "be terse"), false},
		{"empty role", &Message{Content: "x"}, true},
		{"unknown role", NewMessage("robot", "x"), true},
		{"oversized", NewMessage(RoleUser, strings.Repeat("a", 1024*1024+1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageWithMetadataOnNilMap(t *testing.T) {
	m := &Message{Role: RoleUser}
	m.WithMetadata("k", 1)
	if m.Metadata["k"] != 1 {
		t.Errorf("expected metadata to be set, got %v", m.Metadata)
	}
}

func TestToolResultString(t *testing.T) {
	tests := []struct {
		name   string
		result *ToolResult
		want   string
	}{
		{"string data", NewToolResult(`{"a":1}`), `{"a":1}`},
		{"bytes data", NewToolResult([]byte("raw")), "raw"},
		{"struct data", NewToolResult(map[string]int{"b": 2}), `{"b":2}`},
		{"nil data", NewToolResult(nil), ""},
		{"error", NewToolError("Error fetching product data: boom"), "Error fetching product data: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
