// Package tools provides the tool registry and the catalog-backed tools agents call.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scttfrdmn/marketcrew/agenkit"
)

// ToolRegistry manages the tools available to a crew.
type ToolRegistry struct {
	tools map[string]agenkit.Tool
	order []string
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]agenkit.Tool),
	}
}

// Register adds a tool to the registry.
func (r *ToolRegistry) Register(tool agenkit.Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	if tool.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("tool '%s' is already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	r.order = append(r.order, tool.Name())
	return nil
}

// MustRegister is like Register but panics on error. Intended for static wiring.
func (r *ToolRegistry) MustRegister(tools ...agenkit.Tool) *ToolRegistry {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (agenkit.Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names in registration order.
func (r *ToolRegistry) List() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Select returns the named tools, failing on the first unknown name.
func (r *ToolRegistry) Select(names ...string) ([]agenkit.Tool, error) {
	selected := make([]agenkit.Tool, 0, len(names))
	for _, name := range names {
		tool, ok := r.tools[name]
		if !ok {
			available := r.List()
			sort.Strings(available)
			return nil, fmt.Errorf("tool '%s' not found (available: %s)", name, strings.Join(available, ", "))
		}
		selected = append(selected, tool)
	}
	return selected, nil
}

// Describe returns a formatted description of the given tools.
func Describe(tools []agenkit.Tool) string {
	if len(tools) == 0 {
		return "No tools available."
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, tool := range tools {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", tool.Name(), tool.Description()))
	}
	return sb.String()
}
