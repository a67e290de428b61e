// Package crew runs role-playing agents through a fixed sequence of tasks.
//
// Agents and tasks are plain data. A Crew validates the task order and hands
// each task to an Executor, feeding earlier outputs forward as context.
package crew

import (
	"fmt"
	"strings"

	"github.com/scttfrdmn/marketcrew/agenkit"
	"github.com/scttfrdmn/marketcrew/tools"
)

// Agent is a role description plus the tools the role may call.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
	Tools     []agenkit.Tool
}

// Validate checks that the agent can be prompted.
func (a *Agent) Validate() error {
	if a == nil {
		return fmt.Errorf("agent is required")
	}
	if strings.TrimSpace(a.Role) == "" {
		return fmt.Errorf("agent role cannot be empty")
	}
	if strings.TrimSpace(a.Goal) == "" {
		return fmt.Errorf("agent '%s' has no goal", a.Role)
	}
	seen := make(map[string]bool, len(a.Tools))
	for _, tool := range a.Tools {
		if tool == nil {
			return fmt.Errorf("agent '%s' has a nil tool", a.Role)
		}
		if seen[tool.Name()] {
			return fmt.Errorf("agent '%s' lists tool '%s' twice", a.Role, tool.Name())
		}
		seen[tool.Name()] = true
	}
	return nil
}

// Tool returns the agent's tool with the given name. Matching ignores case and
// surrounding whitespace.
func (a *Agent) Tool(name string) (agenkit.Tool, bool) {
	name = strings.TrimSpace(name)
	for _, tool := range a.Tools {
		if strings.EqualFold(tool.Name(), name) {
			return tool, true
		}
	}
	return nil, false
}

// ToolNames returns the names of the agent's tools in declared order.
func (a *Agent) ToolNames() []string {
	names := make([]string, 0, len(a.Tools))
	for _, tool := range a.Tools {
		names = append(names, tool.Name())
	}
	return names
}

// SystemPrompt renders the role, backstory and goal.
func (a *Agent) SystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\nYour personal goal is: %s", a.Role, strings.TrimSpace(a.Backstory), a.Goal)
	if len(a.Tools) == 0 {
		b.WriteString("\n\nTo give my best complete final answer to the task use the exact following format:\n\n")
		b.WriteString("Thought: I now can give a great answer\nFinal Answer: Your final answer must be the great and the most complete as possible, it must be outcome described.")
		return b.String()
	}

	b.WriteString("\n\nYou ONLY have access to the following tools, and should NEVER make up tools that are not listed here:\n\n")
	b.WriteString(tools.Describe(a.Tools))
	fmt.Fprintf(&b, `

Use the following format:

Thought: you should always think about what to do
Action: the action to take, only one name of [%s], just the name, exactly as it's written.
Action Input: the input to the action, just a simple product name or JSON object
Observation: the result of the action

Once all necessary information is gathered:

Thought: I now know the final answer
Final Answer: the final answer to the original input question`, strings.Join(a.ToolNames(), ", "))
	return b.String()
}
