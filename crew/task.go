package crew

import (
	"fmt"
	"strings"
)

// Task is one unit of work assigned to an agent.
//
// Context lists earlier tasks whose outputs are handed to this one. A nil
// Context means "the previous task's output"; an empty non-nil slice means no
// context at all.
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
	Context        []*Task
}

// Label returns the task name, or the start of its description.
func (t *Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	desc := strings.Join(strings.Fields(t.Description), " ")
	if runes := []rune(desc); len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return desc
}

// Prompt renders the user turn for the task with the given context text.
func (t *Task) Prompt(context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Task: %s", strings.TrimSpace(t.Description))
	if t.ExpectedOutput != "" {
		fmt.Fprintf(&b, "\n\nThis is the expected criteria for your final answer: %s", strings.TrimSpace(t.ExpectedOutput))
		b.WriteString("\nyou MUST return the actual complete content as the final answer, not a summary.")
	}
	if context != "" {
		fmt.Fprintf(&b, "\n\nThis is the context you're working with:\n%s", context)
	}
	b.WriteString("\n\nBegin! This is VERY important to you, use the tools available and give your best Final Answer, your job depends on it!")
	return b.String()
}

// Step is one parsed thought/action/observation cycle of an executor.
type Step struct {
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`
}

// TaskOutput is what a task produced.
type TaskOutput struct {
	Task  string `json:"task"`
	Agent string `json:"agent"`

	// Raw is the final answer text.
	Raw string `json:"raw"`

	// Transcript is the agent's full Thought/Action/Observation text.
	Transcript string `json:"transcript"`

	Steps      []Step `json:"steps,omitempty"`
	StopReason string `json:"stop_reason"`
}

// CrewOutput collects the outputs of a run in task order.
type CrewOutput struct {
	RunID string       `json:"run_id"`
	Tasks []TaskOutput `json:"tasks"`
}

// Raw returns the final task's answer.
func (o *CrewOutput) Raw() string {
	if o == nil || len(o.Tasks) == 0 {
		return ""
	}
	return o.Tasks[len(o.Tasks)-1].Raw
}

// Output returns the output of the named task.
func (o *CrewOutput) Output(task string) (TaskOutput, bool) {
	if o == nil {
		return TaskOutput{}, false
	}
	for _, out := range o.Tasks {
		if out.Task == task {
			return out, true
		}
	}
	return TaskOutput{}, false
}

// Transcript joins every task's transcript in run order.
func (o *CrewOutput) Transcript() string {
	if o == nil {
		return ""
	}
	parts := make([]string, 0, len(o.Tasks))
	for _, out := range o.Tasks {
		if out.Transcript != "" {
			parts = append(parts, out.Transcript)
		}
	}
	return strings.Join(parts, "\n\n")
}
