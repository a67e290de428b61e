package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scttfrdmn/marketcrew/adapter/llm"
	"github.com/scttfrdmn/marketcrew/agenkit"
)

// Stop reasons reported on TaskOutput.
const (
	StopReasonFinalAnswer = "final_answer"
	StopReasonNoFormat    = "no_format"
)

// Executor runs one task for one agent.
type Executor interface {
	Execute(ctx context.Context, agent *Agent, task *Task, context string) (*TaskOutput, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, agent *Agent, task *Task, context string) (*TaskOutput, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, agent *Agent, task *Task, context string) (*TaskOutput, error) {
	return f(ctx, agent, task, context)
}

// ReActExecutor drives an agent through a Thought/Action/Observation loop.
//
// Expected model reply format:
//
//	Thought: [reasoning about what to do]
//	Action: [tool name]
//	Action Input: [tool input]
//
// Or for the final answer:
//
//	Thought: I now know the final answer
//	Final Answer: [the final answer]
type ReActExecutor struct {
	model       llm.LLM
	maxSteps    int
	temperature float64
}

// ReActConfig configures a ReActExecutor.
type ReActConfig struct {
	Model llm.LLM

	// MaxSteps bounds the model calls per task (default: 10).
	MaxSteps int

	Temperature float64
}

// NewReActExecutor creates a new ReAct executor.
func NewReActExecutor(cfg ReActConfig) (*ReActExecutor, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	return &ReActExecutor{
		model:       cfg.Model,
		maxSteps:    cfg.MaxSteps,
		temperature: cfg.Temperature,
	}, nil
}

// Execute runs the loop until the model gives a final answer. A reply with
// neither an action nor a final answer is taken as the answer itself.
func (r *ReActExecutor) Execute(ctx context.Context, agent *Agent, task *Task, taskContext string) (*TaskOutput, error) {
	messages := []*agenkit.Message{
		agenkit.NewMessage(agenkit.RoleSystem, agent.SystemPrompt()),
		agenkit.NewMessage(agenkit.RoleUser, task.Prompt(taskContext)),
	}

	out := &TaskOutput{Task: task.Label(), Agent: agent.Role}
	var transcript []string

	for i := 0; i < r.maxSteps; i++ {
		reply, err := r.model.Complete(ctx, messages,
			llm.WithTemperature(r.temperature),
			llm.WithStop("\nObservation:"),
		)
		if err != nil {
			return nil, fmt.Errorf("model completion failed: %w", err)
		}

		text := strings.TrimSpace(reply.Content)
		step := ParseStep(text)

		switch {
		case step.FinalAnswer != "":
			transcript = append(transcript, text)
			out.Steps = append(out.Steps, step)
			out.Raw = step.FinalAnswer
			out.StopReason = StopReasonFinalAnswer
			out.Transcript = strings.Join(transcript, "\n")
			return out, nil

		case step.Action == "":
			transcript = append(transcript, text)
			out.Steps = append(out.Steps, step)
			out.Raw = text
			out.StopReason = StopReasonNoFormat
			out.Transcript = strings.Join(transcript, "\n")
			slog.WarnContext(ctx, "agent reply had no action or final answer", "agent", agent.Role, "task", out.Task)
			return out, nil
		}

		step.Observation = r.observe(ctx, agent, step)
		out.Steps = append(out.Steps, step)
		transcript = append(transcript, text, "Observation: "+step.Observation)

		messages = append(messages,
			agenkit.NewMessage(agenkit.RoleAgent, text),
			agenkit.NewMessage(agenkit.RoleTool, "Observation: "+step.Observation),
		)
	}

	return nil, ErrMaxSteps
}

// observe invokes the requested tool and returns the text handed back to the
// model. Unknown tools produce an error observation rather than failing the task.
func (r *ReActExecutor) observe(ctx context.Context, agent *Agent, step Step) string {
	tool, ok := agent.Tool(step.Action)
	if !ok {
		return fmt.Sprintf("Error: Tool '%s' not found. Available tools: %s",
			step.Action, strings.Join(agent.ToolNames(), ", "))
	}

	slog.DebugContext(ctx, "agent using tool", "agent", agent.Role, "tool", tool.Name(), "input", step.ActionInput)
	result := tool.Invoke(ctx, step.ActionInput)
	if !result.Success {
		slog.WarnContext(ctx, "tool failed", "tool", tool.Name(), "error", result.Error)
	}
	return result.String()
}

var stepMarkers = []string{"Thought:", "Action Input:", "Action:", "Observation:", "Final Answer:"}

// ParseStep reads one model reply. Each field runs until the next marker, so
// final answers and action inputs may span several lines.
func ParseStep(text string) Step {
	var step Step
	if answer, ok := section(text, "Final Answer:"); ok {
		step.FinalAnswer = answer
		if step.FinalAnswer == "" {
			step.FinalAnswer = "No final answer provided"
		}
	}
	step.Thought, _ = section(text, "Thought:")
	step.Action, _ = section(text, "Action:")
	step.ActionInput, _ = section(text, "Action Input:")
	step.Observation, _ = section(text, "Observation:")

	if step.Thought == "" && step.FinalAnswer == "" {
		// Models often open with bare reasoning before "Action:".
		if i := markerIndex(text, "Action:"); i > 0 {
			step.Thought = strings.TrimSpace(text[:i])
		}
	}
	return step
}

// section returns the text after marker up to the next marker. For
// "Final Answer:" everything after the marker is kept.
func section(text, marker string) (string, bool) {
	start := markerIndex(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	if marker == "Final Answer:" {
		return strings.TrimSpace(rest), true
	}

	end := len(rest)
	for _, m := range stepMarkers {
		if i := markerIndex(rest, m); i >= 0 && i < end {
			end = i
		}
	}
	return strings.TrimSpace(rest[:end]), true
}

// markerIndex finds marker at the start of a line, ignoring indentation.
func markerIndex(text, marker string) int {
	offset := 0
	for {
		i := strings.Index(text[offset:], marker)
		if i < 0 {
			return -1
		}
		pos := offset + i
		if pos == 0 || text[pos-1] == '\n' || strings.TrimSpace(text[lineStart(text, pos):pos]) == "" {
			return pos
		}
		offset = pos + len(marker)
	}
}

func lineStart(text string, pos int) int {
	if i := strings.LastIndexByte(text[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}
