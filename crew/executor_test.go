package crew

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/scttfrdmn/marketcrew/adapter/llm"
	"github.com/scttfrdmn/marketcrew/agenkit"
	"github.com/scttfrdmn/marketcrew/tools"
)

// ScriptedLLM replays canned replies in order and records every call.
type ScriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]*agenkit.Message
	options []*llm.CallOptions
}

func (s *ScriptedLLM) Model() string { return "scripted" }

func (s *ScriptedLLM) Complete(ctx context.Context, messages []*agenkit.Message, opts ...llm.CallOption) (*agenkit.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]*agenkit.Message(nil), messages...))
	s.options = append(s.options, llm.BuildCallOptions(opts...))
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return agenkit.NewMessage(agenkit.RoleAgent, "Thought: still thinking\nAction: Fetch Product Data\nAction Input: iPhone"), nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return agenkit.NewMessage(agenkit.RoleAgent, reply), nil
}

func analyst() *Agent {
	return &Agent{
		Role:      "Market Research Analyst",
		Goal:      "Analyze smartphone market trends",
		Backstory: "Expert in consumer electronics.",
		Tools:     []agenkit.Tool{tools.ProductDataTool(), tools.MarketTrendsTool()},
	}
}

func newExecutor(t *testing.T, model llm.LLM) *ReActExecutor {
	t.Helper()
	exec, err := NewReActExecutor(ReActConfig{Model: model, MaxSteps: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return exec
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Step
	}{
		{
			name: "action",
			text: "Thought: I need prices\nAction: Fetch Product Data\nAction Input: {\"product\": \"iPhone\"}",
			want: Step{Thought: "I need prices", Action: "Fetch Product Data", ActionInput: `{"product": "iPhone"}`},
		},
		{
			name: "multi-line final answer",
			text: "Thought: I now know the final answer\nFinal Answer: Line one\nLine two",
			want: Step{Thought: "I now know the final answer", FinalAnswer: "Line one\nLine two"},
		},
		{
			name: "bare reasoning before action",
			text: "Let me check trends.\nAction: Fetch Market Trends\nAction Input: iPhone",
			want: Step{Thought: "Let me check trends.", Action: "Fetch Market Trends", ActionInput: "iPhone"},
		},
		{
			name: "empty final answer",
			text: "Final Answer:",
			want: Step{FinalAnswer: "No final answer provided"},
		},
		{
			name: "marker mid-line is ignored",
			text: "I will not write Action: here",
			want: Step{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStep(tt.text); got != tt.want {
				t.Errorf("ParseStep() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReActExecutorUsesTools(t *testing.T) {
	model := &ScriptedLLM{replies: []string{
		"Thought: I need the price\nAction: Fetch Product Data\nAction Input: iPhone",
		"Thought: I now know the final answer\nFinal Answer: The iPhone costs $999.",
	}}
	task := &Task{Name: "price", Description: "Find the iPhone price", ExpectedOutput: "A price"}

	out, err := newExecutor(t, model).Execute(context.Background(), analyst(), task, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Raw != "The iPhone costs $999." || out.StopReason != StopReasonFinalAnswer {
		t.Errorf("unexpected output %+v", out)
	}
	if len(out.Steps) != 2 || !strings.Contains(out.Steps[0].Observation, `"price":"$999"`) {
		t.Errorf("unexpected steps %+v", out.Steps)
	}
	if !strings.Contains(out.Transcript, "Observation: {") || !strings.HasSuffix(out.Transcript, "The iPhone costs $999.") {
		t.Errorf("unexpected transcript %q", out.Transcript)
	}

	second := model.calls[1]
	if last := second[len(second)-1]; last.Role != agenkit.RoleTool || !strings.HasPrefix(last.Content, "Observation: ") {
		t.Errorf("expected observation turn, got %+v", last)
	}
	if len(model.options[0].Stop) != 1 || model.options[0].Stop[0] != "\nObservation:" {
		t.Errorf("unexpected stop sequences %v", model.options[0].Stop)
	}
}

func TestReActExecutorUnknownTool(t *testing.T) {
	model := &ScriptedLLM{replies: []string{
		"Thought: try something\nAction: Launch Rockets\nAction Input: now",
		"Final Answer: gave up",
	}}
	task := &Task{Description: "anything"}

	out, err := newExecutor(t, model).Execute(context.Background(), analyst(), task, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Error: Tool 'Launch Rockets' not found. Available tools: Fetch Product Data, Fetch Market Trends"
	if out.Steps[0].Observation != want {
		t.Errorf("unexpected observation %q", out.Steps[0].Observation)
	}
}

func TestReActExecutorPlainReply(t *testing.T) {
	model := &ScriptedLLM{replies: []string{"Just a plain answer."}}

	out, err := newExecutor(t, model).Execute(context.Background(), analyst(), &Task{Description: "x"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Raw != "Just a plain answer." || out.StopReason != StopReasonNoFormat {
		t.Errorf("unexpected output %+v", out)
	}
}

func TestReActExecutorMaxSteps(t *testing.T) {
	model := &ScriptedLLM{}

	_, err := newExecutor(t, model).Execute(context.Background(), analyst(), &Task{Description: "x"}, "")
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
	if len(model.calls) != 3 {
		t.Errorf("expected 3 model calls, got %d", len(model.calls))
	}
}

func TestReActExecutorModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := newExecutor(t, &ScriptedLLM{err: boom}).Execute(context.Background(), analyst(), &Task{Description: "x"}, "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestNewReActExecutorRequiresModel(t *testing.T) {
	if _, err := NewReActExecutor(ReActConfig{}); err == nil {
		t.Error("expected error without model")
	}
}

func TestPrompts(t *testing.T) {
	agent := analyst()
	system := agent.SystemPrompt()
	for _, want := range []string{
		"You are Market Research Analyst. Expert in consumer electronics.",
		"Your personal goal is: Analyze smartphone market trends",
		"- Fetch Product Data: ",
		"only one name of [Fetch Product Data, Fetch Market Trends]",
	} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}

	advisor := &Agent{Role: "Advisor", Goal: "Advise"}
	if strings.Contains(advisor.SystemPrompt(), "Action:") {
		t.Error("tool-less agent should not be told about actions")
	}

	task := &Task{Description: "Compare phones", ExpectedOutput: "A table"}
	prompt := task.Prompt("earlier findings")
	if !strings.Contains(prompt, "Current Task: Compare phones") ||
		!strings.Contains(prompt, "expected criteria for your final answer: A table") ||
		!strings.Contains(prompt, "context you're working with:\nearlier findings") {
		t.Errorf("unexpected task prompt %q", prompt)
	}
	if strings.Contains(task.Prompt(""), "context you're working with") {
		t.Error("empty context should be omitted")
	}
}

func TestAgentTool(t *testing.T) {
	agent := analyst()
	if _, ok := agent.Tool("  fetch product data "); !ok {
		t.Error("expected case-insensitive tool match")
	}
	if _, ok := agent.Tool("Get Customer Feedback"); ok {
		t.Error("expected tool outside the agent's set to be missing")
	}
}
