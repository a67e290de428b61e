package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scttfrdmn/marketcrew/crew"
)

// cannedExecutor answers each task from a table keyed by task name and
// records the context each task received.
type cannedExecutor struct {
	answers map[string]string
	seen    map[string]string
}

func (c *cannedExecutor) Execute(ctx context.Context, agent *crew.Agent, task *crew.Task, taskContext string) (*crew.TaskOutput, error) {
	if c.seen == nil {
		c.seen = map[string]string{}
	}
	c.seen[task.Name] = taskContext
	answer, ok := c.answers[task.Name]
	if !ok {
		answer = "answer for " + task.Name
	}
	return &crew.TaskOutput{Raw: answer, StopReason: crew.StopReasonFinalAnswer}, nil
}

func TestScenariosValidate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, err := Build(name, &cannedExecutor{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := c.Validate(); err != nil {
				t.Errorf("scenario does not validate: %v", err)
			}
		})
	}

	if _, err := Build("hierarchical", &cannedExecutor{}); err == nil {
		t.Error("expected unknown scenario to fail")
	}
}

func TestScenarioShapes(t *testing.T) {
	tests := []struct {
		name   string
		agents int
		tasks  int
	}{
		{NameBasic, 2, 2},
		{NameStrategy, 4, 4},
		{NameVerified, 3, 4},
	}

	for _, tt := range tests {
		c, _ := Build(tt.name, nil)
		if len(c.Agents) != tt.agents || len(c.Tasks) != tt.tasks {
			t.Errorf("%s: got %d agents and %d tasks, want %d and %d",
				tt.name, len(c.Agents), len(c.Tasks), tt.agents, tt.tasks)
		}
	}
}

func TestStrategyAdvisorHasNoTools(t *testing.T) {
	c := Strategy(nil)
	advisor := c.Tasks[3].Agent
	if advisor.Role != "Business Strategy Advisor" || len(advisor.Tools) != 0 {
		t.Errorf("unexpected advisor %+v", advisor)
	}
	if len(c.Tasks[3].Context) != 3 {
		t.Errorf("expected recommendations to read three earlier tasks, got %d", len(c.Tasks[3].Context))
	}
}

func TestStrategyContextFlow(t *testing.T) {
	exec := &cannedExecutor{}
	if _, err := Strategy(exec).Kickoff(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := exec.seen["business_recommendations"]
	for _, want := range []string{"answer for market_analysis", "answer for product_analysis", "answer for marketing_strategy"} {
		if !strings.Contains(got, want) {
			t.Errorf("recommendations context missing %q", want)
		}
	}
}

func TestVerifiedToolsets(t *testing.T) {
	c := Verified(nil)
	checker := c.Tasks[2].Agent
	if checker.Role != "Data Quality Checker" {
		t.Fatalf("unexpected checker %s", checker.Role)
	}
	if strings.Join(checker.ToolNames(), ",") != "Fetch Product Data,Fetch Market Trends" {
		t.Errorf("unexpected checker tools %v", checker.ToolNames())
	}
	if c.Tasks[3].Agent != c.Tasks[0].Agent {
		t.Error("summary should reuse the market analyst")
	}
	if !strings.Contains(c.Tasks[1].Agent.Backstory, "'In Stock'") {
		t.Error("product specialist should be told to say 'In Stock'")
	}
}

func TestReadVerdict(t *testing.T) {
	tests := []struct {
		name       string
		report     string
		passed     bool
		normalized bool
	}{
		{"passed", "## VERIFICATION RESULT\nQA PASSED", true, false},
		{"availability wording only", "QA FAILED: Availability shows Available but source says In Stock", true, true},
		{"genuine discrepancy", "QA FAILED: Price is $899 but source says $999", false, false},
		{"availability without both phrasings", "QA FAILED: availability is Out of Stock", false, false},
		{"no verdict", "I could not decide.", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ReadVerdict(tt.report)
			if v.Passed != tt.passed || v.Normalized != tt.normalized {
				t.Errorf("ReadVerdict() = %+v, want passed=%v normalized=%v", v, tt.passed, tt.normalized)
			}
		})
	}
}

func TestVerdictSections(t *testing.T) {
	v := ReadVerdict("## DATA COMPARISON\n### Market\n| a | b |\n## VERIFICATION RESULT\nQA PASSED")
	sections := v.Sections()
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %q", len(sections), sections)
	}
	if !strings.Contains(sections[0], "### Market") || !strings.HasPrefix(sections[1], "## VERIFICATION RESULT") {
		t.Errorf("unexpected sections %q", sections)
	}
}

func TestRunVerified(t *testing.T) {
	exec := &cannedExecutor{answers: map[string]string{
		TaskQA:      "## VERIFICATION RESULT\nQA PASSED",
		TaskSummary: "Executive summary",
	}}

	report, err := RunVerified(context.Background(), exec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Verdict.Passed || report.Summary != "Executive summary" {
		t.Errorf("unexpected report %+v", report)
	}
	if !strings.Contains(exec.seen[TaskSummary], "QA PASSED") {
		t.Error("summary should see the QA output")
	}
}

func TestRunVerifiedFailedWithholdsSummary(t *testing.T) {
	exec := &cannedExecutor{answers: map[string]string{TaskQA: "QA FAILED: price mismatch"}}

	report, err := RunVerified(context.Background(), exec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Verdict.Passed || report.Summary != "" {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestRunVerifiedPropagatesErrors(t *testing.T) {
	boom := errors.New("model down")
	exec := crew.ExecutorFunc(func(ctx context.Context, agent *crew.Agent, task *crew.Task, taskContext string) (*crew.TaskOutput, error) {
		return nil, boom
	})
	if _, err := RunVerified(context.Background(), exec); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestReferenceData(t *testing.T) {
	ref := ReferenceData(VerifiedProduct)
	if ref.Product.Price != "$999" || ref.Market.MonthlySearches != 45000 {
		t.Errorf("unexpected reference %+v", ref)
	}
	text := ref.String()
	if !strings.HasPrefix(text, "=== REFERENCE DATA (EXPECTED VALUES) ===") || !strings.Contains(text, `"popularity_score": 92`) {
		t.Errorf("unexpected reference text %q", text)
	}
}
