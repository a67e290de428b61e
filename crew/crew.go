package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Process is the task execution strategy. Only sequential runs exist.
type Process string

// ProcessSequential runs tasks one after another in declared order.
const ProcessSequential Process = "sequential"

const tracerName = "github.com/scttfrdmn/marketcrew/crew"

// Crew is a team of agents and the ordered tasks they work through.
type Crew struct {
	Agents   []*Agent
	Tasks    []*Task
	Process  Process
	Executor Executor
}

// Validate checks that every task has a usable agent and that context only
// refers to tasks declared earlier.
func (c *Crew) Validate() error {
	if c.Executor == nil {
		return fmt.Errorf("%w: crew has no executor", ErrInvalidPipeline)
	}
	if c.Process != "" && c.Process != ProcessSequential {
		return fmt.Errorf("%w: unsupported process %q", ErrInvalidPipeline, c.Process)
	}
	if len(c.Tasks) == 0 {
		return fmt.Errorf("%w: crew has no tasks", ErrInvalidPipeline)
	}

	members := make(map[*Agent]bool, len(c.Agents))
	for _, agent := range c.Agents {
		if err := agent.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
		}
		members[agent] = true
	}

	seen := make(map[*Task]bool, len(c.Tasks))
	for i, task := range c.Tasks {
		if task == nil {
			return fmt.Errorf("%w: task %d is nil", ErrInvalidPipeline, i)
		}
		if strings.TrimSpace(task.Description) == "" {
			return fmt.Errorf("%w: task %d has no description", ErrInvalidPipeline, i)
		}
		if err := task.Agent.Validate(); err != nil {
			return fmt.Errorf("%w: task '%s': %v", ErrInvalidPipeline, task.Label(), err)
		}
		if len(c.Agents) > 0 && !members[task.Agent] {
			return fmt.Errorf("%w: task '%s' is assigned to '%s', who is not in the crew",
				ErrInvalidPipeline, task.Label(), task.Agent.Role)
		}
		for _, dep := range task.Context {
			if !seen[dep] {
				return fmt.Errorf("%w: task '%s' uses context from a task that does not run before it",
					ErrInvalidPipeline, task.Label())
			}
		}
		seen[task] = true
	}
	return nil
}

// Kickoff runs every task in order and returns their outputs. The first
// failing task stops the run.
func (c *Crew) Kickoff(ctx context.Context) (*CrewOutput, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "crew.kickoff", trace.WithAttributes(
		attribute.String("crew.run_id", runID),
		attribute.Int("crew.tasks", len(c.Tasks)),
	))
	defer span.End()

	slog.InfoContext(ctx, "crew started", "run_id", runID, "tasks", len(c.Tasks))
	started := time.Now()

	output := &CrewOutput{RunID: runID, Tasks: make([]TaskOutput, 0, len(c.Tasks))}
	results := make(map[*Task]string, len(c.Tasks))

	for i, task := range c.Tasks {
		out, err := c.runTask(ctx, tracer, task, c.contextFor(i, results))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "crew failed", "run_id", runID, "task", task.Label(), "error", err)
			return output, err
		}
		results[task] = out.Raw
		output.Tasks = append(output.Tasks, *out)
	}

	span.SetStatus(codes.Ok, "")
	slog.InfoContext(ctx, "crew finished", "run_id", runID, "duration", time.Since(started))
	return output, nil
}

func (c *Crew) runTask(ctx context.Context, tracer trace.Tracer, task *Task, taskContext string) (*TaskOutput, error) {
	ctx, span := tracer.Start(ctx, "crew.task", trace.WithAttributes(
		attribute.String("task.name", task.Label()),
		attribute.String("agent.role", task.Agent.Role),
		attribute.Int("agent.tools", len(task.Agent.Tools)),
	))
	defer span.End()

	slog.InfoContext(ctx, "task started", "task", task.Label(), "agent", task.Agent.Role)

	out, err := c.Executor.Execute(ctx, task.Agent, task, taskContext)
	if err == nil && out == nil {
		err = fmt.Errorf("executor returned no output")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &TaskError{Task: task.Label(), Message: "execution failed", Cause: err}
	}

	if out.Task == "" {
		out.Task = task.Label()
	}
	if out.Agent == "" {
		out.Agent = task.Agent.Role
	}
	span.SetAttributes(
		attribute.String("task.stop_reason", out.StopReason),
		attribute.Int("task.steps", len(out.Steps)),
	)
	span.SetStatus(codes.Ok, "")
	return out, nil
}

// contextFor collects the outputs handed to task i.
func (c *Crew) contextFor(i int, results map[*Task]string) string {
	task := c.Tasks[i]
	if task.Context == nil {
		if i == 0 {
			return ""
		}
		return results[c.Tasks[i-1]]
	}

	parts := make([]string, 0, len(task.Context))
	for _, dep := range task.Context {
		parts = append(parts, results[dep])
	}
	return strings.Join(parts, "\n\n")
}
