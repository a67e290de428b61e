package crew

import (
	"errors"
	"fmt"
)

// ErrInvalidPipeline reports a crew whose tasks cannot run in declared order.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// ErrMaxSteps reports an agent that never reached a final answer.
var ErrMaxSteps = errors.New("maximum reasoning steps reached")

// TaskError wraps a failure of a single task.
type TaskError struct {
	Task    string
	Message string
	Cause   error
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("task '%s': %s", e.Task, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *TaskError) Unwrap() error {
	return e.Cause
}
