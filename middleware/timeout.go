// Package middleware wraps model adapters with cross-cutting behaviour.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scttfrdmn/marketcrew/adapter/llm"
	"github.com/scttfrdmn/marketcrew/agenkit"
)

// TimeoutMetrics tracks calls made through a TimeoutLLM.
type TimeoutMetrics struct {
	mu                 sync.RWMutex
	TotalRequests      int64
	SuccessfulRequests int64
	TimedOutRequests   int64
	FailedRequests     int64 // failed for reasons other than timeout
	TotalDuration      time.Duration
	MaxDuration        time.Duration
}

func (m *TimeoutMetrics) record(duration time.Duration, counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	*counter++
	m.TotalDuration += duration
	if duration > m.MaxDuration {
		m.MaxDuration = duration
	}
}

// AvgDuration returns the average call duration.
func (m *TimeoutMetrics) AvgDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.TotalRequests == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.TotalRequests)
}

// Snapshot returns the counters without the lock.
func (m *TimeoutMetrics) Snapshot() (total, succeeded, timedOut, failed int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TotalRequests, m.SuccessfulRequests, m.TimedOutRequests, m.FailedRequests
}

// TimeoutError is returned when a model call exceeds the configured timeout.
type TimeoutError struct {
	Model   string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("call to model '%s' timed out after %v", e.Model, e.Timeout)
}

// Unwrap lets callers match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// TimeoutLLM bounds every Complete call of the wrapped model.
//
// Example:
//
//	model := middleware.WithTimeout(openaiLLM, 60*time.Second)
//	reply, err := model.Complete(ctx, messages)
//	var timeoutErr *middleware.TimeoutError
//	if errors.As(err, &timeoutErr) {
//		slog.Warn("model timed out", "after", timeoutErr.Timeout)
//	}
type TimeoutLLM struct {
	inner   llm.LLM
	timeout time.Duration
	metrics *TimeoutMetrics
}

var _ llm.LLM = (*TimeoutLLM)(nil)

// WithTimeout wraps inner. A non-positive timeout disables the wrapper and
// returns inner unchanged.
func WithTimeout(inner llm.LLM, timeout time.Duration) llm.LLM {
	if timeout <= 0 {
		return inner
	}
	return NewTimeoutLLM(inner, timeout)
}

// NewTimeoutLLM creates a timeout wrapper. A non-positive timeout falls back to
// 30 seconds.
func NewTimeoutLLM(inner llm.LLM, timeout time.Duration) *TimeoutLLM {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TimeoutLLM{
		inner:   inner,
		timeout: timeout,
		metrics: &TimeoutMetrics{},
	}
}

// Model returns the wrapped model identifier.
func (t *TimeoutLLM) Model() string {
	return t.inner.Model()
}

// Metrics returns the call metrics.
func (t *TimeoutLLM) Metrics() *TimeoutMetrics {
	return t.metrics
}

// Complete calls the wrapped model with a deadline. The call runs in its own
// goroutine so adapters that ignore ctx still return on time.
func (t *TimeoutLLM) Complete(ctx context.Context, messages []*agenkit.Message, opts ...llm.CallOption) (*agenkit.Message, error) {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		msg *agenkit.Message
		err error
	}
	done := make(chan result, 1)

	go func() {
		msg, err := t.inner.Complete(timeoutCtx, messages, opts...)
		done <- result{msg, err}
	}()

	select {
	case res := <-done:
		duration := time.Since(start)
		if res.err != nil {
			if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, t.timedOut(ctx, duration)
			}
			t.metrics.record(duration, &t.metrics.FailedRequests)
			return nil, res.err
		}
		t.metrics.record(duration, &t.metrics.SuccessfulRequests)
		return res.msg, nil

	case <-timeoutCtx.Done():
		duration := time.Since(start)
		if ctx.Err() != nil {
			t.metrics.record(duration, &t.metrics.FailedRequests)
			return nil, ctx.Err()
		}
		return nil, t.timedOut(ctx, duration)
	}
}

func (t *TimeoutLLM) timedOut(ctx context.Context, duration time.Duration) error {
	t.metrics.record(duration, &t.metrics.TimedOutRequests)
	slog.WarnContext(ctx, "model call timed out", "model", t.inner.Model(), "timeout", t.timeout)
	return &TimeoutError{Model: t.inner.Model(), Timeout: t.timeout}
}
