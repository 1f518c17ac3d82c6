package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
	"github.com/vietddude/hivera/internal/events"
	"github.com/vietddude/hivera/internal/retry"
)

// RestartPolicy decides what happens after a fatal error inside the engine.
type RestartPolicy string

const (
	// PolicyTerminate logs the fatal error and stops the engine.
	PolicyTerminate RestartPolicy = "terminate"
	// PolicyRestart logs the fatal error and starts the engine again.
	PolicyRestart RestartPolicy = "restart"
)

// ParseRestartPolicy parses a policy name; empty means PolicyTerminate.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch RestartPolicy(s) {
	case "", PolicyTerminate:
		return PolicyTerminate, nil
	case PolicyRestart:
		return PolicyRestart, nil
	default:
		return "", fmt.Errorf("unknown restart policy %q", s)
	}
}

// FatalError wraps an unexpected panic recovered from the engine.
type FatalError struct {
	Value any
	Stack []byte
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal engine error: %v", e.Value)
}

// Runner is the supervised task.
type Runner interface {
	Run(ctx context.Context) ([]domain.CycleResult, error)
}

// Supervisor runs a Runner and applies a RestartPolicy to fatal errors.
type Supervisor struct {
	runner       Runner
	policy       RestartPolicy
	restartDelay time.Duration
	sink         events.Sink
	sleep        retry.Sleeper

	restarts int
}

// NewSupervisor creates a supervisor.
func NewSupervisor(runner Runner, policy RestartPolicy, restartDelay time.Duration, sink events.Sink) *Supervisor {
	if sink == nil {
		sink = events.Discard
	}
	if policy == "" {
		policy = PolicyTerminate
	}
	return &Supervisor{
		runner:       runner,
		policy:       policy,
		restartDelay: restartDelay,
		sink:         sink,
		sleep:        retry.Sleep,
	}
}

// WithSleeper replaces the restart delay implementation.
func (s *Supervisor) WithSleeper(sleep retry.Sleeper) *Supervisor {
	s.sleep = sleep
	return s
}

// Restarts returns how many times the runner was restarted.
func (s *Supervisor) Restarts() int {
	return s.restarts
}

// Run runs the supervised task until it returns. Context cancellation is a
// clean stop and returns nil. A fatal error is returned under PolicyTerminate;
// under PolicyRestart the task is started again after the restart delay.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		_, err := s.runOnce(ctx)
		if err == nil || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
			return nil
		}

		var fatal *FatalError
		if !errors.As(err, &fatal) {
			return err
		}

		s.sink.Emit(ctx, events.Event{
			Type:   events.TypeFatalError,
			Time:   time.Now(),
			Err:    err,
			Fields: map[string]any{"stack": string(fatal.Stack)},
		})
		if s.policy != PolicyRestart {
			return err
		}

		s.sink.Emit(ctx, events.Event{Type: events.TypeRestarting, Time: time.Now(), Delay: s.restartDelay})
		if err := s.sleep(ctx, s.restartDelay); err != nil {
			return nil
		}
		s.restarts++
	}
}

func (s *Supervisor) runOnce(ctx context.Context) (results []domain.CycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FatalError{Value: r, Stack: debug.Stack()}
		}
	}()
	return s.runner.Run(ctx)
}
