package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDefinition indicates an automation definition that cannot be executed.
	ErrInvalidDefinition = errors.New("invalid automation definition")

	// ErrUnknownStep indicates a step kind with no registered executor.
	ErrUnknownStep = errors.New("no executor registered for step")

	// ErrRowNotFound indicates a row lookup that found nothing.
	ErrRowNotFound = errors.New("row not found")

	// ErrMissingTable indicates a row without a "tableId" field.
	ErrMissingTable = errors.New("row has no tableId")

	// ErrNoQueryRunner indicates a query step on an engine without a query runner.
	ErrNoQueryRunner = errors.New("no query runner configured")

	// ErrInvalidLoopBinding indicates a loop binding that cannot be split into items.
	ErrInvalidLoopBinding = errors.New("invalid loop binding")
)

// StepError wraps a failure of one step with its identity.
type StepError struct {
	StepID string
	Kind   string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s) failed: %v", e.StepID, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}
