package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped in a StageError) by Run.
var (
	// ErrNoLinks means no usable link reached the core. It is the only data
	// condition that fails a run.
	ErrNoLinks = errors.New("no links to distribute")
	// ErrCanceled is reported when the context is done between two stages.
	ErrCanceled = errors.New("run canceled")
)

// StageError records which stage stopped a run.
type StageError struct {
	Stage string // Stage that failed or was about to start
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches the cause.
func (e *StageError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// IsCanceled reports whether err came from a canceled run.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

func stageErr(stage string, cause error) error {
	return &StageError{Stage: stage, Cause: cause}
}

func canceledErr(stage string, ctxErr error) error {
	return &StageError{Stage: stage, Cause: fmt.Errorf("%w: %w", ErrCanceled, ctxErr)}
}
