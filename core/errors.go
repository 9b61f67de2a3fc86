package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned (wrapped) when a GUID or plan ID does not
	// resolve to a known entity.
	ErrNotFound = errors.New("not found")

	// ErrUnknownBackend is returned when a BackendKind matches no configured
	// adapter.
	ErrUnknownBackend = errors.New("unknown backend kind")
)

// CompositionError reports a structurally invalid plan definition. It is
// raised at compose time, never at execute time.
type CompositionError struct {
	Plan   string
	Reason string
}

// Error implements error.
func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose %q: %s", e.Plan, e.Reason)
}

// ExecutionError reports a unit or engine failure surfaced during a run. The
// adapter captures it, emits an ERROR event, and re-raises it to the caller
// alongside the StatusFailed result.
type ExecutionError struct {
	PlanID string
	Err    error
}

// Error implements error.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute plan %s: %v", ShortID(e.PlanID), e.Err)
}

// Unwrap exposes the underlying unit error.
func (e *ExecutionError) Unwrap() error { return e.Err }
