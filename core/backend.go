package core

import "context"

// Backend is the common contract every execution adapter implements. A
// backend wraps one external execution model (group or graph) and degrades to
// a documented no-op mode when the underlying engine is absent, so the
// orchestration layer stays usable for registration bookkeeping and plan
// inspection even without the optional dependency.
type Backend interface {
	// Kind identifies which execution model the adapter wraps.
	Kind() BackendKind

	// Available reports whether the underlying engine is present and
	// initialized. False switches the adapter into degraded mode; it never
	// causes hard failures.
	Available() bool

	// RegisterUnit attaches an executable unit to a registered identity and
	// grows its capabilities. When the backend is unavailable it records a
	// WARNING event and returns nil; registration bookkeeping is never lost
	// because an engine is absent. An unknown identity wraps ErrNotFound and
	// a unit of the wrong variant is rejected.
	RegisterUnit(guid string, unit ExecutionUnit, capabilities []string) error

	// Compose validates the structural invariants of def and returns an
	// immutable Plan handle, emitting an INFO event. Validation failures
	// return a *CompositionError and nothing is stored. Composition works
	// regardless of availability so plans can be inspected in degraded mode.
	Compose(def PlanDef) (Plan, error)

	// Execute drives the composed plan to completion. An unavailable backend
	// returns StatusSkipped immediately with a WARNING event and no error.
	// A unit failure is captured, recorded as exactly one ERROR event, and
	// returned as StatusFailed together with a *ExecutionError so callers
	// see the failure while the event stream keeps the diagnostic. Unknown
	// plan IDs wrap ErrNotFound.
	Execute(ctx context.Context, planID string, initial State) (ExecutionResult, error)

	// Plans lists the handles of all composed plans in insertion order.
	Plans() []Plan
}
