// Package group implements the flat group-of-agents-plus-tasks backend. Tasks
// run as an ordered sequence with shared context; each task may be bound to a
// registered agent identity whose task handler produces its output. The
// adapter degrades to a no-op mode when no engine is wired, so registration
// bookkeeping and plan composition keep working without the execution engine.
package group
