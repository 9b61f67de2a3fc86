// Package graph implements the directed-graph workflow backend. Workflows are
// built as a StateGraph of named nodes connected by unconditional and
// conditional edges, compiled into an immutable Program at composition time,
// and executed by following edges from the entry node until a terminal
// condition is reached. Structural invariants (entry existence, edge endpoint
// existence, branch label resolution) are validated at compile time so
// execution never trips over a malformed graph.
package graph
