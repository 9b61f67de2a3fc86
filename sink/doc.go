// Package sink provides Event/Log Sink implementations. The in-memory sink is
// the default append-only audit log used by tests and ephemeral deployments;
// Multi tees events to several sinks so an in-process log can be combined with
// a persistent or publishing backend (see the sqlite and amqp subpackages).
package sink
