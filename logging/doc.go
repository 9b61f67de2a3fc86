// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. Event auditing is a separate concern handled by the sink
// packages; this package only covers diagnostic logging.
package logging
