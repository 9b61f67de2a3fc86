// Package registry provides the in-memory Identity Registry: the single
// source of truth for which agents exist and what they can do. Registrations
// are append-only and GUID keyed; every successful registration is audited
// through the Event/Log Sink.
package registry
