// Package core provides the foundational domain types and interfaces shared by
// every AgentBridge component. It defines the core abstractions for:
//
//   - Agent identities (GUID-keyed, append-only registrations)
//   - Events (immutable audit records flowing into a pluggable sink)
//   - Execution units (the tagged task/node variants backends can run)
//   - Plans (immutable composed work handles) and execution results
//   - The Backend contract every adapter implements
//
// The package intentionally keeps implementation concerns (persistence,
// concrete backends, transport) out of scope, exposing small interfaces so
// custom registries, sinks and execution engines can be plugged in.
package core
