package core

import "time"

// BackendKind selects one of the supported execution models.
type BackendKind string

const (
	// BackendGroup is the flat group-of-agents-plus-tasks model.
	BackendGroup BackendKind = "group"
	// BackendGraph is the directed-graph workflow model.
	BackendGraph BackendKind = "graph"
)

// Valid reports whether the kind names a supported backend.
func (k BackendKind) Valid() bool {
	return k == BackendGroup || k == BackendGraph
}

// AgentIdentity describes a registered agent. Identities are created by the
// Registry and are immutable afterwards except for Capabilities, which may
// grow as executable units are attached. All other components reference an
// identity only by its GUID, never by holding the struct itself.
type AgentIdentity struct {
	GUID         string      `json:"guid"`
	DisplayName  string      `json:"display_name"`
	Capabilities []string    `json:"capabilities"`
	Kind         BackendKind `json:"backend_kind"`
	Created      time.Time   `json:"created"`
}

// HasCapability reports whether the identity declares the named capability.
func (a AgentIdentity) HasCapability(name string) bool {
	for _, c := range a.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// Registry is the single source of truth for agent identities. Registrations
// are append-only for the lifetime of the process; no update or delete of core
// identity fields is exposed. Implementations must be safe for concurrent
// reads and serialize the append path internally.
type Registry interface {
	// Register issues a fresh GUID, stores the identity and synchronously
	// emits a "registered" INFO event. It never fails for valid input.
	Register(displayName string, capabilities []string, kind BackendKind) (AgentIdentity, error)

	// Lookup returns the identity for guid or an error wrapping ErrNotFound.
	// Lookups do not emit events.
	Lookup(guid string) (AgentIdentity, error)

	// List returns all identities in stable insertion order.
	List() []AgentIdentity

	// AddCapabilities grows the capability set of an existing identity.
	AddCapabilities(guid string, capabilities ...string) error
}
