package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentbridge/core"
	"github.com/hupe1980/agentbridge/logging"
)

// Options holds dependency overrides passed to NewInMemory.
type Options struct {
	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

// InMemory is a process local core.Registry implementation. It is safe for
// concurrent use: reads take a shared lock while the append path (Register,
// AddCapabilities) serializes internally. Identities are never removed.
type InMemory struct {
	mu     sync.RWMutex
	agents map[string]*core.AgentIdentity
	order  []string

	sink   core.Sink
	logger logging.Logger
}

// NewInMemory constructs an empty registry publishing audit events to sink.
func NewInMemory(sink core.Sink, optFns ...func(o *Options)) *InMemory {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemory{
		agents: make(map[string]*core.AgentIdentity),
		sink:   sink,
		logger: opts.Logger,
	}
}

// Register implements core.Registry. It generates a fresh GUID, stores the
// identity and synchronously emits a "registered" INFO event.
func (r *InMemory) Register(displayName string, capabilities []string, kind core.BackendKind) (core.AgentIdentity, error) {
	identity := &core.AgentIdentity{
		GUID:         core.NewID(),
		DisplayName:  displayName,
		Capabilities: append([]string(nil), capabilities...),
		Kind:         kind,
		Created:      time.Now().UTC(),
	}

	r.mu.Lock()
	r.agents[identity.GUID] = identity
	r.order = append(r.order, identity.GUID)
	r.mu.Unlock()

	r.record(core.NewEvent(
		identity.GUID,
		core.EventRegistered,
		fmt.Sprintf("agent %q registered with backend %s", displayName, kind),
		core.SeverityInfo,
	))
	r.logger.Debug("agent registered", "guid", core.ShortID(identity.GUID), "name", displayName)

	return snapshot(identity), nil
}

// Lookup implements core.Registry. It is read-only and does not emit events.
func (r *InMemory) Lookup(guid string) (core.AgentIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.agents[guid]
	if !ok {
		return core.AgentIdentity{}, fmt.Errorf("agent %s: %w", core.ShortID(guid), core.ErrNotFound)
	}
	return snapshot(identity), nil
}

// List implements core.Registry returning identities in insertion order.
func (r *InMemory) List() []core.AgentIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.AgentIdentity, 0, len(r.order))
	for _, guid := range r.order {
		out = append(out, snapshot(r.agents[guid]))
	}
	return out
}

// AddCapabilities implements core.Registry. Capabilities only ever grow;
// duplicates are ignored.
func (r *InMemory) AddCapabilities(guid string, capabilities ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.agents[guid]
	if !ok {
		return fmt.Errorf("agent %s: %w", core.ShortID(guid), core.ErrNotFound)
	}
	for _, c := range capabilities {
		if !identity.HasCapability(c) {
			identity.Capabilities = append(identity.Capabilities, c)
		}
	}
	return nil
}

// record forwards an event to the sink. A sink failure must not break the
// registration contract, so it is logged and swallowed here.
func (r *InMemory) record(ev core.Event) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Record(ev); err != nil {
		r.logger.Warn("event sink record failed", "kind", ev.Kind, "error", err)
	}
}

// snapshot returns a defensive copy so callers cannot mutate internal state.
func snapshot(identity *core.AgentIdentity) core.AgentIdentity {
	out := *identity
	out.Capabilities = append([]string(nil), identity.Capabilities...)
	return out
}
