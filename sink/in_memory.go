package sink

import (
	"errors"
	"sync"

	"github.com/hupe1980/agentbridge/core"
)

// InMemory is a volatile core.Sink implementation storing events in an
// append-only process local slice. It is safe for concurrent use: the append
// path serializes internally while reads operate on defensive copies. Events
// are never deleted; retention is the caller's concern.
type InMemory struct {
	mu     sync.RWMutex
	events []core.Event
}

// NewInMemory constructs an empty in-memory sink.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Record appends the event preserving insertion order.
func (s *InMemory) Record(ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of all recorded events in insertion order.
func (s *InMemory) Events() []core.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsFor returns all events about the given subject in insertion order.
func (s *InMemory) EventsFor(subjectGUID string) []core.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Event
	for _, ev := range s.events {
		if ev.SubjectGUID == subjectGUID {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Multi tees every recorded event to all wrapped sinks in order. Record
// attempts every sink even when one fails and returns the joined errors.
type Multi struct {
	sinks []core.Sink
}

// NewMulti constructs a tee over the provided sinks.
func NewMulti(sinks ...core.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Record implements core.Sink.
func (m *Multi) Record(ev core.Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
