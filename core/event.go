package core

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies an event for filtering and alerting.
type Severity string

const (
	// SeverityInfo marks routine lifecycle events.
	SeverityInfo Severity = "INFO"
	// SeverityWarning marks degraded-mode operation (e.g. an absent backend).
	SeverityWarning Severity = "WARNING"
	// SeverityError marks captured execution failures.
	SeverityError Severity = "ERROR"
)

// Well-known event kinds emitted by the orchestration layer.
const (
	EventRegistered     = "registered"
	EventUnitRegistered = "unit_registered"
	EventComposed       = "composed"
	EventComposeFailed  = "compose_failed"
	EventCompleted      = "completed"
	EventFailed         = "failed"
	EventSkipped        = "skipped"
)

// Event is an append-only audit record describing a state change or outcome.
// After emission it must be treated as immutable. SubjectGUID references the
// agent or plan the event is about; it is a lookup key, not a live handle.
type Event struct {
	ID          string    `json:"id"`
	SubjectGUID string    `json:"subject_guid"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewEvent creates an event about the given subject with a fresh ID and a UTC
// timestamp.
func NewEvent(subjectGUID, kind, message string, severity Severity) Event {
	return Event{
		ID:          NewID(),
		SubjectGUID: subjectGUID,
		Kind:        kind,
		Message:     message,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
	}
}

// Sink is the append-only event channel every component publishes to. The
// sink's persistence format and retention policy are the implementation's
// concern; the orchestration layer only guarantees that it records events in
// the order dictated by each plan's control flow. Implementations must be safe
// for concurrent appends.
type Sink interface {
	Record(ev Event) error
}

// NewID generates a new globally unique identifier for agents, plans and
// events.
func NewID() string { return uuid.NewString() }

// ValidID reports whether s parses as a UUID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ShortID formats an identifier for display, truncating to eight characters.
func ShortID(id string) string {
	if id == "" {
		return "N/A"
	}
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
