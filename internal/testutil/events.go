package testutil

import "github.com/hupe1980/agentbridge/core"

// Kinds returns the event kinds in recording order.
func Kinds(events []core.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

// Severities returns the event severities in recording order.
func Severities(events []core.Event) []core.Severity {
	out := make([]core.Severity, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Severity)
	}
	return out
}

// CountSeverity counts events carrying the given severity.
func CountSeverity(events []core.Event, sev core.Severity) int {
	n := 0
	for _, ev := range events {
		if ev.Severity == sev {
			n++
		}
	}
	return n
}
