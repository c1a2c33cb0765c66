// internal/crawler/dispatchlog.go
package crawler

import "github.com/alkemir/jscrawl/internal/browser"

// Outcome records what happened to a candidate event.
type Outcome int

const (
	// OutcomeIgnored marks an event the admission filter refused.
	OutcomeIgnored Outcome = iota
	// OutcomeSuccess marks an event that was dispatched to the browser.
	OutcomeSuccess
	// OutcomeFailed marks a dispatch that failed at the element level.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LogEntry pairs an event with its outcome.
type LogEntry struct {
	Event   browser.Event
	Outcome Outcome
}

// DispatchLog is the append-only, time-ordered record of every event the
// session considered. Entries are never mutated or reordered; the admission
// filter and the failure-streak check both depend on append order being
// preserved exactly.
type DispatchLog struct {
	entries []LogEntry
}

// Append records one entry.
func (l *DispatchLog) Append(event browser.Event, outcome Outcome) {
	l.entries = append(l.entries, LogEntry{Event: event, Outcome: outcome})
}

// Entries exposes the log in append order. Callers must not modify it.
func (l *DispatchLog) Entries() []LogEntry {
	return l.entries
}

// Window returns the fixed-size window of the log that the failure-streak
// check inspects: the first n entries of the current log slice (or all of
// them when the log is shorter).
func (l *DispatchLog) Window(n int) []LogEntry {
	if len(l.entries) < n {
		return l.entries
	}
	return l.entries[:n]
}

// DispatchCount returns how many events were actually sent to the browser,
// successfully or not. Ignored entries don't count.
func (l *DispatchLog) DispatchCount() int {
	count := 0
	for _, e := range l.entries {
		if e.Outcome != OutcomeIgnored {
			count++
		}
	}
	return count
}

// FailureCount returns how many dispatches failed.
func (l *DispatchLog) FailureCount() int {
	count := 0
	for _, e := range l.entries {
		if e.Outcome == OutcomeFailed {
			count++
		}
	}
	return count
}

// CountByType tallies the log entries per event type.
func (l *DispatchLog) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.entries {
		counts[e.Event.EventType]++
	}
	return counts
}
