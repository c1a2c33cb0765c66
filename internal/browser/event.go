// internal/browser/event.go
package browser

import "fmt"

// Event is an event listener the browser reports as attached to some DOM
// element. Events are immutable; the crawler only reads them.
type Event struct {
	// Selector is a CSS selector that identified the element when the
	// listener was enumerated. It may go stale if the DOM mutates.
	Selector string `json:"selector"`

	// EventType is the DOM event type ("click", "dblclick", ...).
	EventType string `json:"event_type"`

	// NodeIndex is an opaque identity assigned during enumeration. Two
	// listeners on the same element share it; it plays no part in equality.
	NodeIndex int `json:"node_index"`
}

// TypeSelector returns the identity key of the event: two events are "the
// same event" iff their (event type, selector) pairs match.
func (e Event) TypeSelector() string {
	return fmt.Sprintf("%s!%s", e.EventType, e.Selector)
}

func (e Event) String() string {
	return fmt.Sprintf("%q on %q", e.EventType, e.Selector)
}
