// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
)

// Element-level failures. These are expected and frequent during event
// dispatch; callers recover from them locally.
var (
	// ErrTargetMissing reports that the selector no longer matches any
	// element in the live DOM.
	ErrTargetMissing = errors.New("event target no longer exists in the DOM")

	// ErrDispatchTimeout reports that the browser did not acknowledge the
	// event dispatch within the bounded wait.
	ErrDispatchTimeout = errors.New("event dispatch timed out")

	// ErrDOMNotReady reports that no stable DOM could be produced, usually
	// because a navigation is in flight.
	ErrDOMNotReady = errors.New("DOM is not ready")
)

// InterfaceError is a hard failure of the browser interface itself (lost
// websocket, crashed tab, protocol error). It is never recovered from
// mid-session; the session unwinds to its outermost boundary.
type InterfaceError struct {
	Op  string
	Err error
}

func (e *InterfaceError) Error() string {
	return fmt.Sprintf("browser interface failure during %s: %v", e.Op, e.Err)
}

func (e *InterfaceError) Unwrap() error { return e.Err }

// NewInterfaceError wraps err as a session-fatal interface failure.
func NewInterfaceError(op string, err error) *InterfaceError {
	return &InterfaceError{Op: op, Err: err}
}

// IsInterfaceError reports whether err is (or wraps) an InterfaceError.
func IsInterfaceError(err error) bool {
	var ie *InterfaceError
	return errors.As(err, &ie)
}
