// internal/crawler/verdict.go
package crawler

// Verdict is the side-effect classifier's three-way decision after every
// dispatch. It is a closed set; the state loop switches over it exhaustively
// so a new verdict cannot be silently ignored.
type Verdict int

const (
	// VerdictContinue: the page still looks like the state we enumerated
	// listeners from; keep dispatching.
	VerdictContinue Verdict = iota
	// VerdictNewState: the page transitioned to a different logical state
	// (or the state proved unusable); abandon the current listener list.
	VerdictNewState
	// VerdictTooManyReloads: the reload budget is spent; the whole session
	// must stop.
	VerdictTooManyReloads
)

func (v Verdict) String() string {
	switch v {
	case VerdictContinue:
		return "continue"
	case VerdictNewState:
		return "new-state"
	case VerdictTooManyReloads:
		return "too-many-reloads"
	default:
		return "unknown"
	}
}
