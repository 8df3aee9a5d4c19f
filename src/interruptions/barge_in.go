package interruptions

import "sync"

// State is the relay's view of whether AI audio should reach the caller
type State int

const (
	// Speaking means AI audio deltas are forwarded
	Speaking State = iota
	// Interrupted means the in-flight response was cancelled and its
	// remaining deltas are dropped
	Interrupted
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// BargeIn tracks interruption of AI speech by the caller.
//
// The realtime session never announces that it resumed speaking, so the
// return to Speaking is inferred: the first delta that belongs to a
// different response than the cancelled one ends the interruption.
//
// The in-flight response is the one last passed to Begin, or failing that
// the one whose delta was last admitted. Done forgets it, so an interruption
// between two responses cancels nothing instead of naming a finished one.
type BargeIn struct {
	mu        sync.Mutex
	state     State
	current   string // response in flight, empty between responses
	cancelled string // response cancelled by the last interruption
}

// NewBargeIn starts in Speaking
func NewBargeIn() *BargeIn {
	return &BargeIn{state: Speaking}
}

// Admit reports whether an audio delta for responseID may be forwarded.
// Deltas without a response id cannot be attributed and are admitted.
func (b *BargeIn) Admit(responseID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Interrupted {
		if responseID != "" && responseID == b.cancelled {
			return false
		}
		b.state = Speaking
		b.cancelled = ""
	}
	if responseID != "" {
		b.current = responseID
	}
	return true
}

// Begin records responseID as the response in flight, typically on
// response.created and before any of its audio arrives.
func (b *BargeIn) Begin(responseID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if responseID != "" {
		b.current = responseID
	}
}

// Done forgets responseID if it is the response in flight
func (b *BargeIn) Done(responseID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if responseID != "" && responseID == b.current {
		b.current = ""
	}
}

// Interrupt moves to Interrupted and returns the id of the response being
// cancelled, empty if none is in flight. A repeated interruption with no
// newer response keeps the earlier cancelled id.
func (b *BargeIn) Interrupt() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != "" {
		b.cancelled = b.current
	}
	b.state = Interrupted
	return b.cancelled
}

// State returns the current state
func (b *BargeIn) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
