package pipeline

import (
	"context"
	"sync"
)

// Tracker keeps the cancel functions of in-flight calls so shutdown can
// end them and wait for their teardown.
type Tracker struct {
	mu    sync.Mutex
	calls map[string]*trackedCall
	wg    sync.WaitGroup
}

type trackedCall struct {
	cancel func()
	once   sync.Once
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{calls: make(map[string]*trackedCall)}
}

// Register adds a call. The returned function must be called when the call
// ends; calling it more than once is safe.
func (t *Tracker) Register(id string, cancel func()) (unregister func()) {
	if t == nil {
		return func() {}
	}

	entry := &trackedCall{cancel: cancel}

	t.mu.Lock()
	old := t.calls[id]
	t.calls[id] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(id, old)
	}
	return func() { t.unregister(id, entry) }
}

func (t *Tracker) unregister(id string, entry *trackedCall) {
	entry.once.Do(func() {
		t.mu.Lock()
		if t.calls[id] == entry {
			delete(t.calls, id)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

// Count returns the number of registered calls
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// CancelAll cancels every registered call and returns how many were cancelled
func (t *Tracker) CancelAll() int {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, entry := range t.calls {
		if entry.cancel != nil {
			cancels = append(cancels, entry.cancel)
		}
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Wait blocks until every registered call has unregistered or ctx ends.
// It reports whether all calls finished.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}

	// If ctx ends first this goroutine stays parked until the last call
	// unregisters; Wait runs once at shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
