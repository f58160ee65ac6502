// recorder.go — The append-only event sink the interception layer writes to during record
// mode. Adapted from the teacher's RecordingManager (internal/recording/manager_test.go):
// an in-memory ordered slice guarded by a mutex, with the persist step deferred to end of
// run instead of happening per-action.
package trace

import "sync"

// Recorder owns the in-memory ordered event buffer for one execution. It is created at
// engine bootstrap, appended to only by the interception layer, and flushed once at end of
// execution. A Recorder must not be shared across stores/executions — spec section 5 forbids
// aliasing.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder ready to accept events.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds event to the end of the buffer. Single-threaded append: callers are the
// interception layer's host-trait methods, which the host runtime is assumed to invoke from
// one logical thread per spec section 4.3. The mutex guards against the runtime ever
// interleaving async continuations; it is not a concurrency feature to be relied upon.
func (r *Recorder) Append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Len reports how many events have been appended so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Events returns a defensive copy of the buffer in recorded order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Persist writes the buffer to path in format, atomically replacing the destination. It is
// safe to call after a guest trap: whatever was appended before the trap is still written,
// so the failing fixture stays reproducible (spec section 4.3, "Ordering").
func (r *Recorder) Persist(path string, format Format) error {
	return Encode(r.Events(), path, format)
}
