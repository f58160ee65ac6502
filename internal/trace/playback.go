// playback.go — The strictly-forward, single-consumer event cursor the interception layer
// reads from during replay. Adapted from the teacher's PlaybackSession/StartPlayback pair
// (internal/recording/playback_engine.go): a loaded ordered sequence plus an index, advanced
// one step per call instead of replaying an entire action list in one pass.
package trace

import "github.com/wasm-rr/wasm-rr/internal/traceerr"

// Playback owns an ordered event source loaded from a trace file and a cursor index into
// it. It is created at engine bootstrap from a fully loaded trace and advanced by the
// interception layer. There is no rewind, no lookahead that affects position, and no skip;
// two concurrent consumers against one Playback are forbidden (spec section 4.4).
type Playback struct {
	events []Event
	pos    int
}

// NewPlayback loads events as the source a Playback will iterate.
func NewPlayback(events []Event) *Playback {
	return &Playback{events: events}
}

// Pos reports how many events have been consumed so far.
func (p *Playback) Pos() int { return p.pos }

// Remaining reports how many events are left to consume.
func (p *Playback) Remaining() int { return len(p.events) - p.pos }

// Exhausted reports whether every event has been consumed. Exhaustion at end of a run is
// permitted — the guest may legitimately terminate before consuming the whole trace.
func (p *Playback) Exhausted() bool { return p.pos >= len(p.events) }

// Next requests the next event for the named interface and requires it to match want. On a
// match, it advances the cursor and returns the event's stored fields. On a variant mismatch
// it returns a *traceerr.Mismatch; on exhaustion it returns a *traceerr.Exhausted. Neither
// failure advances the cursor.
func (p *Playback) Next(iface string, want Call) (Event, error) {
	if p.Exhausted() {
		return Event{}, &traceerr.Exhausted{Interface: iface, Index: p.pos}
	}
	e := p.events[p.pos]
	if e.Call != want {
		return Event{}, &traceerr.Mismatch{
			Interface: iface,
			Expected:  string(want),
			Observed:  string(e.Call),
			Index:     p.pos,
		}
	}
	p.pos++
	return e, nil
}
