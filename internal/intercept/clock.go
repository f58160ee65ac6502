// clock.go — Wall-clock and monotonic-clock interception: record delegates to the real host
// clock and logs the return value; replay consumes the next event and requires it to be the
// matching clock variant (spec section 4.5).
package intercept

import (
	"time"

	"github.com/wasm-rr/wasm-rr/internal/trace"
)

// SystemClock is the real host clock capability used during record. Resolution is a fixed
// nanosecond value the way most host runtimes report a clock_getres granularity rather than
// measuring it live.
type SystemClock struct {
	ResolutionNanoseconds uint64
}

// NewSystemClock returns a SystemClock with a 1-microsecond resolution, wazero's default
// reported granularity for its wall and monotonic clocks.
func NewSystemClock() SystemClock {
	return SystemClock{ResolutionNanoseconds: 1000}
}

func (c SystemClock) wallNow() (uint64, uint32) {
	now := time.Now()
	return uint64(now.Unix()), uint32(now.Nanosecond())
}

func (c SystemClock) monotonicNow() uint64 {
	return uint64(time.Now().UnixNano())
}

// RecordWallClock delegates to a SystemClock, appends one ClockNow/ClockResolution event per
// call, and returns the same value to the guest.
type RecordWallClock struct {
	Clock    SystemClock
	Recorder *trace.Recorder
}

func (r RecordWallClock) Now() (uint64, uint32, error) {
	s, ns := r.Clock.wallNow()
	r.Recorder.Append(trace.NewClockNow(s, ns))
	return s, ns, nil
}

func (r RecordWallClock) Resolution() (uint64, uint32, error) {
	s, ns := uint64(0), uint32(r.Clock.ResolutionNanoseconds)
	r.Recorder.Append(trace.NewClockResolution(s, ns))
	return s, ns, nil
}

// ReplayWallClock consumes ClockNow/ClockResolution events from a trace.Playback, performing
// no real clock read.
type ReplayWallClock struct {
	Playback *trace.Playback
}

func (r ReplayWallClock) Now() (uint64, uint32, error) {
	e, err := r.Playback.Next("wall-clock.now", trace.CallClockNow)
	if err != nil {
		return 0, 0, err
	}
	return e.Seconds, e.Nanoseconds, nil
}

func (r ReplayWallClock) Resolution() (uint64, uint32, error) {
	e, err := r.Playback.Next("wall-clock.resolution", trace.CallClockResolution)
	if err != nil {
		return 0, 0, err
	}
	return e.Seconds, e.Nanoseconds, nil
}

// RecordMonotonicClock is symmetric to RecordWallClock for the monotonic interface.
type RecordMonotonicClock struct {
	Clock    SystemClock
	Recorder *trace.Recorder
}

func (r RecordMonotonicClock) Now() (uint64, error) {
	ns := r.Clock.monotonicNow()
	r.Recorder.Append(trace.NewMonotonicNow(ns))
	return ns, nil
}

func (r RecordMonotonicClock) Resolution() (uint64, error) {
	ns := r.Clock.ResolutionNanoseconds
	r.Recorder.Append(trace.NewMonotonicResolution(ns))
	return ns, nil
}

// ReplayMonotonicClock is symmetric to ReplayWallClock for the monotonic interface.
type ReplayMonotonicClock struct {
	Playback *trace.Playback
}

func (r ReplayMonotonicClock) Now() (uint64, error) {
	e, err := r.Playback.Next("monotonic-clock.now", trace.CallMonotonicNow)
	if err != nil {
		return 0, err
	}
	return e.MonotonicNanoseconds, nil
}

func (r ReplayMonotonicClock) Resolution() (uint64, error) {
	e, err := r.Playback.Next("monotonic-clock.resolution", trace.CallMonotonicResolution)
	if err != nil {
		return 0, err
	}
	return e.MonotonicNanoseconds, nil
}

var (
	_ WallClock      = RecordWallClock{}
	_ WallClock      = ReplayWallClock{}
	_ MonotonicClock = RecordMonotonicClock{}
	_ MonotonicClock = ReplayMonotonicClock{}
)
