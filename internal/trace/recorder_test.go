package trace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderAppendPreservesOrder(t *testing.T) {
	r := NewRecorder()
	r.Append(NewClockNow(1, 0))
	r.Append(NewRandomU64(7))
	r.Append(NewMonotonicNow(9))

	events := r.Events()
	require.Equal(t, 3, r.Len())
	require.Equal(t, CallClockNow, events[0].Call)
	require.Equal(t, CallRandomU64, events[1].Call)
	require.Equal(t, CallMonotonicNow, events[2].Call)
}

func TestRecorderEventsReturnsCopy(t *testing.T) {
	r := NewRecorder()
	r.Append(NewRandomU64(1))
	events := r.Events()
	events[0] = NewRandomU64(999)
	require.Equal(t, uint64(1), r.Events()[0].U64, "Events() must return a defensive copy")
}

func TestRecorderPersistAfterPartialRun(t *testing.T) {
	r := NewRecorder()
	r.Append(NewClockNow(1, 0))
	r.Append(NewRandomU64(2))
	// Simulate a trap after two events: persist must still write what was appended so far.
	path := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, r.Persist(path, FormatTextual))

	got, err := Decode(path, FormatTextual)
	require.NoError(t, err)
	require.Len(t, got, 2)
}
