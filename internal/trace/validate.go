// validate.go — Builds the human-readable diagnostics reported at replay time (spec section
// 4.7). The validator itself never raises the trap: Playback.Next already returns a
// structured *traceerr.Mismatch or *traceerr.Exhausted; this just renders it consistently for
// the CLI collaborator and for test assertions.
package trace

import (
	"fmt"

	"github.com/wasm-rr/wasm-rr/internal/traceerr"
)

// Describe renders a one-line diagnostic for any replay-time error produced by this package,
// naming the interface, the expected and observed discriminators, and the event index for a
// mismatch, or the consumed-event count for exhaustion. Errors of other kinds are rendered
// with their own Error() text.
func Describe(err error) string {
	var mismatch *traceerr.Mismatch
	var exhausted *traceerr.Exhausted
	switch {
	case asMismatch(err, &mismatch):
		return fmt.Sprintf("trace mismatch: interface=%s index=%d expected=%s observed=%s",
			mismatch.Interface, mismatch.Index, mismatch.Expected, mismatch.Observed)
	case asExhausted(err, &exhausted):
		return fmt.Sprintf("trace exhausted: interface=%s consumed=%d", exhausted.Interface, exhausted.Index)
	default:
		return err.Error()
	}
}

func asMismatch(err error, target **traceerr.Mismatch) bool {
	m, ok := err.(*traceerr.Mismatch)
	if ok {
		*target = m
	}
	return ok
}

func asExhausted(err error, target **traceerr.Exhausted) bool {
	e, ok := err.(*traceerr.Exhausted)
	if ok {
		*target = e
	}
	return ok
}
