// Package traceerr defines the structurally distinct error kinds raised across the core:
// malformed traces, replay divergence, exhaustion, linker failures, guest traps, and I/O
// failures. None of these are sentinel strings — each is a concrete type so callers can
// recover structured context with errors.As instead of string-matching.
package traceerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidTrace reports a malformed trace encoding: a bad discriminator, a missing field,
// a non-hex byte string, or trailing junk mid-event in the binary reader.
type InvalidTrace struct {
	Reason string
	Cause  error
}

func (e *InvalidTrace) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid trace: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid trace: %s", e.Reason)
}

func (e *InvalidTrace) Unwrap() error { return e.Cause }

// Mismatch reports that replay observed a different event variant than expected at a given
// position in the trace.
type Mismatch struct {
	Interface string // human-readable call site, e.g. "wall-clock.now"
	Expected  string // discriminator the interception layer needed for this call
	Observed  string // discriminator of the event the cursor held
	Index     int    // 0-based position in the event stream
}

func (e *Mismatch) Error() string {
	return fmt.Sprintf("trace mismatch at event %d (%s): expected %q, observed %q",
		e.Index, e.Interface, e.Expected, e.Observed)
}

// Exhausted reports that replay reached end-of-trace while the guest was still issuing
// intercepted calls.
type Exhausted struct {
	Interface string
	Index     int // number of events consumed before exhaustion
}

func (e *Exhausted) Error() string {
	return fmt.Sprintf("trace exhausted after %d events: guest still issuing %s calls", e.Index, e.Interface)
}

// LinkError reports that the component requires an import the linker could not satisfy, or
// that registering a host module failed outright.
type LinkError struct {
	Interface string
	Cause     error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("component link error for %q: %v", e.Interface, e.Cause)
}

func (e *LinkError) Unwrap() error { return e.Cause }

// GuestTrap reports that the component aborted. In record mode the log up to the failing
// call is still persisted by the caller before this error reaches the top-level driver.
type GuestTrap struct {
	Cause error
}

func (e *GuestTrap) Error() string { return fmt.Sprintf("guest trap: %v", e.Cause) }

func (e *GuestTrap) Unwrap() error { return e.Cause }

// IO wraps an underlying sink, source, or network failure with path/URL context.
type IO struct {
	Context string // e.g. a file path or request URL
	Cause   error
}

func (e *IO) Error() string { return fmt.Sprintf("io error (%s): %v", e.Context, e.Cause) }

func (e *IO) Unwrap() error { return e.Cause }

// WrapIO wraps cause as an IO error with path/URL context, using pkg/errors so the
// underlying stack frame survives for diagnostics.
func WrapIO(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &IO{Context: context, Cause: errors.WithStack(cause)}
}

// WrapLink wraps cause as a LinkError for the named interface.
func WrapLink(iface string, cause error) error {
	if cause == nil {
		return nil
	}
	return &LinkError{Interface: iface, Cause: errors.WithStack(cause)}
}
