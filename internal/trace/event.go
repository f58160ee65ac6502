// event.go — The trace event model: a tagged sum of every recordable host-call return.
// Mirrors the shape of the teacher's RecordingAction/Recording pair (one struct per kind of
// captured interaction, JSON-tagged fields, an ordered slice as the trace), generalized to
// the ten WASIp2 interactions this harness intercepts instead of browser actions.
package trace

import "fmt"

// Call names the discriminator for one event variant. The string value is the stable,
// lower-snake-case on-wire tag from spec section 4.1 — immutable within a format version.
type Call string

const (
	CallClockNow               Call = "clock_now"
	CallClockResolution        Call = "clock_resolution"
	CallMonotonicNow           Call = "monotonic_clock_now"
	CallMonotonicResolution    Call = "monotonic_clock_resolution"
	CallRandomBytes            Call = "random_bytes"
	CallRandomU64              Call = "random_u64"
	CallEnvironment            Call = "environment"
	CallArguments              Call = "arguments"
	CallInitialCwd             Call = "initial_cwd"
	CallHTTPResponse           Call = "http_response"
)

// EnvPair is one (name, value) entry in an ordered environment or header list. Order and
// duplicates are preserved; textual encoding and binary encoding both carry this shape
// byte-for-byte (case-preserving, case-sensitive on the wire).
type EnvPair struct {
	Name  string
	Value string
}

// Event is a single variant of the trace event tagged sum. Only the field group below that
// belongs to the variant selected by Call is populated. Values are compared by structural
// equality.
//
// A flat struct-of-optional-fields (rather than an interface-per-variant or a Go sum-type
// emulation) keeps every encoding path — textual, binary, and in-memory equality checks in
// tests — a single switch over Call with no type assertions, at the cost of unused fields per
// instance. That trade mirrors the teacher's RecordingAction, which carries fields for every
// action kind ("click", "type", "navigate", "screenshot") in one struct.
type Event struct {
	Call Call

	// ClockNow, ClockResolution
	Seconds     uint64
	Nanoseconds uint32

	// MonotonicNow, MonotonicResolution
	MonotonicNanoseconds uint64

	// RandomBytes
	Bytes []byte

	// RandomU64
	U64 uint64

	// Environment
	Entries []EnvPair

	// Arguments
	Args []string

	// InitialCwd
	Path *string // nil means "absent"

	// HttpResponse
	RequestMethod  string
	RequestURL     string
	RequestHeaders []EnvPair
	Status         uint16
	Headers        []EnvPair
	Body           []byte
}

// NewClockNow constructs a ClockNow event.
func NewClockNow(seconds uint64, nanoseconds uint32) Event {
	return Event{Call: CallClockNow, Seconds: seconds, Nanoseconds: nanoseconds}
}

// NewClockResolution constructs a ClockResolution event.
func NewClockResolution(seconds uint64, nanoseconds uint32) Event {
	return Event{Call: CallClockResolution, Seconds: seconds, Nanoseconds: nanoseconds}
}

// NewMonotonicNow constructs a MonotonicNow event.
func NewMonotonicNow(nanoseconds uint64) Event {
	return Event{Call: CallMonotonicNow, MonotonicNanoseconds: nanoseconds}
}

// NewMonotonicResolution constructs a MonotonicResolution event.
func NewMonotonicResolution(nanoseconds uint64) Event {
	return Event{Call: CallMonotonicResolution, MonotonicNanoseconds: nanoseconds}
}

// NewRandomBytes constructs a RandomBytes event. bytes is copied defensively.
func NewRandomBytes(bytes []byte) Event {
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	return Event{Call: CallRandomBytes, Bytes: cp}
}

// NewRandomU64 constructs a RandomU64 event.
func NewRandomU64(value uint64) Event {
	return Event{Call: CallRandomU64, U64: value}
}

// NewEnvironment constructs an Environment event from ordered (name, value) pairs.
func NewEnvironment(entries []EnvPair) Event {
	return Event{Call: CallEnvironment, Entries: append([]EnvPair(nil), entries...)}
}

// NewArguments constructs an Arguments event from the full argument vector.
func NewArguments(args []string) Event {
	return Event{Call: CallArguments, Args: append([]string(nil), args...)}
}

// NewInitialCwd constructs an InitialCwd event. path nil means the guest observed no cwd.
func NewInitialCwd(path *string) Event {
	return Event{Call: CallInitialCwd, Path: path}
}

// NewHTTPResponse constructs an HttpResponse event capturing both the outgoing request
// context (for diagnostics and round-tripping, not request matching) and the response.
func NewHTTPResponse(method, url string, reqHeaders []EnvPair, status uint16, respHeaders []EnvPair, body []byte) Event {
	cp := make([]byte, len(body))
	copy(cp, body)
	return Event{
		Call:           CallHTTPResponse,
		RequestMethod:  method,
		RequestURL:     url,
		RequestHeaders: append([]EnvPair(nil), reqHeaders...),
		Status:         status,
		Headers:        append([]EnvPair(nil), respHeaders...),
		Body:           cp,
	}
}

// Equal reports whether e and other are structurally identical, the equality notion
// spec section 3 requires for round-trip and determinism checks.
func (e Event) Equal(other Event) bool {
	if e.Call != other.Call {
		return false
	}
	switch e.Call {
	case CallClockNow, CallClockResolution:
		return e.Seconds == other.Seconds && e.Nanoseconds == other.Nanoseconds
	case CallMonotonicNow, CallMonotonicResolution:
		return e.MonotonicNanoseconds == other.MonotonicNanoseconds
	case CallRandomBytes:
		return bytesEqual(e.Bytes, other.Bytes)
	case CallRandomU64:
		return e.U64 == other.U64
	case CallEnvironment:
		return pairsEqual(e.Entries, other.Entries)
	case CallArguments:
		return stringsEqual(e.Args, other.Args)
	case CallInitialCwd:
		return optStringEqual(e.Path, other.Path)
	case CallHTTPResponse:
		return e.RequestMethod == other.RequestMethod &&
			e.RequestURL == other.RequestURL &&
			pairsEqual(e.RequestHeaders, other.RequestHeaders) &&
			e.Status == other.Status &&
			pairsEqual(e.Headers, other.Headers) &&
			bytesEqual(e.Body, other.Body)
	default:
		return false
	}
}

// String renders a short diagnostic form: the discriminator plus a context-dependent
// summary, used in diagnostics such as test failure messages.
func (e Event) String() string {
	switch e.Call {
	case CallClockNow, CallClockResolution:
		return fmt.Sprintf("%s(%d.%09d)", e.Call, e.Seconds, e.Nanoseconds)
	case CallMonotonicNow, CallMonotonicResolution:
		return fmt.Sprintf("%s(%dns)", e.Call, e.MonotonicNanoseconds)
	case CallRandomBytes:
		return fmt.Sprintf("%s(len=%d)", e.Call, len(e.Bytes))
	case CallRandomU64:
		return fmt.Sprintf("%s(%d)", e.Call, e.U64)
	case CallEnvironment:
		return fmt.Sprintf("%s(%d entries)", e.Call, len(e.Entries))
	case CallArguments:
		return fmt.Sprintf("%s(%d args)", e.Call, len(e.Args))
	case CallInitialCwd:
		if e.Path == nil {
			return fmt.Sprintf("%s(<absent>)", e.Call)
		}
		return fmt.Sprintf("%s(%s)", e.Call, *e.Path)
	case CallHTTPResponse:
		return fmt.Sprintf("%s(%s %s -> %d)", e.Call, e.RequestMethod, e.RequestURL, e.Status)
	default:
		return string(e.Call)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func pairsEqual(a, b []EnvPair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func optStringEqual(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}
