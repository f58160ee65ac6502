// Package intercept provides the host-trait implementations for each non-deterministic
// WASIp2 interface named in spec section 4.5: wall clock, monotonic clock, random, CLI
// environment, and outgoing HTTP. Each interface in this package is implemented twice — a
// Record shape that delegates to a real host capability and appends one event per call, and
// a Replay shape that consumes one event per call from a trace.Playback and performs no real
// host I/O. Engine bootstrap (internal/engine) selects which shape to wire into the linker
// based on run mode; this package never imports the runtime.
//
// This mirrors the teacher's capture.SchemaStore/CSPGenerator/ClientRegistry interfaces
// (internal/capture/interfaces.go): small contracts implemented elsewhere, called by a single
// composition point. Here the "elsewhere" is a sum of exactly two concrete types instead of
// an open set of implementers, per design note in spec section 9 (dynamic dispatch collapses
// to two variants, not a trait object).
package intercept

import "github.com/wasm-rr/wasm-rr/internal/trace"

// WallClock is the host trait for the wall-clock interface.
type WallClock interface {
	Now() (seconds uint64, nanoseconds uint32, err error)
	Resolution() (seconds uint64, nanoseconds uint32, err error)
}

// MonotonicClock is the host trait for the monotonic-clock interface.
type MonotonicClock interface {
	Now() (nanoseconds uint64, err error)
	Resolution() (nanoseconds uint64, err error)
}

// Random is the host trait serving both the "secure" and "insecure" randomness surfaces the
// runtime exposes — the guest's choice between them is opaque at record time, since the host
// produces the same quality either way (spec section 4.5).
type Random interface {
	GetRandomBytes(length uint32) ([]byte, error)
	GetRandomU64() (uint64, error)
}

// EnvironmentCLI is the host trait for the environment/arguments/initial-cwd interface.
// Each method call records or consumes exactly one event — the canonical "one-event-per-call"
// contract spec section 9 settles the environment-caching open question with.
type EnvironmentCLI interface {
	GetEnvironment() ([]trace.EnvPair, error)
	GetArguments() ([]string, error)
	InitialCwd() (*string, error)
}

// HTTPRequest is the outgoing request the guest asked the host to perform. Body is used to
// actually perform the request during record; it is not part of the trace (spec section 4.5:
// "stored request fields are recorded for diagnostics ... not for request matching").
type HTTPRequest struct {
	Method  string
	URL     string
	Headers []trace.EnvPair
	Body    []byte
}

// HTTPResponse is the response delivered back to the guest, buffered in full (spec section
// 4.5: "streaming is flattened at the boundary").
type HTTPResponse struct {
	Status  uint16
	Headers []trace.EnvPair
	Body    []byte
}

// OutgoingHTTP is the host trait for the outgoing-handler interface: one logical
// request-in/response-out operation.
type OutgoingHTTP interface {
	Send(req HTTPRequest) (HTTPResponse, error)
}

// Host bundles the real, non-deterministic host capabilities available only in record mode.
// Engine bootstrap does not build a Host: it sets these capabilities directly on each Record*
// implementation.
type Host struct {
	Clock  SystemClock
	Random SecureRandom
	Env    ProcessEnvironment
	HTTP   RealOutgoingHTTP
}
