// codec.go — Lossless serialization of a trace to the textual and binary wire encodings
// described in spec section 4.2, plus format conversion between them.
//
// Textual encoding is a single JSON document {"events": [...]}; binary encoding is a bare
// concatenation of CBOR-encoded event objects with no outer envelope. Both encodings share
// the same per-event field set (spec section 3); only the byte-sequence representation
// differs (lower-case hex in text, a native byte string in binary).
package trace

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/wasm-rr/wasm-rr/internal/traceerr"
)

// Format selects a wire encoding.
type Format int

const (
	// FormatTextual is the JSON document encoding (".json").
	FormatTextual Format = iota
	// FormatBinary is the concatenated-CBOR encoding (".cbor").
	FormatBinary
)

// InferFormat maps a file extension to a Format. ".json" is textual, ".cbor" is binary; any
// other extension returns ok=false and the caller must require an explicit --format flag.
func InferFormat(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatTextual, true
	case ".cbor":
		return FormatBinary, true
	default:
		return 0, false
	}
}

// pair is the wire shape of an EnvPair: an explicit object so JSON and CBOR both preserve
// order and duplicates, rather than collapsing into a map.
type pair struct {
	Name  string `json:"name" cbor:"name"`
	Value string `json:"value" cbor:"value"`
}

func toWirePairs(in []EnvPair) []pair {
	if in == nil {
		return nil
	}
	out := make([]pair, len(in))
	for i, p := range in {
		out[i] = pair{Name: p.Name, Value: p.Value}
	}
	return out
}

func fromWirePairs(in []pair) []EnvPair {
	if in == nil {
		return nil
	}
	out := make([]EnvPair, len(in))
	for i, p := range in {
		out[i] = EnvPair{Name: p.Name, Value: p.Value}
	}
	return out
}

// jsonWire is the textual wire shape for one event. Every field is optional and a pointer
// (or nil slice) so only the fields relevant to Call are emitted — the fixed struct field
// order is what gives the textual encoding its deterministic key order.
type jsonWire struct {
	Call           string  `json:"call"`
	Seconds        *uint64 `json:"seconds,omitempty"`
	Nanoseconds    *uint64 `json:"nanoseconds,omitempty"`
	Bytes          *string `json:"bytes,omitempty"`
	Value          *uint64 `json:"value,omitempty"`
	Entries        []pair  `json:"entries,omitempty"`
	Args           []string `json:"args,omitempty"`
	Path           *string `json:"path,omitempty"`
	RequestMethod  *string `json:"request_method,omitempty"`
	RequestURL     *string `json:"request_url,omitempty"`
	RequestHeaders []pair  `json:"request_headers,omitempty"`
	Status         *uint16 `json:"status,omitempty"`
	Headers        []pair  `json:"headers,omitempty"`
	Body           *string `json:"body,omitempty"`
}

// cborWire mirrors jsonWire but carries byte sequences natively instead of as hex text.
type cborWire struct {
	Call           string   `cbor:"call"`
	Seconds        *uint64  `cbor:"seconds,omitempty"`
	Nanoseconds    *uint64  `cbor:"nanoseconds,omitempty"`
	Bytes          []byte   `cbor:"bytes"`
	Value          *uint64  `cbor:"value,omitempty"`
	Entries        []pair   `cbor:"entries,omitempty"`
	Args           []string `cbor:"args,omitempty"`
	Path           *string  `cbor:"path,omitempty"`
	RequestMethod  *string  `cbor:"request_method,omitempty"`
	RequestURL     *string  `cbor:"request_url,omitempty"`
	RequestHeaders []pair   `cbor:"request_headers,omitempty"`
	Status         *uint16  `cbor:"status,omitempty"`
	Headers        []pair   `cbor:"headers,omitempty"`
	Body           []byte   `cbor:"body"`
}

func u64p(v uint64) *uint64 { return &v }
func u16p(v uint16) *uint16 { return &v }
func strp(v string) *string { return &v }

func toJSONWire(e Event) (jsonWire, error) {
	w := jsonWire{Call: string(e.Call)}
	switch e.Call {
	case CallClockNow, CallClockResolution:
		w.Seconds = u64p(e.Seconds)
		w.Nanoseconds = u64p(uint64(e.Nanoseconds))
	case CallMonotonicNow, CallMonotonicResolution:
		w.Nanoseconds = u64p(e.MonotonicNanoseconds)
	case CallRandomBytes:
		h := hex.EncodeToString(e.Bytes)
		w.Bytes = &h
	case CallRandomU64:
		w.Value = u64p(e.U64)
	case CallEnvironment:
		w.Entries = toWirePairs(e.Entries)
		if w.Entries == nil {
			w.Entries = []pair{}
		}
	case CallArguments:
		w.Args = e.Args
		if w.Args == nil {
			w.Args = []string{}
		}
	case CallInitialCwd:
		w.Path = e.Path
	case CallHTTPResponse:
		w.RequestMethod = strp(e.RequestMethod)
		w.RequestURL = strp(e.RequestURL)
		w.RequestHeaders = toWirePairs(e.RequestHeaders)
		w.Status = u16p(e.Status)
		w.Headers = toWirePairs(e.Headers)
		h := hex.EncodeToString(e.Body)
		w.Body = &h
	default:
		return jsonWire{}, &traceerr.InvalidTrace{Reason: fmt.Sprintf("unknown call discriminator %q", e.Call)}
	}
	return w, nil
}

func fromJSONWire(w jsonWire) (Event, error) {
	call := Call(w.Call)
	missing := func(field string) error {
		return &traceerr.InvalidTrace{Reason: fmt.Sprintf("event %q missing field %q", w.Call, field)}
	}
	switch call {
	case CallClockNow, CallClockResolution:
		if w.Seconds == nil {
			return Event{}, missing("seconds")
		}
		if w.Nanoseconds == nil {
			return Event{}, missing("nanoseconds")
		}
		return Event{Call: call, Seconds: *w.Seconds, Nanoseconds: uint32(*w.Nanoseconds)}, nil
	case CallMonotonicNow, CallMonotonicResolution:
		if w.Nanoseconds == nil {
			return Event{}, missing("nanoseconds")
		}
		return Event{Call: call, MonotonicNanoseconds: *w.Nanoseconds}, nil
	case CallRandomBytes:
		if w.Bytes == nil {
			return Event{}, missing("bytes")
		}
		b, err := hex.DecodeString(*w.Bytes)
		if err != nil {
			return Event{}, &traceerr.InvalidTrace{Reason: "random_bytes: non-hex byte string", Cause: err}
		}
		return Event{Call: call, Bytes: b}, nil
	case CallRandomU64:
		if w.Value == nil {
			return Event{}, missing("value")
		}
		return Event{Call: call, U64: *w.Value}, nil
	case CallEnvironment:
		return Event{Call: call, Entries: fromWirePairs(w.Entries)}, nil
	case CallArguments:
		return Event{Call: call, Args: w.Args}, nil
	case CallInitialCwd:
		return Event{Call: call, Path: w.Path}, nil
	case CallHTTPResponse:
		if w.RequestMethod == nil || w.RequestURL == nil || w.Status == nil || w.Body == nil {
			return Event{}, missing("request_method/request_url/status/body")
		}
		b, err := hex.DecodeString(*w.Body)
		if err != nil {
			return Event{}, &traceerr.InvalidTrace{Reason: "http_response: non-hex body", Cause: err}
		}
		return Event{
			Call:           call,
			RequestMethod:  *w.RequestMethod,
			RequestURL:     *w.RequestURL,
			RequestHeaders: fromWirePairs(w.RequestHeaders),
			Status:         *w.Status,
			Headers:        fromWirePairs(w.Headers),
			Body:           b,
		}, nil
	default:
		return Event{}, &traceerr.InvalidTrace{Reason: fmt.Sprintf("unknown call discriminator %q", w.Call)}
	}
}

func toCBORWire(e Event) (cborWire, error) {
	jw, err := toJSONWire(e)
	if err != nil {
		return cborWire{}, err
	}
	w := cborWire{
		Call:           jw.Call,
		Seconds:        jw.Seconds,
		Nanoseconds:    jw.Nanoseconds,
		Value:          jw.Value,
		Entries:        jw.Entries,
		Args:           jw.Args,
		Path:           jw.Path,
		RequestMethod:  jw.RequestMethod,
		RequestURL:     jw.RequestURL,
		RequestHeaders: jw.RequestHeaders,
		Status:         jw.Status,
		Headers:        jw.Headers,
	}
	if e.Call == CallRandomBytes {
		w.Bytes = e.Bytes
	}
	if e.Call == CallHTTPResponse {
		w.Body = e.Body
	}
	return w, nil
}

func fromCBORWire(w cborWire) (Event, error) {
	jw := jsonWire{
		Call:           w.Call,
		Seconds:        w.Seconds,
		Nanoseconds:    w.Nanoseconds,
		Value:          w.Value,
		Entries:        w.Entries,
		Args:           w.Args,
		Path:           w.Path,
		RequestMethod:  w.RequestMethod,
		RequestURL:     w.RequestURL,
		RequestHeaders: w.RequestHeaders,
		Status:         w.Status,
		Headers:        w.Headers,
	}
	if w.Call == string(CallRandomBytes) {
		h := hex.EncodeToString(w.Bytes)
		jw.Bytes = &h
	}
	if w.Call == string(CallHTTPResponse) {
		h := hex.EncodeToString(w.Body)
		jw.Body = &h
	}
	return fromJSONWire(jw)
}

// document is the top-level textual envelope: a single "events" key.
type document struct {
	Events []jsonWire `json:"events"`
}

// EncodeTextual writes events to sink as the textual document, LF-terminated and with a
// stable pretty-printed layout (two-space indent, fixed struct field order per event).
func EncodeTextual(events []Event, w io.Writer) error {
	doc := document{Events: make([]jsonWire, len(events))}
	for i, e := range events {
		jw, err := toJSONWire(e)
		if err != nil {
			return err
		}
		doc.Events[i] = jw
	}
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &traceerr.InvalidTrace{Reason: "encode textual trace", Cause: err}
	}
	buf = append(buf, '\n')
	_, err = w.Write(buf)
	return err
}

// DecodeTextual reads the textual document and returns its full ordered event sequence.
func DecodeTextual(r io.Reader) ([]Event, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &traceerr.InvalidTrace{Reason: "malformed textual trace", Cause: err}
	}
	out := make([]Event, len(doc.Events))
	for i, jw := range doc.Events {
		e, err := fromJSONWire(jw)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// EncodeBinary writes events to sink as a bare concatenation of CBOR-encoded event objects,
// with no outer envelope.
func EncodeBinary(events []Event, w io.Writer) error {
	enc := cbor.NewEncoder(w)
	for _, e := range events {
		cw, err := toCBORWire(e)
		if err != nil {
			return err
		}
		if err := enc.Encode(cw); err != nil {
			return &traceerr.InvalidTrace{Reason: "encode binary event", Cause: err}
		}
	}
	return nil
}

// DecodeBinary reads a stream of concatenated CBOR event objects until a clean end-of-stream.
// End-of-stream after a complete event boundary is normal termination; anything else (a
// truncated item mid-event) is reported as InvalidTrace.
func DecodeBinary(r io.Reader) ([]Event, error) {
	dec := cbor.NewDecoder(r)
	var out []Event
	for {
		var cw cborWire
		err := dec.Decode(&cw)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, &traceerr.InvalidTrace{Reason: "truncated binary trace mid-event", Cause: err}
		}
		e, err := fromCBORWire(cw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// Encode writes events to sink using format, then atomically replaces the destination file
// on success (write to a temp file in the same directory, then rename).
func Encode(events []Event, path string, format Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".wasm-rr-trace-*")
	if err != nil {
		return traceerr.WrapIO(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var encErr error
	switch format {
	case FormatTextual:
		encErr = EncodeTextual(events, tmp)
	case FormatBinary:
		encErr = EncodeBinary(events, tmp)
	default:
		encErr = fmt.Errorf("unknown format %v", format)
	}
	if closeErr := tmp.Close(); encErr == nil {
		encErr = closeErr
	}
	if encErr != nil {
		return traceerr.WrapIO(path, encErr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return traceerr.WrapIO(path, err)
	}
	return nil
}

// Decode reads the full ordered event sequence from path using format.
func Decode(path string, format Format) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, traceerr.WrapIO(path, err)
	}
	defer f.Close()

	switch format {
	case FormatTextual:
		return DecodeTextual(f)
	case FormatBinary:
		return DecodeBinary(f)
	default:
		return nil, fmt.Errorf("unknown format %v", format)
	}
}

// Convert decodes inPath with inFormat and encodes to outPath with outFormat. Formats
// default to extension inference; an unrecognized extension with no explicit format is a
// usage error surfaced to the caller.
func Convert(inPath, outPath string, inFormat, outFormat *Format) error {
	in := FormatTextual
	if inFormat != nil {
		in = *inFormat
	} else if f, ok := InferFormat(inPath); ok {
		in = f
	} else {
		return fmt.Errorf("cannot infer input format from %q; pass --input-format", inPath)
	}

	out := FormatTextual
	if outFormat != nil {
		out = *outFormat
	} else if f, ok := InferFormat(outPath); ok {
		out = f
	} else {
		return fmt.Errorf("cannot infer output format from %q; pass --output-format", outPath)
	}

	events, err := Decode(inPath, in)
	if err != nil {
		return err
	}
	return Encode(events, outPath, out)
}
