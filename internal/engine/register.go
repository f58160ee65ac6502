// register.go — Per-interface host module builders. Each function lowers one intercepted
// WASIp2 call into a wazero host function: read any scalar/memory arguments, call the selected
// host-trait implementation, write the result into guest linear memory. This mirrors wazero's
// own wasi_snapshot_preview1 host functions (api.Module, raw memory offsets, result packed as
// a trap-on-fault write) rather than inventing a new calling convention.
//
// Variable-length results (string lists, header lists, byte bodies) are written as a
// self-describing, length-prefixed encoding directly into guest memory at a caller-supplied
// pointer — the same "count, then length-prefixed item" shape internal/trace's binary codec
// already uses for byte-sequence fields, and the same caller-provides-the-buffer discipline
// wasi_snapshot_preview1's own args_get/environ_get host functions use (the guest learns sizes
// and provides a big-enough buffer; the host never calls back into the guest to allocate one).
// A write past the end of guest memory reports a fault the same way writeTimestamp/writeBytes
// already do for the clock and random paths.
package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasm-rr/wasm-rr/internal/intercept"
	"github.com/wasm-rr/wasm-rr/internal/trace"
)

const (
	memFault = 1 << 63 // sentinel high bit signaling a memory write fault to the trap wrapper
)

func trapOnFault(ok bool) uint64 {
	if ok {
		return 0
	}
	return memFault
}

func (b *bindings) buildWallClock(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			resultPtr := uint32(stack[0])
			s, ns, err := b.wallClock.Now()
			stack[0] = b.writeTimestamp(ctx, mod, resultPtr, s, ns, err)
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("now")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			resultPtr := uint32(stack[0])
			s, ns, err := b.wallClock.Resolution()
			stack[0] = b.writeTimestamp(ctx, mod, resultPtr, s, ns, err)
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("resolution")
}

func (b *bindings) buildMonotonicClock(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ns, err := b.monotonic.Now()
			if err != nil {
				stack[0] = memFault
				return
			}
			stack[0] = ns
		}), nil, []api.ValueType{api.ValueTypeI64}).
		Export("now")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ns, err := b.monotonic.Resolution()
			if err != nil {
				stack[0] = memFault
				return
			}
			stack[0] = ns
		}), nil, []api.ValueType{api.ValueTypeI64}).
		Export("resolution")
}

func (b *bindings) buildRandom(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			length := uint32(stack[0])
			resultPtr := uint32(stack[1])
			bytes, err := b.random.GetRandomBytes(length)
			stack[0] = b.writeBytes(mod, resultPtr, bytes, err)
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("get-random-bytes")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			v, err := b.random.GetRandomU64()
			if err != nil {
				stack[0] = memFault
				return
			}
			stack[0] = v
		}), nil, []api.ValueType{api.ValueTypeI64}).
		Export("get-random-u64")
}

// buildEnvironmentCLI registers get-environment, get-arguments, and initial-cwd. Each takes a
// single result pointer and writes its full variable-length result at that address: a pair
// list, a string list, or an optional string, per writePairsAt/writeStringListAt/initialCwd
// below. None of these discard the host-trait's return value — every call's real bytes land in
// guest memory, matching spec section 4.5's Environment/CLI contract.
func (b *bindings) buildEnvironmentCLI(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = b.getEnvironment(mod, uint32(stack[0]))
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("get-environment")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = b.getArguments(mod, uint32(stack[0]))
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("get-arguments")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = b.initialCwd(mod, uint32(stack[0]))
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("initial-cwd")
}

// getEnvironment calls the selected EnvironmentCLI implementation exactly once and writes the
// returned pairs at resultPtr.
func (b *bindings) getEnvironment(mod api.Module, resultPtr uint32) uint64 {
	entries, err := b.environmentCLI.GetEnvironment()
	if err != nil {
		return memFault
	}
	_, ok := b.writePairsAt(mod, resultPtr, entries)
	return trapOnFault(ok)
}

// getArguments calls the selected EnvironmentCLI implementation exactly once and writes the
// returned argument vector at resultPtr.
func (b *bindings) getArguments(mod api.Module, resultPtr uint32) uint64 {
	args, err := b.environmentCLI.GetArguments()
	if err != nil {
		return memFault
	}
	_, ok := b.writeStringListAt(mod, resultPtr, args)
	return trapOnFault(ok)
}

// initialCwd calls the selected EnvironmentCLI implementation exactly once and writes the
// returned optional path at resultPtr: a u32 discriminant (0 absent, 1 present) followed, when
// present, by the length-prefixed string.
func (b *bindings) initialCwd(mod api.Module, resultPtr uint32) uint64 {
	cwd, err := b.environmentCLI.InitialCwd()
	if err != nil {
		return memFault
	}
	if cwd == nil {
		return trapOnFault(mod.Memory().WriteUint32Le(resultPtr, 0))
	}
	if !mod.Memory().WriteUint32Le(resultPtr, 1) {
		return memFault
	}
	_, ok := b.writeString(mod, resultPtr+4, *cwd)
	return trapOnFault(ok)
}

// buildOutgoingHTTP registers the outgoing-handler's single logical operation: decode a request
// from guest memory at req_ptr, call the selected OutgoingHTTP implementation, and write the
// response at result_ptr. Unlike a stub that only resolves the import, this actually drives
// intercept.Record/ReplayOutgoingHTTP — the request the guest describes is the request that is
// sent (record) or discarded in favor of the next trace event (replay), per spec section 4.5.
func (b *bindings) buildOutgoingHTTP(builder wazero.HostModuleBuilder) {
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			reqPtr := uint32(stack[0])
			resultPtr := uint32(stack[1])
			stack[0] = b.handleOutgoingHTTP(mod, reqPtr, resultPtr)
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}).
		Export("handle")
}

// handleOutgoingHTTP decodes an HTTPRequest from guest memory at reqPtr (method, URL, headers,
// body, each length-prefixed in that order), sends it through the selected OutgoingHTTP
// implementation, and writes the HTTPResponse at resultPtr.
func (b *bindings) handleOutgoingHTTP(mod api.Module, reqPtr, resultPtr uint32) uint64 {
	method, off, ok := readString(mod, reqPtr)
	if !ok {
		return memFault
	}
	url, off, ok := readString(mod, off)
	if !ok {
		return memFault
	}
	headers, off, ok := readPairsAt(mod, off)
	if !ok {
		return memFault
	}
	bodyLen, ok := mod.Memory().ReadUint32Le(off)
	if !ok {
		return memFault
	}
	var body []byte
	if bodyLen > 0 {
		body, ok = mod.Memory().Read(off+4, bodyLen)
		if !ok {
			return memFault
		}
	}

	resp, err := b.outgoingHTTP.Send(intercept.HTTPRequest{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return memFault
	}
	return b.writeHTTPResponse(mod, resultPtr, resp)
}

// writeHTTPResponse writes status, then the length-prefixed header pair list, then the
// length-prefixed body, at ptr.
func (b *bindings) writeHTTPResponse(mod api.Module, ptr uint32, resp intercept.HTTPResponse) uint64 {
	if !mod.Memory().WriteUint32Le(ptr, uint32(resp.Status)) {
		return memFault
	}
	off, ok := b.writePairsAt(mod, ptr+4, resp.Headers)
	if !ok {
		return memFault
	}
	if !mod.Memory().WriteUint32Le(off, uint32(len(resp.Body))) {
		return memFault
	}
	if len(resp.Body) > 0 && !mod.Memory().Write(off+4, resp.Body) {
		return memFault
	}
	return 0
}

// writeTimestamp packs (seconds, nanoseconds) into guest memory at ptr as two little-endian
// fields, mirroring wazero's WriteUint64Le/WriteUint32Le convention for WASI clock results.
func (b *bindings) writeTimestamp(ctx context.Context, mod api.Module, ptr uint32, seconds uint64, nanoseconds uint32, err error) uint64 {
	if err != nil {
		return memFault
	}
	ok := mod.Memory().WriteUint64Le(ptr, seconds) && mod.Memory().WriteUint32Le(ptr+8, nanoseconds)
	return trapOnFault(ok)
}

// writeBytes packs a length-prefixed byte blob into guest memory at ptr.
func (b *bindings) writeBytes(mod api.Module, ptr uint32, data []byte, err error) uint64 {
	if err != nil {
		return memFault
	}
	ok := mod.Memory().WriteUint32Le(ptr, uint32(len(data))) && mod.Memory().Write(ptr+4, data)
	return trapOnFault(ok)
}

// writeString packs a length-prefixed UTF-8 string into guest memory at ptr and returns the
// offset immediately past it.
func (b *bindings) writeString(mod api.Module, ptr uint32, s string) (uint32, bool) {
	data := []byte(s)
	if !mod.Memory().WriteUint32Le(ptr, uint32(len(data))) {
		return 0, false
	}
	if len(data) > 0 && !mod.Memory().Write(ptr+4, data) {
		return 0, false
	}
	return ptr + 4 + uint32(len(data)), true
}

// writeStringListAt packs a u32 count followed by each string length-prefixed in order, and
// returns the offset immediately past the whole list.
func (b *bindings) writeStringListAt(mod api.Module, ptr uint32, list []string) (uint32, bool) {
	if !mod.Memory().WriteUint32Le(ptr, uint32(len(list))) {
		return 0, false
	}
	off := ptr + 4
	for _, s := range list {
		next, ok := b.writeString(mod, off, s)
		if !ok {
			return 0, false
		}
		off = next
	}
	return off, true
}

// writePairsAt packs a u32 count followed by each (name, value) pair as two length-prefixed
// strings in order, and returns the offset immediately past the whole list. Used for both the
// environment table and HTTP header lists (spec section 3: both are ordered (name, value)
// sequences with the same on-wire shape).
func (b *bindings) writePairsAt(mod api.Module, ptr uint32, pairs []trace.EnvPair) (uint32, bool) {
	if !mod.Memory().WriteUint32Le(ptr, uint32(len(pairs))) {
		return 0, false
	}
	off := ptr + 4
	for _, p := range pairs {
		next, ok := b.writeString(mod, off, p.Name)
		if !ok {
			return 0, false
		}
		next, ok = b.writeString(mod, next, p.Value)
		if !ok {
			return 0, false
		}
		off = next
	}
	return off, true
}

// readString reads a length-prefixed UTF-8 string from guest memory at ptr, the decode side of
// writeString, and returns the offset immediately past it.
func readString(mod api.Module, ptr uint32) (string, uint32, bool) {
	n, ok := mod.Memory().ReadUint32Le(ptr)
	if !ok {
		return "", 0, false
	}
	if n == 0 {
		return "", ptr + 4, true
	}
	data, ok := mod.Memory().Read(ptr+4, n)
	if !ok {
		return "", 0, false
	}
	return string(data), ptr + 4 + n, true
}

// readPairsAt reads a u32 count followed by that many (name, value) pairs, the decode side of
// writePairsAt, and returns the offset immediately past the whole list.
func readPairsAt(mod api.Module, ptr uint32) ([]trace.EnvPair, uint32, bool) {
	count, ok := mod.Memory().ReadUint32Le(ptr)
	if !ok {
		return nil, 0, false
	}
	off := ptr + 4
	out := make([]trace.EnvPair, 0, count)
	for i := uint32(0); i < count; i++ {
		name, next, ok := readString(mod, off)
		if !ok {
			return nil, 0, false
		}
		value, next2, ok := readString(mod, next)
		if !ok {
			return nil, 0, false
		}
		out = append(out, trace.EnvPair{Name: name, Value: value})
		off = next2
	}
	return out, off, true
}
