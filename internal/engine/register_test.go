package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasm-rr/wasm-rr/internal/intercept"
	"github.com/wasm-rr/wasm-rr/internal/trace"
)

// memoryOnlyModule is a hand-encoded, function-free WebAssembly binary exporting a single
// one-page linear memory named "memory". It exists so these tests can obtain a real
// wazero-backed api.Module (and therefore real bounds-checked memory reads/writes) without a
// compiled WASIp2 guest: magic+version, then a memory section (id 5) with one limits entry
// (flags 0, min 1 page), then an export section (id 7) exporting that memory at index 0.
var memoryOnlyModule = []byte{
	0x00, 0x61, 0x73, 0x6D, // magic "\0asm"
	0x01, 0x00, 0x00, 0x00, // version 1
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 entry, flags=0, min=1
	0x07, 0x0A, 0x01, // export section: 1 entry
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', // name "memory"
	0x02, 0x00, // kind=memory, index=0
}

// newMemoryOnlyGuest instantiates memoryOnlyModule under rt and returns the resulting
// api.Module; the instance is closed through t.Cleanup. Each test gets its own instance so writes in one test
// never leak into another.
func newMemoryOnlyGuest(t *testing.T, ctx context.Context, rt wazero.Runtime) api.Module {
	t.Helper()
	compiled, err := rt.CompileModule(ctx, memoryOnlyModule)
	require.NoError(t, err)
	instance, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = instance.Close(ctx) })
	return instance
}

type fakeEnvironmentCLI struct {
	env  []trace.EnvPair
	args []string
	cwd  *string
	err  error
}

func (f fakeEnvironmentCLI) GetEnvironment() ([]trace.EnvPair, error) { return f.env, f.err }
func (f fakeEnvironmentCLI) GetArguments() ([]string, error)         { return f.args, f.err }
func (f fakeEnvironmentCLI) InitialCwd() (*string, error)            { return f.cwd, f.err }

type fakeOutgoingHTTP struct {
	gotRequest intercept.HTTPRequest
	response   intercept.HTTPResponse
	err        error
}

func (f *fakeOutgoingHTTP) Send(req intercept.HTTPRequest) (intercept.HTTPResponse, error) {
	f.gotRequest = req
	return f.response, f.err
}

func newTestRuntime(ctx context.Context) wazero.Runtime {
	return wazero.NewRuntime(ctx)
}

func TestGetArgumentsWritesRealBytesIntoGuestMemory(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(ctx)
	defer rt.Close(ctx)
	guest := newMemoryOnlyGuest(t, ctx, rt)

	b := &bindings{environmentCLI: fakeEnvironmentCLI{args: []string{"hello.wasm", "--flag", "value"}}}

	code := b.getArguments(guest, 0)
	require.Equal(t, uint64(0), code)

	count, ok := guest.Memory().ReadUint32Le(0)
	require.True(t, ok)
	require.Equal(t, uint32(3), count)

	s0, off, ok := readString(guest, 4)
	require.True(t, ok)
	require.Equal(t, "hello.wasm", s0)
	s1, off, ok := readString(guest, off)
	require.True(t, ok)
	require.Equal(t, "--flag", s1)
	s2, _, ok := readString(guest, off)
	require.True(t, ok)
	require.Equal(t, "value", s2)
}

func TestGetEnvironmentWritesRealPairsIntoGuestMemory(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(ctx)
	defer rt.Close(ctx)
	guest := newMemoryOnlyGuest(t, ctx, rt)

	b := &bindings{environmentCLI: fakeEnvironmentCLI{env: []trace.EnvPair{
		{Name: "HOME", Value: "/home/guest"},
		{Name: "PATH", Value: "/usr/bin"},
	}}}

	code := b.getEnvironment(guest, 0)
	require.Equal(t, uint64(0), code)

	pairs, _, ok := readPairsAt(guest, 0)
	require.True(t, ok)
	require.Equal(t, []trace.EnvPair{
		{Name: "HOME", Value: "/home/guest"},
		{Name: "PATH", Value: "/usr/bin"},
	}, pairs)
}

func TestInitialCwdWritesPresentOptionalString(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(ctx)
	defer rt.Close(ctx)
	guest := newMemoryOnlyGuest(t, ctx, rt)

	cwd := "/srv/app"
	b := &bindings{environmentCLI: fakeEnvironmentCLI{cwd: &cwd}}

	code := b.initialCwd(guest, 0)
	require.Equal(t, uint64(0), code)

	discriminant, ok := guest.Memory().ReadUint32Le(0)
	require.True(t, ok)
	require.Equal(t, uint32(1), discriminant)

	got, _, ok := readString(guest, 4)
	require.True(t, ok)
	require.Equal(t, "/srv/app", got)
}

func TestInitialCwdWritesAbsentOptionalString(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(ctx)
	defer rt.Close(ctx)
	guest := newMemoryOnlyGuest(t, ctx, rt)

	b := &bindings{environmentCLI: fakeEnvironmentCLI{cwd: nil}}

	code := b.initialCwd(guest, 0)
	require.Equal(t, uint64(0), code)

	discriminant, ok := guest.Memory().ReadUint32Le(0)
	require.True(t, ok)
	require.Equal(t, uint32(0), discriminant)
}

func TestHandleOutgoingHTTPWritesRealResponseIntoGuestMemory(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(ctx)
	defer rt.Close(ctx)
	guest := newMemoryOnlyGuest(t, ctx, rt)

	fake := &fakeOutgoingHTTP{
		response: intercept.HTTPResponse{
			Status:  204,
			Headers: []trace.EnvPair{{Name: "X-Trace", Value: "abc"}},
			Body:    []byte("ok"),
		},
	}
	b := &bindings{outgoingHTTP: fake}

	// Encode a request at offset 0 using the same write helpers production code uses, so the
	// test exercises the real encode/decode round trip rather than a hand-built byte literal.
	reqPtr := uint32(0)
	off, ok := b.writeString(guest, reqPtr, "POST")
	require.True(t, ok)
	off, ok = b.writeString(guest, off, "https://example.invalid/widgets")
	require.True(t, ok)
	off, ok = b.writePairsAt(guest, off, []trace.EnvPair{{Name: "Content-Type", Value: "application/json"}})
	require.True(t, ok)
	body := []byte(`{"n":1}`)
	require.True(t, guest.Memory().WriteUint32Le(off, uint32(len(body))))
	require.True(t, guest.Memory().Write(off+4, body))

	resultPtr := uint32(4096)
	code := b.handleOutgoingHTTP(guest, reqPtr, resultPtr)
	require.Equal(t, uint64(0), code)

	require.Equal(t, "POST", fake.gotRequest.Method)
	require.Equal(t, "https://example.invalid/widgets", fake.gotRequest.URL)
	require.Equal(t, []trace.EnvPair{{Name: "Content-Type", Value: "application/json"}}, fake.gotRequest.Headers)
	require.Equal(t, body, fake.gotRequest.Body)

	status, ok := guest.Memory().ReadUint32Le(resultPtr)
	require.True(t, ok)
	require.Equal(t, uint32(204), status)

	headers, bodyOff, ok := readPairsAt(guest, resultPtr+4)
	require.True(t, ok)
	require.Equal(t, []trace.EnvPair{{Name: "X-Trace", Value: "abc"}}, headers)

	bodyLen, ok := guest.Memory().ReadUint32Le(bodyOff)
	require.True(t, ok)
	require.Equal(t, uint32(2), bodyLen)
	gotBody, ok := guest.Memory().Read(bodyOff+4, bodyLen)
	require.True(t, ok)
	require.Equal(t, []byte("ok"), gotBody)
}

func TestGetArgumentsPropagatesHostError(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(ctx)
	defer rt.Close(ctx)
	guest := newMemoryOnlyGuest(t, ctx, rt)

	b := &bindings{environmentCLI: fakeEnvironmentCLI{err: context.Canceled}}
	code := b.getArguments(guest, 0)
	require.Equal(t, uint64(memFault), code)
}
