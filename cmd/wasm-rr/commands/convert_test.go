package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm-rr/wasm-rr/internal/trace"
)

func TestConvertRoundTripsThroughCLI(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "trace.json")
	cborPath := filepath.Join(dir, "trace.cbor")
	json2Path := filepath.Join(dir, "trace2.json")

	rec := trace.NewRecorder()
	rec.Append(trace.NewClockNow(1700000000, 42))
	require.NoError(t, rec.Persist(jsonPath, trace.FormatTextual))

	root := NewRootCommand()
	root.SetArgs([]string{"convert", jsonPath, cborPath})
	require.NoError(t, root.Execute())
	require.Equal(t, 0, LastExitCode())

	root = NewRootCommand()
	root.SetArgs([]string{"convert", cborPath, json2Path})
	require.NoError(t, root.Execute())

	original, err := trace.Decode(jsonPath, trace.FormatTextual)
	require.NoError(t, err)
	roundTripped, err := trace.Decode(json2Path, trace.FormatTextual)
	require.NoError(t, err)
	require.Equal(t, original, roundTripped)
}

func TestResolveFormatRejectsUnknownExtension(t *testing.T) {
	_, err := resolveFormat("", "trace.bin")
	require.Error(t, err)
}

func TestResolveFormatExplicitOverridesExtension(t *testing.T) {
	f, err := resolveFormat("cbor", "trace.json")
	require.NoError(t, err)
	require.Equal(t, trace.FormatBinary, f)
}
