package component

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathJoinsDirAndFixture(t *testing.T) {
	t.Setenv("WASM_RR_FIXTURE_DIR", "/tmp/fixtures")
	require.Equal(t, filepath.Join("/tmp/fixtures", "wall-clock.wasm"), Path(FixtureWallClock))
}

func TestDirDefaultsWithoutEnvOverride(t *testing.T) {
	require.NoError(t, os.Unsetenv("WASM_RR_FIXTURE_DIR"))
	require.Equal(t, "testdata/fixtures", Dir())
}

func TestAvailableFalseForMissingFixture(t *testing.T) {
	t.Setenv("WASM_RR_FIXTURE_DIR", t.TempDir())
	require.False(t, Available(FixtureWallClock))
}
