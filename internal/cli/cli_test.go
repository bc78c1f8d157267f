package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with the given arguments and returns its
// combined output.
func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := rootCmd.Execute()
	require.NoError(t, err, "command %v failed:\n%s", args, out.String())
	return out.String()
}

func TestDemoReportProfiles(t *testing.T) {
	t.Setenv("ACTINIUM_DATA_DIR", t.TempDir())

	out := execute(t, "demo", "--iterations", "1", "--sleep", "1ms", "--name", "Smoke")
	assert.Contains(t, out, "Recorded profile")

	out = execute(t, "report")
	assert.Contains(t, out, "Smoke")
	assert.Contains(t, out, "Run #0")
	assert.Contains(t, out, "Profiler Housekeeping")

	out = execute(t, "profiles")
	assert.Contains(t, out, "Smoke")
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "Actinium version")
}
