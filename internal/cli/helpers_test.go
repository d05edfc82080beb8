package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig writes a pulse.yaml with rooms 17 and 42 whose storage lives
// in a fresh temp dir. It returns the config path and the dir.
func testConfig(t *testing.T, driver string) (string, string) {
	t.Helper()
	t.Setenv("PULSE_REDIS_ADDR", "")
	t.Setenv("PULSE_CONFIG", "")

	dir := t.TempDir()
	return writeConfig(t, dir, driver), dir
}

func writeConfig(t *testing.T, dir, driver string) string {
	t.Helper()
	yaml := fmt.Sprintf(`environment: development
rooms: [17, 42]
owners: [181293]
storage:
  driver: %s
  notifications: %s
  tags: %s
  database: %s
redis:
  addr: 127.0.0.1:1
metrics:
  addr: ""
log:
  level: error
`, driver,
		filepath.Join(dir, "notifications.json"),
		filepath.Join(dir, "tags.json"),
		filepath.Join(dir, "pulse.db"))

	path := filepath.Join(dir, driver+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

// runCLI executes the root command with args and returns stdout, stderr
// and the error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRun is runCLI that fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := runCLI(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return stdout
}
