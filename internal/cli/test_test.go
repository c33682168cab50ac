package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/harness"
)

func scenariosDir() string {
	return filepath.Join("testdata", "scenarios")
}

// writeFlatScenario writes a scenario over the flat report into dir, with
// the given step_count assertion.
func writeFlatScenario(t *testing.T, dir, name string, steps int) string {
	t.Helper()
	report, err := filepath.Abs(reportPath("flat"))
	require.NoError(t, err)

	content := fmt.Sprintf(`name: %s
report: %s
rows:
  - {n: 1}
  - {n: 2}
assertions:
  - type: step_count
    count: %d
`, name, report, steps)
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir())
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 flat")
	assert.Contains(t, out, "\u2713 orders")
	assert.Contains(t, out, "Results: 2 passed, 0 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir(), "--parallel", "1")
	require.NoError(t, err)

	status, result, _ := decodeResponse[harness.SuiteResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "flat", result.Scenarios[0].Name)
	assert.Equal(t, 7, result.Scenarios[0].Events)
	assert.Equal(t, "orders", result.Scenarios[1].Name)
	assert.Equal(t, 23, result.Scenarios[1].Events)
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir(), "--filter", "ord*")
	require.NoError(t, err)

	_, result, _ := decodeResponse[harness.SuiteResult](t, out)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "orders", result.Scenarios[0].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeFlatScenario(t, dir, "flat-ok", 8)
	writeFlatScenario(t, dir, "flat-wrong", 99)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 scenario(s) failed", err.Error())

	assert.Contains(t, out, "\u2713 flat-ok")
	assert.Contains(t, out, "\u2717 flat-wrong")
	assert.Contains(t, out, "assertion 0 (step_count)")
	assert.Contains(t, out, "Results: 1 passed, 1 failed, 2 total")
}

func TestTestCommandUpdate(t *testing.T) {
	dir := t.TempDir()
	writeFlatScenario(t, dir, "flat", 8)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 flat (golden updated)")

	written, err := os.ReadFile(filepath.Join(dir, "golden", "flat.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(scenariosDir(), "golden", "flat.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 flat\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFlatScenario(t, dir, "flat", 8)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "flat.golden"), []byte("1 report-started\n"), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandEmptyDirectory(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandMissingDirectory(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
