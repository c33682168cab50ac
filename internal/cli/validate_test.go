package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidReport(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), reportPath("orders"))
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 testdata/reports/orders.cue (orders)")
	assert.Contains(t, out, "\u2713 All 1 report(s) valid")
}

func TestValidateValidReportJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), reportPath("master"))
	require.NoError(t, err)

	status, result, cliErr := decodeResponse[ValidationResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Nil(t, cliErr)
	assert.True(t, result.Valid)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "master", result.Reports[0].Name)
	assert.Empty(t, result.Reports[0].Errors)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), reportPath("invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "validation failed with 2 error(s)", err.Error())

	assert.Contains(t, out, "\u2717 testdata/reports/invalid.cue")
	assert.Contains(t, out, `E104: groups[1]: duplicate group name "a" (first declared at groups[0])`)
	assert.Contains(t, out, `E104: groups[1]: crosstab-row group "a" must be declared inside a crosstab`)
	assert.Contains(t, out, "\u2717 Validation failed")
}

func TestValidateInvalidReportJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), reportPath("invalid"))
	require.Error(t, err)

	status, result, cliErr := decodeResponse[ValidationResult](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.Equal(t, ErrCodeInvalidStructure, cliErr.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "invalid", result.Reports[0].Name)
	assert.Len(t, result.Reports[0].Errors, 2)
}

func TestValidateCompileFailure(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), reportPath("noreport"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E101: report is required")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E003")
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"orders", "flat"} {
		src, err := os.ReadFile(reportPath(name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".cue"), src, 0o644))
	}

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	_, result, _ := decodeResponse[ValidationResult](t, out)
	assert.True(t, result.Valid)
	require.Len(t, result.Reports, 2)
	assert.Equal(t, "flat", result.Reports[0].Name)
	assert.Equal(t, "orders", result.Reports[1].Name)
}

func TestValidateMixedDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join("testdata", "reports"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "\u2713 testdata/reports/flat.cue (flat)")
	assert.Contains(t, out, "\u2717 testdata/reports/invalid.cue")
	assert.Contains(t, out, "\u2717 testdata/reports/noreport.cue")
	assert.Contains(t, out, "\u2713 testdata/reports/orders.cue (orders)")
}

func TestFindCUEFiles(t *testing.T) {
	files, err := FindCUEFiles(filepath.Join("testdata", "reports"))
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"flat.cue", "invalid.cue", "master.cue", "noreport.cue", "orders.cue"}, names)
}
