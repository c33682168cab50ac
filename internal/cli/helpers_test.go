package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func reportPath(name string) string {
	return filepath.Join("testdata", "reports", name+".cue")
}

func dataPath(name string) string {
	return filepath.Join("testdata", "data", name+".yaml")
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse decodes a JSON envelope whose data has type T.
func decodeResponse[T any](t *testing.T, out string) (string, T, *CLIError) {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp.Status, resp.Data, resp.Error
}

// runInto runs a report into the database at db with a fixed run ID.
func runInto(t *testing.T, db, runID, reportName, dataName string, extra ...string) error {
	t.Helper()
	args := append([]string{reportPath(reportName), "--data", dataPath(dataName), "--db", db, "--run-id", runID}, extra...)
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), args...)
	return err
}
