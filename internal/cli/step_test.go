package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countEvents(steps []StepRecord) int {
	n := 0
	for _, s := range steps {
		n += len(s.Events)
	}
	return n
}

func TestStepWalksToEnd(t *testing.T) {
	out, err := execute(t, NewStepCommand(&RootOptions{Format: "json"}), reportPath("flat"), "--data", dataPath("flat"))
	require.NoError(t, err)

	status, result, _ := decodeResponse[StepResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "flat", result.Report)
	assert.True(t, result.Finished)
	require.Len(t, result.Steps, 8)
	assert.Equal(t, 7, countEvents(result.Steps))

	first := result.Steps[0]
	assert.Equal(t, 1, first.Step)
	assert.Equal(t, "begin-report", first.Handler)
	assert.Equal(t, []string{"report-started"}, first.Events)

	last := result.Steps[7]
	assert.Equal(t, "report-done", last.Handler)
	assert.Equal(t, []string{"report-done"}, last.Events)
	assert.Equal(t, "end-report", last.Next)

	for i := 1; i < len(result.Steps); i++ {
		assert.Equal(t, result.Steps[i-1].Next, result.Steps[i].Handler, "step %d", i+1)
		assert.Greater(t, result.Steps[i].Seq, result.Steps[i-1].Seq)
	}
}

func TestStepMatchesRun(t *testing.T) {
	out, err := execute(t, NewStepCommand(&RootOptions{Format: "json"}), reportPath("orders"), "--data", dataPath("orders"))
	require.NoError(t, err)

	_, result, _ := decodeResponse[StepResult](t, out)
	assert.True(t, result.Finished)
	assert.Len(t, result.Steps, 24)
	assert.Equal(t, 23, countEvents(result.Steps))
}

func TestStepLimit(t *testing.T) {
	out, err := execute(t, NewStepCommand(&RootOptions{Format: "text"}),
		reportPath("flat"), "--data", dataPath("flat"), "--limit", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "begin-report")
	assert.Contains(t, out, "report-started")
	assert.Contains(t, out, "Stopped after 3 step(s)")
	assert.NotContains(t, out, "finished after")
}

func TestStepFinishedText(t *testing.T) {
	out, err := execute(t, NewStepCommand(&RootOptions{Format: "text"}), reportPath("flat"), "--data", dataPath("flat"))
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 flat finished after 8 step(s)")
}

func TestStepRestart(t *testing.T) {
	out, err := execute(t, NewStepCommand(&RootOptions{Format: "json"}),
		reportPath("flat"), "--data", dataPath("flat"), "--restart-at", "3")
	require.NoError(t, err)

	_, result, _ := decodeResponse[StepResult](t, out)
	assert.True(t, result.Finished)
	require.Len(t, result.Steps, 10)
	assert.Equal(t, 9, countEvents(result.Steps))

	assert.True(t, result.Steps[2].Restarted)
	assert.Equal(t, []string{"items-advanced"}, result.Steps[2].Events)
	assert.Equal(t, []string{"artificial"}, result.Steps[3].Events)
	for i, s := range result.Steps {
		if i != 2 {
			assert.False(t, s.Restarted, "step %d", s.Step)
		}
	}
}

func TestStepInvalidInputs(t *testing.T) {
	out, err := execute(t, NewStepCommand(&RootOptions{Format: "text"}), reportPath("invalid"), "--data", dataPath("flat"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E104]")
}
