package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
	"github.com/roach88/bandwalk/internal/testutil"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check("run-1"), "step %d should be allowed", i+1)
	}
	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxSteps())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("run-1"))
	}

	err := q.Check("run-1")
	require.Error(t, err)

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "run-1", se.RunID)
	assert.Equal(t, 6, se.Steps)
	assert.Equal(t, 5, se.Limit)
	assert.Equal(t, "STEPS_EXCEEDED: run run-1 exceeded max steps quota: 6 steps > 5 limit", err.Error())
	assert.True(t, IsQuotaError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsQuotaError(fmt.Errorf("other")))

	q.Reset()
	assert.Equal(t, 0, q.Current())
	assert.NoError(t, q.Check("run-1"))
}

func TestQuotaEnforcer_ZeroLimit(t *testing.T) {
	q := NewQuotaEnforcer(0)
	assert.True(t, IsQuotaError(q.Check("run-1")))
}

// endlessController never runs out of rows.
type endlessController struct {
	datarow.Controller
}

func (endlessController) AdvanceCursor(c datarow.Cursor) (datarow.Cursor, error) {
	return datarow.Cursor{Index: c.Index + 1}, nil
}
func (endlessController) IsAdvanceable(datarow.Cursor) bool          { return true }
func (endlessController) IsLastItemInGroup(datarow.Cursor, int) bool { return false }
func (endlessController) CommitCursor(datarow.Cursor) error          { return nil }
func (endlessController) Refresh(c datarow.Cursor) (datarow.Cursor, error) {
	return c, nil
}

func TestQuota_StopsEndlessData(t *testing.T) {
	def := &report.Definition{Name: "endless", Details: &report.Band{Name: "row"}}
	e, err := New(def, endlessController{}, quietOptions(WithMaxSteps(50))...)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, 50, res.Steps)
	assert.False(t, res.Final.IsFinish())
}

func TestQuota_DefaultMaxSteps(t *testing.T) {
	rows := make([]ir.IRObject, 0, 2000)
	for i := 0; i < 2000; i++ {
		rows = append(rows, testutil.Row("customer", fmt.Sprintf("c%d", i/10), "order", i))
	}
	e := newTestEngine(t, testutil.OrdersDefinition(), rows)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, res.Steps, DefaultMaxSteps)
}

func TestQuota_SubReportsHaveTheirOwnQuota(t *testing.T) {
	// The master needs 10 steps and each nested run at most 8.
	e := newMasterDetailEngine(t, WithMaxSteps(10))

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Steps)

	e = newMasterDetailEngine(t, WithMaxSteps(7))
	_, err = e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
}
