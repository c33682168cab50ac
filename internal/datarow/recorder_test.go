package datarow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

func TestRecorder_LogsCalls(t *testing.T) {
	tbl, err := NewTable(ordersDef(), ordersRows())
	require.NoError(t, err)
	rec := NewRecorder(tbl)

	c, err := rec.AdvanceCursor(Start())
	require.NoError(t, err)
	rec.IsAdvanceable(c)
	rec.IsLastItemInGroup(c, 1)
	require.NoError(t, rec.CommitCursor(c))
	_, err = rec.Refresh(c)
	require.NoError(t, err)
	_, err = rec.AdvanceCursor(Cursor{Index: 3})
	require.Error(t, err)

	assert.Equal(t, []string{
		"advance -1->0",
		"advanceable 0 = true",
		"last 0 g1 = false",
		"commit 0",
		"refresh 0",
		"advance 3 error",
	}, rec.Log())
	assert.Equal(t, c, tbl.Committed())
}

func TestRecorder_SubReportSharesLog(t *testing.T) {
	lines := &report.Definition{Name: "lines"}
	def := &report.Definition{
		Name:       "master",
		SubReports: []report.SubReport{{Name: "lines", Definition: lines, Parameters: []string{"order"}}},
	}
	tbl, err := NewTable(def, []ir.IRObject{row("order", 1)},
		WithDatasets(map[string][]ir.IRObject{"lines": {row("order", 1)}}))
	require.NoError(t, err)
	rec := NewRecorder(tbl)

	child, err := rec.SubReport(&def.SubReports[0], Cursor{Index: 0})
	require.NoError(t, err)
	_, err = child.AdvanceCursor(Start())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"subreport lines @0",
		"lines: advance -1->0",
	}, rec.Log())
}
