package datarow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

func row(pairs ...any) ir.IRObject {
	obj := ir.IRObject{}
	for i := 0; i < len(pairs); i += 2 {
		v, err := ir.FromGo(pairs[i+1])
		if err != nil {
			panic(err)
		}
		obj[pairs[i].(string)] = v
	}
	return obj
}

func ordersDef() *report.Definition {
	return &report.Definition{
		Name: "orders",
		Groups: []report.Group{
			{Name: "customer", Fields: []string{"customer"}},
			{Name: "order", Fields: []string{"order"}},
		},
		Details: &report.Band{Name: "line"},
	}
}

func ordersRows() []ir.IRObject {
	return []ir.IRObject{
		row("customer", "acme", "order", 1, "sku", "A"),
		row("customer", "acme", "order", 1, "sku", "B"),
		row("customer", "acme", "order", 2, "sku", "C"),
		row("customer", "zeta", "order", 3, "sku", "D"),
	}
}

func TestTable_Cursor(t *testing.T) {
	tbl, err := NewTable(ordersDef(), ordersRows())
	require.NoError(t, err)

	c := Start()
	assert.True(t, c.IsBeforeFirst())
	assert.True(t, tbl.IsAdvanceable(c))

	for i := 0; i < 4; i++ {
		c, err = tbl.AdvanceCursor(c)
		require.NoError(t, err)
		assert.Equal(t, i, c.Index)
	}
	assert.False(t, tbl.IsAdvanceable(c))

	_, err = tbl.AdvanceCursor(c)
	assert.ErrorIs(t, err, ErrNoMoreRows)

	_, err = tbl.AdvanceCursor(Cursor{Index: 9})
	assert.ErrorIs(t, err, ErrCursorOutOfRange)
}

func TestTable_IsLastItemInGroup(t *testing.T) {
	tbl, err := NewTable(ordersDef(), ordersRows())
	require.NoError(t, err)

	tests := []struct {
		index int
		group int
		want  bool
	}{
		{0, 0, false},
		{0, 1, false},
		{1, 1, true},
		{1, 0, false},
		{2, 0, true},
		{2, 1, true},
		{3, 0, true},
		{0, report.BeforeFirstGroup, false},
		{3, report.BeforeFirstGroup, true},
		{BeforeFirst, 0, false},
	}

	for _, tt := range tests {
		got := tbl.IsLastItemInGroup(Cursor{Index: tt.index}, tt.group)
		assert.Equal(t, tt.want, got, "row %d group %d", tt.index, tt.group)
	}
}

func TestTable_KeylessGroupInheritsParentSpan(t *testing.T) {
	def := &report.Definition{
		Name: "keyless",
		Groups: []report.Group{
			{Name: "customer", Fields: []string{"customer"}},
			{Name: "all"},
		},
	}
	tbl, err := NewTable(def, ordersRows())
	require.NoError(t, err)

	assert.False(t, tbl.IsLastItemInGroup(Cursor{Index: 1}, 1))
	assert.True(t, tbl.IsLastItemInGroup(Cursor{Index: 2}, 1))
}

func TestTable_MissingKeyFieldsCompareEqual(t *testing.T) {
	rows := []ir.IRObject{row("sku", "A"), row("sku", "B"), row("customer", "x")}
	def := &report.Definition{Name: "m", Groups: []report.Group{{Name: "customer", Fields: []string{"customer"}}}}
	tbl, err := NewTable(def, rows)
	require.NoError(t, err)

	assert.False(t, tbl.IsLastItemInGroup(Cursor{Index: 0}, 0))
	assert.True(t, tbl.IsLastItemInGroup(Cursor{Index: 1}, 0))
}

func TestTable_EmptyDefinitionAndRows(t *testing.T) {
	tbl, err := NewTable(&report.Definition{Name: "empty"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.Len())
	assert.False(t, tbl.IsAdvanceable(Start()))
	assert.True(t, tbl.IsLastItemInGroup(Start(), 0))
}

func TestTable_CommitAndRefresh(t *testing.T) {
	tbl, err := NewTable(ordersDef(), ordersRows())
	require.NoError(t, err)

	assert.Equal(t, Start(), tbl.Committed())
	require.NoError(t, tbl.CommitCursor(Cursor{Index: 2}))
	require.NoError(t, tbl.CommitCursor(Cursor{Index: 1}))
	assert.Equal(t, Cursor{Index: 1}, tbl.Committed())
	assert.Equal(t, []Cursor{{Index: 2}, {Index: 1}}, tbl.Commits())

	assert.ErrorIs(t, tbl.CommitCursor(Cursor{Index: 4}), ErrCursorOutOfRange)

	c, err := tbl.Refresh(Cursor{Index: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Index)
	_, err = tbl.Refresh(Cursor{Index: -2})
	assert.ErrorIs(t, err, ErrCursorOutOfRange)
}

func TestTable_Row(t *testing.T) {
	tbl, err := NewTable(ordersDef(), ordersRows())
	require.NoError(t, err)

	r, err := tbl.Row(Cursor{Index: 3})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("D"), r["sku"])

	_, err = tbl.Row(Start())
	assert.ErrorIs(t, err, ErrCursorOutOfRange)
}

func TestTable_SubReport(t *testing.T) {
	lines := &report.Definition{Name: "lines", Details: &report.Band{Name: "line"}}
	def := &report.Definition{
		Name:       "master",
		Details:    &report.Band{Name: "order"},
		SubReports: []report.SubReport{{Name: "lines", Definition: lines, Parameters: []string{"order"}}},
	}
	masters := []ir.IRObject{row("order", 1), row("order", 2), row("order", 3)}
	datasets := map[string][]ir.IRObject{
		"lines": {
			row("order", 1, "sku", "A"),
			row("order", 2, "sku", "B"),
			row("order", 1, "sku", "C"),
		},
	}
	tbl, err := NewTable(def, masters, WithDatasets(datasets))
	require.NoError(t, err)

	sr := &def.SubReports[0]
	child, err := tbl.SubReport(sr, Cursor{Index: 0})
	require.NoError(t, err)
	r0, err := child.Row(Cursor{Index: 0})
	require.NoError(t, err)
	r1, err := child.Row(Cursor{Index: 1})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("A"), r0["sku"])
	assert.Equal(t, ir.IRString("C"), r1["sku"])
	assert.False(t, child.IsAdvanceable(Cursor{Index: 1}))

	empty, err := tbl.SubReport(sr, Cursor{Index: 2})
	require.NoError(t, err)
	assert.False(t, empty.IsAdvanceable(Start()))

	_, err = tbl.SubReport(sr, Start())
	assert.ErrorIs(t, err, ErrCursorOutOfRange)

	_, err = tbl.SubReport(&report.SubReport{Name: "missing", Definition: lines}, Cursor{Index: 0})
	assert.ErrorIs(t, err, ErrUnknownDataset)
}
