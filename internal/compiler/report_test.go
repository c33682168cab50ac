package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/report"
)

func TestCompileReportBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		report: {
			name: "orders"
			groups: [
				{name: "customer", fields: ["customer"], header: "customer-header"},
				{name: "order", fields: ["order"], footer: {name: "order-footer"}},
			]
			details: "line"
		}
	`)
	require.NoError(t, v.Err())

	def, err := CompileReport(v.LookupPath(cue.ParsePath("report")))
	require.NoError(t, err)

	assert.Equal(t, &report.Definition{
		Name: "orders",
		Groups: []report.Group{
			{Name: "customer", Kind: report.Relational, Fields: []string{"customer"}, Header: &report.Band{Name: "customer-header"}},
			{Name: "order", Kind: report.Relational, Fields: []string{"order"}, Footer: &report.Band{Name: "order-footer"}},
		},
		Details: &report.Band{Name: "line"},
	}, def)
	assert.NoError(t, def.Validate())
}

func TestCompileReportCrosstab(t *testing.T) {
	def, err := CompileSource("sales.cue", []byte(`
		report: {
			name: "sales"
			groups: [
				{name: "table", kind: "crosstab"},
				{name: "region", kind: "crosstab-row", fields: ["region"]},
				{name: "quarter", kind: "crosstab-column", fields: ["quarter"], print_summary: true},
			]
		}
	`))
	require.NoError(t, err)

	require.Len(t, def.Groups, 3)
	assert.Equal(t, report.Crosstab, def.Groups[0].Kind)
	assert.Empty(t, def.Groups[0].Fields)
	assert.Equal(t, report.CrosstabRow, def.Groups[1].Kind)
	assert.Equal(t, report.CrosstabColumn, def.Groups[2].Kind)
	assert.True(t, def.Groups[2].PrintSummary)
	assert.False(t, def.Groups[1].PrintSummary)
	assert.Nil(t, def.Details)
	assert.NoError(t, def.Validate())
}

func TestCompileReportSubReports(t *testing.T) {
	def, err := CompileSource("master.cue", []byte(`
		#Lines: {name: "lines", details: "line"}
		report: {
			name: "master"
			details: "order"
			subreports: [{
				name: "lines"
				parameters: ["order"]
				dataset: "order_lines"
				report: #Lines
			}]
		}
	`))
	require.NoError(t, err)

	require.Len(t, def.SubReports, 1)
	sr := def.SubReports[0]
	assert.Equal(t, "lines", sr.Name)
	assert.Equal(t, []string{"order"}, sr.Parameters)
	assert.Equal(t, "order_lines", sr.DatasetName())
	require.NotNil(t, sr.Definition)
	assert.Equal(t, "lines", sr.Definition.Name)
	assert.Equal(t, &report.Band{Name: "line"}, sr.Definition.Details)
}

func TestCompileReportMissingName(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		report: {
			details: "line"
		}
	`))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "name")
}

func TestCompileReportUnknownKind(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		report: {
			name: "bad"
			groups: [{name: "g", kind: "pivot", fields: ["a"]}]
		}
	`))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileReportUnknownField(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		report: {
			name: "bad"
			colour: "red"
		}
	`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestCompileReportWrongType(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`
		report: {
			name: "bad"
			groups: [{name: "g", fields: "a"}]
		}
	`))
	require.Error(t, err)
}

func TestCompileReportMissingReport(t *testing.T) {
	_, err := CompileSource("empty.cue", []byte(`other: 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report is required")
}

func TestCompileSourceSyntaxError(t *testing.T) {
	_, err := CompileSource("broken.cue", []byte(`report: {name: `))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
report: {
	name: "orders"
	groups: [{name: "customer", fields: ["customer"]}]
	details: "line"
}
`), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", def.Name)

	def, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "orders", def.Name)
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "load", ce.Field)
}
