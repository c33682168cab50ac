package testutil

import (
	"fmt"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// Row builds a row from alternating field names and Go values.
// It panics on values ir.FromGo rejects.
//
//	Row("customer", "acme", "order", 1)
func Row(pairs ...any) ir.IRObject {
	if len(pairs)%2 != 0 {
		panic("testutil.Row: odd number of arguments")
	}
	obj := make(ir.IRObject, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		v, err := ir.FromGo(pairs[i+1])
		if err != nil {
			panic(fmt.Sprintf("testutil.Row: field %v: %v", pairs[i], err))
		}
		obj[pairs[i].(string)] = v
	}
	return obj
}

// OrdersDefinition is a two-level relational report: customer > order,
// with a details band of order lines.
func OrdersDefinition() *report.Definition {
	return &report.Definition{
		Name: "orders",
		Groups: []report.Group{
			{Name: "customer", Fields: []string{"customer"}, Header: &report.Band{Name: "customer-header"}},
			{Name: "order", Fields: []string{"order"}},
		},
		Details: &report.Band{Name: "line"},
	}
}

// OrdersRows returns rows for OrdersDefinition: customer acme with orders 1
// (two lines) and 2 (one line), customer zeta with order 3 (one line).
func OrdersRows() []ir.IRObject {
	return []ir.IRObject{
		Row("customer", "acme", "order", 1, "sku", "A"),
		Row("customer", "acme", "order", 1, "sku", "B"),
		Row("customer", "acme", "order", 2, "sku", "C"),
		Row("customer", "zeta", "order", 3, "sku", "D"),
	}
}

// CrosstabDefinition is a single crosstab with one row axis (region) and one
// column axis (quarter).
func CrosstabDefinition(printSummary bool) *report.Definition {
	return &report.Definition{
		Name: "sales",
		Groups: []report.Group{
			{Name: "table", Kind: report.Crosstab},
			{Name: "region", Kind: report.CrosstabRow, Fields: []string{"region"}},
			{Name: "quarter", Kind: report.CrosstabColumn, Fields: []string{"quarter"}, PrintSummary: printSummary},
		},
	}
}

// CrosstabRows returns one fact per cell of an n×m grid for
// CrosstabDefinition, regions r0..r(n-1) by quarters q0..q(m-1).
func CrosstabRows(n, m int) []ir.IRObject {
	rows := make([]ir.IRObject, 0, n*m)
	for r := 0; r < n; r++ {
		for c := 0; c < m; c++ {
			rows = append(rows, Row(
				"region", fmt.Sprintf("r%d", r),
				"quarter", fmt.Sprintf("q%d", c),
				"amount", r*10+c,
			))
		}
	}
	return rows
}

// MasterDetailDefinition is a report over orders with a "lines" sub-report
// inlined per order, matched on the order field.
func MasterDetailDefinition() *report.Definition {
	return &report.Definition{
		Name:    "master",
		Details: &report.Band{Name: "order"},
		SubReports: []report.SubReport{{
			Name:       "lines",
			Parameters: []string{"order"},
			Definition: &report.Definition{Name: "lines", Details: &report.Band{Name: "line"}},
		}},
	}
}

// MasterDetailData returns master rows (orders 1, 2 and 3) and a "lines"
// dataset with two lines for order 1, one for order 2 and none for order 3.
func MasterDetailData() ([]ir.IRObject, map[string][]ir.IRObject) {
	masters := []ir.IRObject{Row("order", 1), Row("order", 2), Row("order", 3)}
	datasets := map[string][]ir.IRObject{
		"lines": {
			Row("order", 1, "sku", "A"),
			Row("order", 2, "sku", "B"),
			Row("order", 1, "sku", "C"),
		},
	}
	return masters, datasets
}
