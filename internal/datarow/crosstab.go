package datarow

import (
	"slices"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// PaddingField marks rows synthesized by NormalizeCrosstab.
const PaddingField = "_padding"

// IsPadding reports whether row was synthesized to fill an empty crosstab cell.
func IsPadding(row ir.IRObject) bool {
	v, ok := row[PaddingField].(ir.IRBool)
	return ok && bool(v)
}

// NormalizeCrosstab reorders rows into crosstab traversal order and fills
// every missing (row, column) cell with a padding row.
//
// Rows are partitioned by the keys of the groups enclosing the crosstab.
// Within a partition the distinct row keys and column keys are ordered by
// first appearance, level by level, so each axis group stays contiguous.
// Every row key is then emitted with every column key of its partition,
// giving the dense N×M layout the traversal relies on. Rows of one cell keep
// their input order. Padding rows carry the key fields and PaddingField.
//
// Definitions without a crosstab are returned unchanged.
func NormalizeCrosstab(def *report.Definition, rows []ir.IRObject) ([]ir.IRObject, error) {
	start := def.CrosstabStart()
	if start < 0 || len(rows) == 0 {
		return rows, nil
	}

	var outerLevels, rowLevels, colLevels [][]string
	for i, g := range def.Groups {
		switch {
		case i <= start:
			outerLevels = append(outerLevels, g.Fields)
		case g.Kind == report.CrosstabRow:
			rowLevels = append(rowLevels, g.Fields)
		case g.Kind == report.CrosstabColumn:
			colLevels = append(colLevels, g.Fields)
		}
	}

	outer, err := orderAxis(rows, outerLevels)
	if err != nil {
		return nil, err
	}

	out := make([]ir.IRObject, 0, len(rows))
	for _, partKey := range outer.order {
		var part []ir.IRObject
		for i, row := range rows {
			if outer.rowKeys[i] == partKey {
				part = append(part, row)
			}
		}

		ra, err := orderAxis(part, rowLevels)
		if err != nil {
			return nil, err
		}
		ca, err := orderAxis(part, colLevels)
		if err != nil {
			return nil, err
		}

		cells := make(map[[2]string][]ir.IRObject)
		for i, row := range part {
			cell := [2]string{ra.rowKeys[i], ca.rowKeys[i]}
			cells[cell] = append(cells[cell], row)
		}

		for _, rk := range ra.order {
			for _, ck := range ca.order {
				if facts := cells[[2]string{rk, ck}]; len(facts) > 0 {
					out = append(out, facts...)
					continue
				}
				pad := outer.values[partKey].Clone()
				for k, v := range ra.values[rk] {
					pad[k] = v
				}
				for k, v := range ca.values[ck] {
					pad[k] = v
				}
				pad[PaddingField] = ir.IRBool(true)
				out = append(out, pad)
			}
		}
	}
	return out, nil
}

// axisOrder is the ordered set of distinct keys of one axis.
type axisOrder struct {
	order   []string               // distinct full keys in traversal order
	values  map[string]ir.IRObject // full key -> projected key fields
	rowKeys []string               // full key of each input row
}

// orderAxis orders the distinct keys of rows over the given group levels.
// A key sorts by the first-appearance rank of each of its prefixes, so
// instances of an outer level are never split by an inner one.
func orderAxis(rows []ir.IRObject, levels [][]string) (*axisOrder, error) {
	a := &axisOrder{
		values:  make(map[string]ir.IRObject),
		rowKeys: make([]string, len(rows)),
	}
	ranks := make([]map[string]int, len(levels))
	for l := range ranks {
		ranks[l] = make(map[string]int)
	}
	vectors := make(map[string][]int)

	var all []string
	for _, f := range levels {
		all = append(all, f...)
	}

	for i, row := range rows {
		vec := make([]int, len(levels))
		var prefix []string
		for l, f := range levels {
			prefix = append(prefix, f...)
			pk, err := keyOf(row, prefix)
			if err != nil {
				return nil, err
			}
			r, seen := ranks[l][pk]
			if !seen {
				r = len(ranks[l])
				ranks[l][pk] = r
			}
			vec[l] = r
		}

		full, err := keyOf(row, all)
		if err != nil {
			return nil, err
		}
		a.rowKeys[i] = full
		if _, seen := vectors[full]; !seen {
			vectors[full] = vec
			a.values[full] = row.Project(all)
			a.order = append(a.order, full)
		}
	}

	slices.SortStableFunc(a.order, func(x, y string) int {
		return slices.Compare(vectors[x], vectors[y])
	})
	return a, nil
}
