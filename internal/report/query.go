package report

// GroupCount returns the depth of the group stack.
func (d *Definition) GroupCount() int {
	return len(d.Groups)
}

// Group returns the group at index i. It panics on an out-of-range index,
// like slice indexing.
func (d *Definition) Group(i int) *Group {
	return &d.Groups[i]
}

// HasGroup reports whether i indexes a group.
func (d *Definition) HasGroup(i int) bool {
	return i >= 0 && i < len(d.Groups)
}

// IsEmpty reports whether the definition has no groups.
func (d *Definition) IsEmpty() bool {
	return len(d.Groups) == 0
}

// KeyFields returns the fields of every group from the root down to index i.
// Rows belong to the same instance of group i when all of these fields match.
// Index BeforeFirstGroup yields no fields.
func (d *Definition) KeyFields(i int) []string {
	var fields []string
	for g := 0; g <= i && g < len(d.Groups); g++ {
		fields = append(fields, d.Groups[g].Fields...)
	}
	return fields
}

// GroupKeys returns KeyFields for every level of the stack.
func (d *Definition) GroupKeys() [][]string {
	keys := make([][]string, len(d.Groups))
	for i := range d.Groups {
		keys[i] = d.KeyFields(i)
	}
	return keys
}

// CrosstabStart returns the index of the Crosstab group, or -1.
func (d *Definition) CrosstabStart() int {
	for i, g := range d.Groups {
		if g.Kind == Crosstab {
			return i
		}
	}
	return -1
}

// HasCrosstab reports whether the stack contains a crosstab section.
func (d *Definition) HasCrosstab() bool {
	return d.CrosstabStart() >= 0
}

// AxisFields returns the key fields of the crosstab row groups and column
// groups, in stack order.
func (d *Definition) AxisFields() (rows, cols []string) {
	for _, g := range d.Groups {
		switch g.Kind {
		case CrosstabRow:
			rows = append(rows, g.Fields...)
		case CrosstabColumn:
			cols = append(cols, g.Fields...)
		}
	}
	return rows, cols
}

// InnermostOf returns the deepest index whose group has the given kind, or -1.
func (d *Definition) InnermostOf(kind GroupKind) int {
	for i := len(d.Groups) - 1; i >= 0; i-- {
		if d.Groups[i].Kind == kind {
			return i
		}
	}
	return -1
}

// SubReport looks up a sub-report by name.
func (d *Definition) SubReport(name string) (*SubReport, bool) {
	for i := range d.SubReports {
		if d.SubReports[i].Name == name {
			return &d.SubReports[i], true
		}
	}
	return nil, false
}
