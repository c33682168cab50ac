package report

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidationError describes one structural problem in a definition.
type ValidationError struct {
	Path    string // e.g. "groups[2]" or "subreports[0].definition.groups[1]"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks the static structure of the definition and every nested
// sub-report definition. All problems are reported at once; use
// multierr.Errors to list them.
//
// A crosstab-column group outside a crosstab (in particular, as the root
// group) is not rejected here. Its parent axis is only resolved during
// traversal, and the engine fails there with an invalid-structure error.
func (d *Definition) Validate() error {
	return d.validate("", map[*Definition]bool{})
}

func (d *Definition) validate(prefix string, ancestors map[*Definition]bool) error {
	var errs error
	add := func(path, format string, args ...any) {
		errs = multierr.Append(errs, &ValidationError{Path: prefix + path, Message: fmt.Sprintf(format, args...)})
	}

	if d.Name == "" {
		add("name", "report name is required")
	}

	seen := make(map[string]int, len(d.Groups))
	crosstab := -1
	sawColumn := false
	for i, g := range d.Groups {
		path := fmt.Sprintf("groups[%d]", i)
		if g.Name == "" {
			add(path, "group name is required")
		} else if prev, dup := seen[g.Name]; dup {
			add(path, "duplicate group name %q (first declared at groups[%d])", g.Name, prev)
		} else {
			seen[g.Name] = i
		}

		switch g.Kind {
		case Relational:
			if crosstab >= 0 {
				add(path, "relational group %q cannot be nested inside crosstab %q", g.Name, d.Groups[crosstab].Name)
			}
		case Crosstab:
			if crosstab >= 0 {
				add(path, "crosstab %q cannot be nested inside crosstab %q", g.Name, d.Groups[crosstab].Name)
			} else {
				crosstab = i
			}
		case CrosstabRow:
			if crosstab < 0 {
				add(path, "crosstab-row group %q must be declared inside a crosstab", g.Name)
			}
			if sawColumn {
				add(path, "crosstab-row group %q must precede all crosstab-column groups", g.Name)
			}
		case CrosstabColumn:
			sawColumn = true
		default:
			add(path, "unknown group kind %d", int(g.Kind))
		}

		if g.Kind.IsCrosstabAxis() && len(g.Fields) == 0 {
			add(path, "%s group %q needs at least one key field", g.Kind, g.Name)
		}
		if g.PrintSummary && g.Kind != CrosstabColumn {
			add(path, "print_summary is only supported on crosstab-column groups")
		}
	}

	if crosstab >= 0 {
		rows, cols := 0, 0
		for _, g := range d.Groups[crosstab+1:] {
			switch g.Kind {
			case CrosstabRow:
				rows++
			case CrosstabColumn:
				cols++
			}
		}
		path := fmt.Sprintf("groups[%d]", crosstab)
		if rows == 0 {
			add(path, "crosstab %q has no crosstab-row groups", d.Groups[crosstab].Name)
		}
		if cols == 0 {
			add(path, "crosstab %q has no crosstab-column groups", d.Groups[crosstab].Name)
		}
		if len(d.SubReports) > 0 {
			add("subreports", "sub-reports attach to the details band and cannot be combined with a crosstab")
		}
	}

	if len(d.SubReports) > 0 {
		ancestors[d] = true
		defer delete(ancestors, d)
	}
	names := make(map[string]bool, len(d.SubReports))
	for i, sr := range d.SubReports {
		path := fmt.Sprintf("subreports[%d]", i)
		if sr.Name == "" {
			add(path, "sub-report name is required")
		} else if names[sr.Name] {
			add(path, "duplicate sub-report name %q", sr.Name)
		}
		names[sr.Name] = true

		for j, p := range sr.Parameters {
			if p == "" {
				add(fmt.Sprintf("%s.parameters[%d]", path, j), "parameter name is required")
			}
		}

		if sr.Definition == nil {
			add(path, "sub-report %q has no definition", sr.Name)
			continue
		}
		if ancestors[sr.Definition] {
			add(path, "sub-report %q includes one of its ancestors", sr.Name)
			continue
		}
		errs = multierr.Append(errs, sr.Definition.validate(prefix+path+".definition.", ancestors))
	}

	return errs
}
