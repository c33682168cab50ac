package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/bandwalk/internal/report"
)

//go:embed schema.cue
var schemaSource []byte

// schemaFor compiles the #Report definition in ctx. Values only unify with
// values from the same context.
func schemaFor(ctx *cue.Context) (cue.Value, error) {
	s := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile report schema: %w", err)
	}
	return s.LookupPath(cue.ParsePath("#Report")), nil
}

// CompileReport parses a CUE value into a report.Definition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value should be the report struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`report: { name: "orders", details: "line" }`)
//	def, err := CompileReport(v.LookupPath(cue.ParsePath("report")))
//
// The definition is not validated structurally; call Validate on the result.
func CompileReport(v cue.Value) (*report.Definition, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "report", Message: "report is required", Pos: v.Pos()}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema, err := schemaFor(v.Context())
	if err != nil {
		return nil, err
	}
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return parseReport(u, "")
}

func parseReport(v cue.Value, prefix string) (*report.Definition, error) {
	def := &report.Definition{}

	name, err := parseString(v, prefix, "name")
	if err != nil {
		return nil, err
	}
	def.Name = name

	if def.Groups, err = parseGroups(v, prefix); err != nil {
		return nil, err
	}

	if details := v.LookupPath(cue.ParsePath("details")); details.Exists() {
		if def.Details, err = parseBand(details, prefix+"details"); err != nil {
			return nil, err
		}
	}

	if def.SubReports, err = parseSubReports(v, prefix); err != nil {
		return nil, err
	}
	return def, nil
}

// parseGroups extracts the group stack, outermost first.
func parseGroups(v cue.Value, prefix string) ([]report.Group, error) {
	var groups []report.Group

	iter, err := v.LookupPath(cue.ParsePath("groups")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		gv := iter.Value()
		path := fmt.Sprintf("%sgroups[%d].", prefix, i)

		var g report.Group
		if g.Name, err = parseString(gv, path, "name"); err != nil {
			return nil, err
		}

		kindName, err := parseString(gv, path, "kind")
		if err != nil {
			return nil, err
		}
		if g.Kind, err = report.ParseGroupKind(kindName); err != nil {
			return nil, &CompileError{Field: path + "kind", Message: err.Error(), Pos: gv.Pos()}
		}

		if g.Fields, err = parseStrings(gv, path, "fields"); err != nil {
			return nil, err
		}

		if hv := gv.LookupPath(cue.ParsePath("header")); hv.Exists() {
			if g.Header, err = parseBand(hv, path+"header"); err != nil {
				return nil, err
			}
		}
		if fv := gv.LookupPath(cue.ParsePath("footer")); fv.Exists() {
			if g.Footer, err = parseBand(fv, path+"footer"); err != nil {
				return nil, err
			}
		}

		ps := gv.LookupPath(cue.ParsePath("print_summary"))
		if ps, _ = ps.Default(); ps.Exists() {
			if g.PrintSummary, err = ps.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		groups = append(groups, g)
	}
	return groups, nil
}

func parseSubReports(v cue.Value, prefix string) ([]report.SubReport, error) {
	var subs []report.SubReport

	iter, err := v.LookupPath(cue.ParsePath("subreports")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		path := fmt.Sprintf("%ssubreports[%d].", prefix, i)

		var sr report.SubReport
		if sr.Name, err = parseString(sv, path, "name"); err != nil {
			return nil, err
		}
		if sr.Parameters, err = parseStrings(sv, path, "parameters"); err != nil {
			return nil, err
		}
		if dv := sv.LookupPath(cue.ParsePath("dataset")); dv.Exists() {
			if sr.Dataset, err = parseString(sv, path, "dataset"); err != nil {
				return nil, err
			}
		}
		if sr.Definition, err = parseReport(sv.LookupPath(cue.ParsePath("report")), path+"report."); err != nil {
			return nil, err
		}

		subs = append(subs, sr)
	}
	return subs, nil
}

// parseBand accepts either a band name or a {name: ...} struct.
func parseBand(v cue.Value, field string) (*report.Band, error) {
	if name, err := v.String(); err == nil {
		return &report.Band{Name: name}, nil
	}
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "band must be a string or a struct with a name field",
			Pos:     v.Pos(),
		}
	}
	return &report.Band{Name: name}, nil
}

func parseString(v cue.Value, prefix, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: prefix + field, Message: field + " is required", Pos: v.Pos()}
	}
	fv, _ = fv.Default()
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func parseStrings(v cue.Value, prefix, field string) ([]string, error) {
	var out []string
	iter, err := v.LookupPath(cue.ParsePath(field)).List()
	if err != nil {
		return nil, &CompileError{Field: prefix + field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
