package queryir

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/roach88/bandwalk/internal/ir"
)

// Validate checks that a query only names known tables and columns and only
// compares against concrete values. All problems are reported, combined
// with multierr.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	switch query := q.(type) {
	case Select:
		return validateSelect(query)
	case *Select:
		if query == nil {
			return fmt.Errorf("nil query")
		}
		return validateSelect(*query)
	case nil:
		return fmt.Errorf("nil query")
	default:
		return fmt.Errorf("unknown query type %T", q)
	}
}

func validateSelect(sel Select) error {
	table, ok := LookupTable(sel.From)
	if !ok {
		return fmt.Errorf("unknown table %q", sel.From)
	}

	var errs error
	for _, f := range sel.Fields {
		if !table.HasColumn(f) {
			errs = multierr.Append(errs, fmt.Errorf("table %s has no column %q", table.Name, f))
		}
	}
	if sel.Filter != nil {
		errs = multierr.Append(errs, validatePredicate(table, sel.Filter))
	}
	return errs
}

func validatePredicate(table Table, p Predicate) error {
	switch pred := p.(type) {
	case Equals:
		return validateEquals(table, pred)
	case *Equals:
		return validateEquals(table, *pred)
	case HasFlags:
		return validateHasFlags(table, pred)
	case *HasFlags:
		return validateHasFlags(table, *pred)
	case And:
		return validateAnd(table, pred)
	case *And:
		return validateAnd(table, *pred)
	default:
		return fmt.Errorf("unknown predicate type %T", p)
	}
}

func validateEquals(table Table, eq Equals) error {
	if !table.filterable(eq.Field) {
		return fmt.Errorf("table %s has no column %q", table.Name, eq.Field)
	}
	switch eq.Value.(type) {
	case ir.IRString, ir.IRInt, ir.IRBool:
		return nil
	case ir.IRNull, nil:
		return fmt.Errorf("column %q compared to NULL", eq.Field)
	default:
		return fmt.Errorf("column %q compared to %T", eq.Field, eq.Value)
	}
}

func validateHasFlags(table Table, hf HasFlags) error {
	if !table.Integer[hf.Field] {
		return fmt.Errorf("column %q of table %s is not an integer column", hf.Field, table.Name)
	}
	if hf.Mask <= 0 {
		return fmt.Errorf("column %q: flag mask must be positive, got %d", hf.Field, hf.Mask)
	}
	return nil
}

func validateAnd(table Table, and And) error {
	var errs error
	for _, p := range and.Predicates {
		errs = multierr.Append(errs, validatePredicate(table, p))
	}
	return errs
}
