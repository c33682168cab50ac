package queryir

import "github.com/roach88/bandwalk/internal/ir"

// Query is a query over the stored tables.
//
// Sealed interface: only Select implements it.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
//
// Sealed interface: Equals, HasFlags and And implement it.
type Predicate interface {
	predicateNode()
}

// Select reads Fields of the rows of From that satisfy Filter.
//
//	SELECT <fields> FROM <from> WHERE <filter> ORDER BY <table key>
//
// Empty Fields selects every column of the table in schema order. A nil
// Filter selects every row.
type Select struct {
	From   string
	Fields []string
	Filter Predicate
}

func (Select) queryNode() {}

// Equals holds when the column equals a literal.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// HasFlags holds when every bit of Mask is set in an integer column. It is
// how event codes are matched against a code mask.
type HasFlags struct {
	Field string
	Mask  int64
}

func (HasFlags) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conjoin returns the conjunction of the non-nil predicates, flattening
// nested Ands. It returns nil when nothing is left.
func Conjoin(preds ...Predicate) Predicate {
	var flat []Predicate
	for _, p := range preds {
		switch pred := p.(type) {
		case nil:
		case And:
			flat = append(flat, pred.Predicates...)
		case *And:
			flat = append(flat, pred.Predicates...)
		default:
			flat = append(flat, p)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return And{Predicates: flat}
	}
}
