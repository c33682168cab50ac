// Package queryir is the query representation the store answers trace
// queries with.
//
// A Select names one stored table, the columns to read and an optional
// filter. Filters are built from three predicates:
//
//	Equals    column = literal
//	HasFlags  (column & mask) = mask
//	And       every predicate holds
//
// Query and Predicate are sealed: only this package implements them, so the
// SQL backend in querysql can switch over them exhaustively.
//
// Literals are ir.IRValue values. Floats never appear in a query and NULL is
// rejected by Validate, so the same query always selects the same rows.
package queryir
