// Package compiler turns report definitions written in CUE into
// report.Definition values.
//
// A definition file declares a top-level report field:
//
//	report: {
//		name: "orders"
//		groups: [
//			{name: "customer", fields: ["customer"], header: "customer-header"},
//			{name: "order", fields: ["order"]},
//		]
//		details: "line"
//		subreports: [{
//			name:       "lines"
//			parameters: ["order"]
//			report: {name: "lines", details: "line"}
//		}]
//	}
//
// The value is unified with the embedded #Report schema first, so type
// errors, unknown fields and bad group kinds come back from CUE with their
// source positions. Structural rules (crosstab shape, duplicate names) are
// checked afterwards by report.Definition.Validate.
package compiler
