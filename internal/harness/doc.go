// Package harness provides conformance testing for bandwalk reports.
//
// A scenario runs one CUE report over inline rows and asserts on the event
// trace the traversal fires.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: orders
//	description: "Customers break into orders, orders into lines"
//	report: reports/orders.cue
//	rows:
//	  - {customer: acme, order: 1, sku: A}
//	  - {customer: zeta, order: 3, sku: D}
//	datasets:
//	  lines:
//	    - {order: 1, sku: A}
//	restarts: [3]
//	max_steps: 100
//	assertions:
//	  - type: event_count
//	    event: group-started
//	    count: 5
//	  - type: event_order
//	    events: [report-started, items-started, report-done]
//
// Paths are relative to the scenario file. A scenario that must fail names
// the failure in expect_error: illegal_traversal, invalid_report_structure,
// steps_exceeded or unknown_dataset.
//
// # Assertion Types
//
//   - event_count: events carrying every flag of event number exactly count
//   - event_order: events appear in the given order, gaps allowed
//   - first_event, last_event: exact code of the first or last event
//   - no_event: no event carries every flag of event
//   - handler_sequence: handlers fire in the given order, gaps allowed
//   - step_count: the run took exactly count steps
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id and a fresh logical clock, and is
// stored in an in-memory SQLite database, read back, and replayed from the
// stored record. A replay that diverges fails the scenario, so every
// scenario also checks determinism.
//
// Traces compare against golden files in golden/<name>.golden next to the
// scenario, one event per line as engine.FormatTrace renders it.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/orders.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
