package engine

import "fmt"

// inlineSubReports runs every sub-report of the current detail row to
// completion. Each nested event is re-fired through n, the parent's
// tentative state, marked DeepTraversing and keeping its origin. The
// sub-reports run under the parent's run context.
func inlineSubReports(n *ProcessState) error {
	rt := n.rt
	for i := range rt.def.SubReports {
		sr := &rt.def.SubReports[i]

		ctrl, err := rt.ctrl.SubReport(sr, n.cursor)
		if err != nil {
			return fmt.Errorf("sub-report %q: %w", sr.Name, err)
		}

		child := &runtime{
			def:      sr.Definition,
			ctrl:     ctrl,
			layout:   rt.layout,
			clock:    rt.clock,
			logger:   rt.logger.With("subreport", sr.Name),
			events:   newDispatcher(),
			maxSteps: rt.maxSteps,
			depth:    rt.depth + 1,
			ctx:      rt.ctx,
		}
		child.events.subscribe(ListenerFunc(func(ev Event) {
			rt.events.fire(Event{Code: ev.Code | DeepTraversing, State: n, Origin: ev.Origin})
		}))

		if _, _, err := drive(rt.runContext(), child, sr.Name, nil); err != nil {
			return fmt.Errorf("sub-report %q: %w", sr.Name, err)
		}
	}
	return nil
}
