package engine

// Layout is the pagination collaborator. When content produced for a step
// does not fit the current page, it rolls back to the last committed state
// and requests a restart through RestartOnNewPage; the engine then calls
// Layout.RestartOnNewPage while replaying.
type Layout interface {
	RestartOnNewPage(s *ProcessState) error
}

type noLayout struct{}

func (noLayout) RestartOnNewPage(*ProcessState) error { return nil }

// RestartOnNewPage defers the handler of the committed state s by one step.
//
// The returned state runs the restart wrapper: its advance refreshes the row
// cursor, asks the layout to restart and fires Artificial alone; its commit
// reinstalls the deferred handler, whose own code fires on the next step.
// The transition graph is unchanged, only delayed.
//
// Restarting discards any outstanding tentative state.
//
// States at Begin-Report or End-Report are returned as they are. A state
// that already carries the wrapper is re-derived, never wrapped twice.
func RestartOnNewPage(s *ProcessState) (*ProcessState, error) {
	if s.tentative {
		return nil, newIllegalTraversal(s, "restart requested on a tentative state; restart from the last committed state")
	}

	// Any outstanding tentative state is discarded.
	s.rt.latest = 0

	switch {
	case s.handler.kind == KindBeginReport || s.handler.IsFinish():
		return s, nil
	case s.handler.IsRestoreHandler():
		n := s.derive()
		n.artificial = true
		return n, nil
	}

	n := s.derive()
	n.handler = Handler{kind: KindRestartOnNewPage, wrapped: s.handler.kind}
	n.artificial = true
	s.rt.logger.Debug("restart on new page", n.logAttrs()...)
	return n, nil
}

func advanceRestart(n *ProcessState) error {
	n.artificial = true
	c, err := n.rt.ctrl.Refresh(n.cursor)
	if err != nil {
		return err
	}
	n.cursor = c
	if err := n.rt.layout.RestartOnNewPage(n); err != nil {
		return err
	}
	n.fire(n.handler.EventCode())
	return nil
}

func commitRestart(n *ProcessState) error {
	n.handler = Handler{kind: n.handler.wrapped}
	return nil
}
