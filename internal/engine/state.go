package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/report"
)

// runtime is the per-traversal context every state of one engine shares.
// Only the engine's driving goroutine touches it.
type runtime struct {
	def      *report.Definition
	ctrl     datarow.Controller
	layout   Layout
	clock    *Clock
	logger   *slog.Logger
	events   *dispatcher
	maxSteps int
	depth    int // sub-report nesting depth, 0 for the master report

	// ctx is the context of the run driving this runtime. Nil when states
	// are stepped by hand through Engine.Advance.
	ctx context.Context

	// latest is the seq of the most recent tentative state, or 0 once it has
	// been committed. Only that state may be committed.
	latest int64
}

func (rt *runtime) runContext() context.Context {
	if rt.ctx == nil {
		return context.Background()
	}
	return rt.ctx
}

// ProcessState is an immutable snapshot of the traversal position.
//
// States are produced only by the engine (Start, Advance, Commit,
// RestartOnNewPage) and never change once handed out, so a caller may keep
// an earlier committed state and resume from it after a rollback.
type ProcessState struct {
	rt *runtime

	cursor      datarow.Cursor
	groupIndex  int
	axisRow     int
	axisCol     int
	inItemGroup bool
	handler     Handler
	artificial  bool
	tentative   bool
	seq         int64
}

func newInitialState(rt *runtime) *ProcessState {
	return &ProcessState{
		rt:         rt,
		cursor:     datarow.Start(),
		groupIndex: report.BeforeFirstGroup,
		axisRow:    -1,
		axisCol:    -1,
		handler:    Handler{kind: KindBeginReport},
		seq:        rt.clock.Next(),
	}
}

// derive is the only way states are built after the initial one: a copy
// with a fresh sequence number and the per-step flags cleared.
func (s *ProcessState) derive() *ProcessState {
	n := *s
	n.seq = s.rt.clock.Next()
	n.tentative = false
	n.artificial = false
	return &n
}

// Cursor returns the row cursor.
func (s *ProcessState) Cursor() datarow.Cursor { return s.cursor }

// GroupIndex returns the index of the innermost entered group, or
// report.BeforeFirstGroup.
func (s *ProcessState) GroupIndex() int { return s.groupIndex }

// Group returns the innermost entered group, or nil before the first group.
func (s *ProcessState) Group() *report.Group {
	if !s.rt.def.HasGroup(s.groupIndex) {
		return nil
	}
	return s.rt.def.Group(s.groupIndex)
}

// Definition returns the report being traversed.
func (s *ProcessState) Definition() *report.Definition { return s.rt.def }

// InItemGroup reports whether the traversal is iterating detail or fact rows.
func (s *ProcessState) InItemGroup() bool { return s.inItemGroup }

// Handler returns the handler. For a tentative state this is the handler
// whose advance produced it; for a committed state it is the handler the
// next advance runs.
func (s *ProcessState) Handler() Handler { return s.handler }

// IsArtificial reports whether the state was synthesized for a restart.
func (s *ProcessState) IsArtificial() bool { return s.artificial }

// IsTentative reports whether the state awaits Commit.
func (s *ProcessState) IsTentative() bool { return s.tentative }

// IsFinish reports whether the traversal has ended.
func (s *ProcessState) IsFinish() bool { return s.handler.IsFinish() }

// Seq returns the state's sequence number. Later states have larger ones.
func (s *ProcessState) Seq() int64 { return s.seq }

// Depth returns the sub-report nesting depth of the state's report.
func (s *ProcessState) Depth() int { return s.rt.depth }

// AxisPosition returns the crosstab (row, column) position. Positions are
// 0-based; a column of -1 means no column has been entered in the current
// row yet. It fails unless the current group is a crosstab row or column
// group.
func (s *ProcessState) AxisPosition() (row, col int, err error) {
	g := s.Group()
	if g == nil || !g.Kind.IsCrosstabAxis() {
		return 0, 0, newIllegalTraversal(s, "crosstab axis position read outside a crosstab row or column group")
	}
	return s.axisRow, s.axisCol, nil
}

// enterGroup moves into the next group of the stack.
func (s *ProcessState) enterGroup() {
	s.groupIndex++
	def := s.rt.def
	switch g := def.Group(s.groupIndex); g.Kind {
	case report.Crosstab:
		s.axisRow, s.axisCol = -1, -1
	case report.CrosstabRow:
		if s.groupIndex == def.InnermostOf(report.CrosstabRow) {
			s.axisRow++
			s.axisCol = -1
		}
	case report.CrosstabColumn:
		if s.groupIndex == def.InnermostOf(report.CrosstabColumn) {
			s.axisCol++
		}
	}
}

// leaveGroup moves out to the enclosing group and returns the group left.
func (s *ProcessState) leaveGroup() *report.Group {
	left := s.rt.def.Group(s.groupIndex)
	s.groupIndex--
	if left.Kind == report.Crosstab {
		s.axisRow, s.axisCol = -1, -1
	}
	return left
}

func (s *ProcessState) fire(code EventCode) {
	s.rt.events.fire(Event{Code: code, State: s, Origin: s})
}

func (s *ProcessState) logAttrs() []any {
	return []any{
		"handler", s.handler.String(),
		"seq", s.seq,
		"group", s.groupIndex,
		"cursor", s.cursor.Index,
		"depth", s.rt.depth,
	}
}
