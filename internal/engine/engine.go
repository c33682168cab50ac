package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/report"
)

// DefaultMaxSteps is the default maximum number of steps per traversal.
const DefaultMaxSteps = 100000

// Engine drives one report definition over one flow controller.
//
// Thread-safety model: an Engine and the states it produces belong to one
// goroutine. Listeners run synchronously on that goroutine. The definition
// is read, never written, and must not change while the engine is in use.
type Engine struct {
	rt       *runtime
	runIDs   RunIDGenerator
	restarts map[int]bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxSteps sets the step quota enforced by Run, per traversal. Nested
// sub-reports get the same quota each.
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.rt.maxSteps = maxSteps
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.rt.logger = logger
	}
}

// WithLayout sets the pagination collaborator.
func WithLayout(layout Layout) EngineOption {
	return func(e *Engine) {
		e.rt.layout = layout
	}
}

// WithListener subscribes l before the first event can fire.
func WithListener(l Listener) EngineOption {
	return func(e *Engine) {
		e.rt.events.subscribe(l)
	}
}

// WithClock sets the logical clock, e.g. to continue numbering from a
// previous run.
func WithClock(clock *Clock) EngineOption {
	return func(e *Engine) {
		e.rt.clock = clock
	}
}

// WithRunIDGenerator sets the generator for Run's run ID.
func WithRunIDGenerator(gen RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = gen
	}
}

// WithRestartAt makes Run simulate a layout restart at the given steps
// (1-based). At such a step the tentative state is discarded and the last
// committed state is passed through RestartOnNewPage, as a layout does when
// the step's content overflows the page.
func WithRestartAt(steps ...int) EngineOption {
	return func(e *Engine) {
		for _, s := range steps {
			e.restarts[s] = true
		}
	}
}

// New validates def and creates an Engine over ctrl.
//
// Validation failures are returned as a TraversalError with code
// ErrCodeInvalidStructure wrapping the validation errors.
func New(def *report.Definition, ctrl datarow.Controller, opts ...EngineOption) (*Engine, error) {
	if def == nil {
		return nil, newInvalidStructure(nil, "report definition is nil")
	}
	if err := def.Validate(); err != nil {
		e := newInvalidStructure(nil, "report %q failed validation", def.Name)
		e.Cause = err
		return nil, e
	}

	e := &Engine{
		rt: &runtime{
			def:      def,
			ctrl:     ctrl,
			layout:   noLayout{},
			clock:    NewClock(),
			logger:   slog.Default(),
			events:   newDispatcher(),
			maxSteps: DefaultMaxSteps,
		},
		runIDs:   UUIDv7Generator{},
		restarts: make(map[int]bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Definition returns the report the engine traverses.
func (e *Engine) Definition() *report.Definition {
	return e.rt.def
}

// Subscribe registers a listener. Listeners are called synchronously in
// registration order for every event.
func (e *Engine) Subscribe(l Listener) {
	e.rt.events.subscribe(l)
}

// EventCount returns the number of events fired so far, sub-report events
// included.
func (e *Engine) EventCount() int {
	return e.rt.events.count()
}

// Start returns a fresh Begin-Report state.
func (e *Engine) Start() *ProcessState {
	return newInitialState(e.rt)
}

// Advance runs the handler of the committed state s and returns the
// tentative state it produced. The handler's event has fired by the time
// Advance returns.
//
// At most one tentative state is outstanding: advancing again before it is
// committed is an illegal traversal. To drop a tentative state, restart from
// the last committed state with RestartOnNewPage.
func (e *Engine) Advance(s *ProcessState) (*ProcessState, error) {
	if err := e.owns(s); err != nil {
		return nil, err
	}
	return advance(s)
}

// Commit finalizes the tentative state t and returns the committed state,
// whose handler governs the following step.
func (e *Engine) Commit(t *ProcessState) (*ProcessState, error) {
	if err := e.owns(t); err != nil {
		return nil, err
	}
	return commit(t)
}

// Step advances s and commits the result.
func (e *Engine) Step(s *ProcessState) (*ProcessState, error) {
	t, err := e.Advance(s)
	if err != nil {
		return nil, err
	}
	return e.Commit(t)
}

// RestartOnNewPage is the package-level RestartOnNewPage restricted to this
// engine's states.
func (e *Engine) RestartOnNewPage(s *ProcessState) (*ProcessState, error) {
	if err := e.owns(s); err != nil {
		return nil, err
	}
	return RestartOnNewPage(s)
}

func (e *Engine) owns(s *ProcessState) error {
	if s == nil {
		return newIllegalTraversal(nil, "nil state")
	}
	if s.rt != e.rt {
		return newIllegalTraversal(s, "state belongs to a different traversal")
	}
	return nil
}

// Result summarizes a Run.
type Result struct {
	RunID    string
	Steps    int           // Advances performed, restarts included
	Events   int           // Events fired, sub-report events included
	Restarts []int         // Steps that were rolled back and restarted
	MaxSteps int           // Step quota the run was driven under
	Final    *ProcessState // Last committed state; finished on success
}

// Run drives the traversal from Begin-Report to End-Report.
//
// Cancellation is cooperative: the context is checked between steps. Run
// fails with StepsExceededError when the step quota is exhausted. On error
// the returned Result describes the progress made before it.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	runID := e.runIDs.Generate()
	logger := e.rt.logger.With("run_id", runID, "report", e.rt.def.Name)
	logger.Info("run starting")

	before := e.rt.events.count()
	final, steps, restarts, err := driveWithRestarts(ctx, e.rt, runID, e.restarts)
	res := &Result{
		RunID:    runID,
		Steps:    steps,
		Events:   e.rt.events.count() - before,
		Restarts: restarts,
		MaxSteps: e.rt.maxSteps,
		Final:    final,
	}
	if err != nil {
		logger.Error("run failed", "steps", steps, "error", err)
		return res, err
	}

	logger.Info("run finished", "steps", steps, "events", res.Events)
	return res, nil
}

// drive runs a traversal of rt to completion without restarts.
func drive(ctx context.Context, rt *runtime, runID string, restarts map[int]bool) (*ProcessState, int, error) {
	final, steps, _, err := driveWithRestarts(ctx, rt, runID, restarts)
	return final, steps, err
}

func driveWithRestarts(ctx context.Context, rt *runtime, runID string, restarts map[int]bool) (*ProcessState, int, []int, error) {
	quota := NewQuotaEnforcer(rt.maxSteps)
	s := newInitialState(rt)
	var applied []int

	rt.ctx = ctx
	defer func() { rt.ctx = nil }()

	for !s.IsFinish() {
		if err := ctx.Err(); err != nil {
			return s, quota.Current(), applied, err
		}
		if err := quota.Check(runID); err != nil {
			rt.logger.Error("max steps quota exceeded", "run_id", runID, "steps", quota.Current(), "limit", rt.maxSteps)
			return s, quota.Current() - 1, applied, err
		}
		step := quota.Current()

		t, err := advance(s)
		if err != nil {
			return s, step, applied, err
		}

		if restarts[step] {
			// The layout rejected t: resume from s on a new page.
			r, err := RestartOnNewPage(s)
			if err != nil {
				return s, step, applied, err
			}
			applied = append(applied, step)
			s = r
			continue
		}

		if s, err = commit(t); err != nil {
			return t, step, applied, err
		}
	}
	return s, quota.Current(), applied, nil
}

func advance(s *ProcessState) (*ProcessState, error) {
	if s.tentative {
		return nil, newIllegalTraversal(s, "advance called on a tentative state; commit it first")
	}
	if s.IsFinish() {
		return nil, newIllegalTraversal(s, "advance called on a finished traversal")
	}
	if s.rt.latest != 0 {
		return nil, newIllegalTraversal(s, "advance called twice without a commit; tentative state %d is outstanding", s.rt.latest)
	}

	n := s.derive()
	n.tentative = true
	if err := handlers[n.handler.kind].advance(n); err != nil {
		return nil, err
	}
	s.rt.latest = n.seq
	s.rt.logger.Debug("advanced", n.logAttrs()...)
	return n, nil
}

func commit(t *ProcessState) (*ProcessState, error) {
	if !t.tentative {
		return nil, newIllegalTraversal(t, "commit called without a preceding advance")
	}
	if t.seq != t.rt.latest {
		return nil, newIllegalTraversal(t, "stale state: seq %d is not the most recent advance", t.seq)
	}

	n := t.derive()
	if err := handlers[n.handler.kind].commit(n); err != nil {
		return nil, err
	}
	t.rt.latest = 0

	if err := t.rt.ctrl.CommitCursor(n.cursor); err != nil {
		return nil, fmt.Errorf("commit cursor %d: %w", n.cursor.Index, err)
	}
	t.rt.logger.Debug("committed", n.logAttrs()...)
	return n, nil
}
