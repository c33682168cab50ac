// # Determinism and Replay
//
// A traversal is a pure function of the report definition and the rows the
// flow controller serves:
//
//   - handlers are stateless values; the next handler depends only on the
//     committed state and controller answers
//   - listeners are called synchronously, in firing order
//   - sequence numbers come from the logical Clock, never from wall time
//   - group boundaries compare canonical JSON, never Go map order
//
// Running the same definition over the same rows therefore fires the same
// events with the same sequence numbers, and the trace digest of two such
// runs is identical. Replay relies on nothing else: a stored run keeps the
// definition, the dataset and the digest, and replaying means traversing
// again and comparing digests.

package engine

import (
	"context"
	"fmt"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// Trace runs def over ctrl and returns the run result with every event
// recorded. Options apply as for New.
func Trace(ctx context.Context, def *report.Definition, ctrl datarow.Controller, opts ...EngineOption) (*Result, []ir.EventRecord, error) {
	rec := NewTraceRecorder()
	e, err := New(def, ctrl, append(opts[:len(opts):len(opts)], WithListener(rec))...)
	if err != nil {
		return nil, nil, err
	}
	res, err := e.Run(ctx)
	return res, rec.Records(), err
}

// ReplayMismatch describes the first difference between a stored trace and
// a replayed one.
type ReplayMismatch struct {
	Step     int
	Stored   *ir.EventRecord // nil when the stored trace is shorter
	Replayed *ir.EventRecord // nil when the replayed trace is shorter
}

func (m ReplayMismatch) String() string {
	switch {
	case m.Stored == nil:
		return fmt.Sprintf("step %d: replay fired extra %s (%s)", m.Step, EventCode(m.Replayed.Code), m.Replayed.Handler)
	case m.Replayed == nil:
		return fmt.Sprintf("step %d: replay ended before %s (%s)", m.Step, EventCode(m.Stored.Code), m.Stored.Handler)
	default:
		return fmt.Sprintf("step %d: stored %s (%s), replayed %s (%s)", m.Step,
			EventCode(m.Stored.Code), m.Stored.Handler, EventCode(m.Replayed.Code), m.Replayed.Handler)
	}
}

// CompareTraces returns the first mismatch between two traces, or nil if
// they are identical.
func CompareTraces(stored, replayed []ir.EventRecord) *ReplayMismatch {
	n := max(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		m := &ReplayMismatch{Step: i + 1}
		if i < len(stored) {
			m.Stored = &stored[i]
		}
		if i < len(replayed) {
			m.Replayed = &replayed[i]
		}
		if m.Stored == nil || m.Replayed == nil || *m.Stored != *m.Replayed {
			return m
		}
	}
	return nil
}
