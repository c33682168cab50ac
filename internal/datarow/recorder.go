package datarow

import (
	"fmt"
	"sync"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// Recorder wraps a Controller and logs every call the engine makes, in order.
// Two runs over the same definition and data produce identical logs; the log
// is the replay record determinism checks compare against.
//
// Controllers returned by SubReport share the parent's log, with calls
// prefixed by the sub-report name.
type Recorder struct {
	inner  Controller
	prefix string
	log    *recorderLog
}

type recorderLog struct {
	mu      sync.Mutex
	entries []string
}

// NewRecorder wraps c.
func NewRecorder(c Controller) *Recorder {
	return &Recorder{inner: c, log: &recorderLog{}}
}

func (r *Recorder) record(format string, args ...any) {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.entries = append(r.log.entries, r.prefix+fmt.Sprintf(format, args...))
}

// Log returns a copy of the recorded calls.
func (r *Recorder) Log() []string {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	out := make([]string, len(r.log.entries))
	copy(out, r.log.entries)
	return out
}

func (r *Recorder) AdvanceCursor(c Cursor) (Cursor, error) {
	next, err := r.inner.AdvanceCursor(c)
	if err != nil {
		r.record("advance %d error", c.Index)
		return next, err
	}
	r.record("advance %d->%d", c.Index, next.Index)
	return next, nil
}

func (r *Recorder) IsAdvanceable(c Cursor) bool {
	ok := r.inner.IsAdvanceable(c)
	r.record("advanceable %d = %t", c.Index, ok)
	return ok
}

func (r *Recorder) IsLastItemInGroup(c Cursor, g int) bool {
	last := r.inner.IsLastItemInGroup(c, g)
	r.record("last %d g%d = %t", c.Index, g, last)
	return last
}

func (r *Recorder) CommitCursor(c Cursor) error {
	r.record("commit %d", c.Index)
	return r.inner.CommitCursor(c)
}

func (r *Recorder) Refresh(c Cursor) (Cursor, error) {
	r.record("refresh %d", c.Index)
	return r.inner.Refresh(c)
}

func (r *Recorder) Row(c Cursor) (ir.IRObject, error) {
	return r.inner.Row(c)
}

func (r *Recorder) SubReport(sr *report.SubReport, c Cursor) (Controller, error) {
	r.record("subreport %s @%d", sr.Name, c.Index)
	child, err := r.inner.SubReport(sr, c)
	if err != nil {
		return nil, err
	}
	return &Recorder{inner: child, prefix: r.prefix + sr.Name + ": ", log: r.log}, nil
}
