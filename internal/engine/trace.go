package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/bandwalk/internal/ir"
)

// TraceRecorder is a Listener that keeps every event as an ir.EventRecord,
// numbered by firing order.
type TraceRecorder struct {
	mu      sync.Mutex
	records []ir.EventRecord
	codes   []EventCode
}

// NewTraceRecorder creates an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{}
}

// OnEvent implements Listener.
func (r *TraceRecorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, ev.Record(len(r.records)+1))
	r.codes = append(r.codes, ev.Code)
}

// Records returns a copy of the recorded events.
func (r *TraceRecorder) Records() []ir.EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ir.EventRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Codes returns the recorded event codes in order.
func (r *TraceRecorder) Codes() []EventCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventCode, len(r.codes))
	copy(out, r.codes)
	return out
}

// Digest returns the trace digest of the recorded events.
func (r *TraceRecorder) Digest() (string, error) {
	return ir.TraceDigest(r.Records())
}

// FilterRecords returns the records whose code has every flag of mask.
// A zero mask selects everything.
func FilterRecords(records []ir.EventRecord, mask EventCode) []ir.EventRecord {
	if mask == 0 {
		return records
	}
	var out []ir.EventRecord
	for _, r := range records {
		if EventCode(r.Code).Has(mask) {
			out = append(out, r)
		}
	}
	return out
}

// FormatRecord renders a record as one line of text:
//
//	5 items-advanced process-details group=1 cursor=0
//
// Re-fired sub-report events end with the nested handler that fired them.
func FormatRecord(r ir.EventRecord) string {
	line := fmt.Sprintf("%d %s %s group=%d cursor=%d", r.Step, EventCode(r.Code), r.Handler, r.Group, r.Cursor)
	if r.OriginHandler != "" {
		line += " origin=" + r.OriginHandler
	}
	return line
}

// FormatTrace renders records with FormatRecord, one per line.
func FormatTrace(records []ir.EventRecord) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(FormatRecord(r))
		b.WriteByte('\n')
	}
	return b.String()
}
