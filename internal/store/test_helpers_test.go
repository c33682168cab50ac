package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/bandwalk/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvents returns n event records numbered 1..n.
func createTestEvents(n int) []ir.EventRecord {
	events := make([]ir.EventRecord, n)
	for i := range events {
		events[i] = ir.EventRecord{
			Step:    i + 1,
			Seq:     int64(2*i + 2),
			Code:    uint32(1 << (i % 4)),
			Handler: "process-details",
			Group:   i%2 - 1,
			AxisRow: -1,
			AxisCol: -1,
			Cursor:  i - 1,
		}
	}
	return events
}

// createTestRun creates a completed run record matching events.
func createTestRun(t *testing.T, id string, events []ir.EventRecord) ir.RunRecord {
	t.Helper()
	digest, err := ir.TraceDigest(events)
	if err != nil {
		t.Fatalf("TraceDigest() failed: %v", err)
	}
	return ir.RunRecord{
		ID:             id,
		ReportName:     "orders",
		DefinitionJSON: []byte(`{"name":"orders"}`),
		DatasetJSON:    []byte(`{"rows":[]}`),
		DefinitionHash: "def-hash",
		DatasetHash:    "data-hash",
		TraceDigest:    digest,
		EventCount:     len(events),
		MaxSteps:       100000,
		Status:         ir.RunCompleted,
		EngineVersion:  ir.EngineVersion,
	}
}
