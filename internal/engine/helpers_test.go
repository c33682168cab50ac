package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
	"github.com/roach88/bandwalk/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func quietOptions(opts ...EngineOption) []EngineOption {
	return append([]EngineOption{
		WithLogger(quietLogger()),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-test")),
	}, opts...)
}

func newTestEngine(t *testing.T, def *report.Definition, rows []ir.IRObject, opts ...EngineOption) *Engine {
	t.Helper()
	tbl, err := datarow.NewTable(def, rows)
	require.NoError(t, err)
	e, err := New(def, tbl, quietOptions(opts...)...)
	require.NoError(t, err)
	return e
}

// runTrace runs e to completion and returns the fired codes.
func runTrace(t *testing.T, e *Engine) ([]EventCode, *Result, error) {
	t.Helper()
	rec := NewTraceRecorder()
	e.Subscribe(rec)
	res, err := e.Run(context.Background())
	return rec.Codes(), res, err
}

func countCodes(codes []EventCode, mask EventCode) int {
	n := 0
	for _, c := range codes {
		if c.Has(mask) {
			n++
		}
	}
	return n
}

// stepUntil steps from s until its next handler is kind.
func stepUntil(t *testing.T, e *Engine, s *ProcessState, kind Kind) *ProcessState {
	t.Helper()
	for i := 0; s.Handler().Kind() != kind; i++ {
		require.Less(t, i, 1000, "handler %s never reached", kind)
		var err error
		s, err = e.Step(s)
		require.NoError(t, err)
	}
	return s
}
