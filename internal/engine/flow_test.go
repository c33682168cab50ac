package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/testutil"
)

func TestUUIDv7Generator_Format(t *testing.T) {
	id := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{}
	const goroutines = 100

	ids := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id generated")
		seen[id] = true
	}
	assert.Len(t, seen, goroutines)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("run-1", "run-2")

	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.PanicsWithValue(t, "FixedGenerator: all ids exhausted", func() {
		gen.Generate()
	})

	assert.Panics(t, func() { NewFixedGenerator().Generate() })
}

func TestEngine_RunIDPerRun(t *testing.T) {
	def := testutil.OrdersDefinition()
	tbl, err := datarow.NewTable(def, testutil.OrdersRows())
	require.NoError(t, err)

	e, err := New(def, tbl, quietOptions(WithRunIDGenerator(NewFixedGenerator("first", "second")))...)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", res.RunID)

	res, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", res.RunID)
}

func TestEngine_DefaultRunIDIsUUIDv7(t *testing.T) {
	def := testutil.OrdersDefinition()
	tbl, err := datarow.NewTable(def, testutil.OrdersRows())
	require.NoError(t, err)

	e, err := New(def, tbl, WithLogger(quietLogger()))
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)

	parsed, err := uuid.Parse(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
