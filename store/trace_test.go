package store

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/qaoa"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/sim"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/vqe"
)

func newTestDB(t *testing.T) (*PebbleDB, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "trace-store-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := NewPebbleDB(dir)
	require.NoError(t, err)
	return db, dir
}

func sampleRecord(shots int, energy float64) vqe.CallRecord {
	return vqe.CallRecord{
		Backend: "wavefunction",
		Memory: quil.MemoryMap{
			"betas0":        {0.1, 0.2},
			"gammas_pairs0": {0.3},
		},
		Shots:   shots,
		Result:  vqe.Result{Value: energy},
		Elapsed: 42 * time.Millisecond,
		At:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Test that records round-trip through pebble with full fidelity and
// that beginning a run logs it.
func TestTraceStore_RoundTrip(t *testing.T) {
	db, _ := newTestDB(t)
	defer db.Close()

	core, logs := observer.New(zap.DebugLevel)
	traces := NewTraceStore(db, zap.New(core))

	run, err := traces.BeginRun("maxcut p2")
	require.NoError(t, err)

	require.NoError(t, run.Record(sampleRecord(1000, -1.5)))
	require.NoError(t, run.Record(sampleRecord(1000, -1.8)))
	require.NoError(t, run.Record(sampleRecord(2000, -2.0)))

	info, err := traces.Run(run.ID())
	require.NoError(t, err)
	assert.Equal(t, run.ID(), info.ID)
	assert.Equal(t, "maxcut p2", info.Label)
	assert.False(t, info.StartedAt.IsZero())

	records, err := traces.Records(run.ID())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, sampleRecord(1000, -1.5), records[0])
	assert.Equal(t, sampleRecord(1000, -1.8), records[1])
	assert.Equal(t, sampleRecord(2000, -2.0), records[2])

	foundLog := false
	for _, log := range logs.All() {
		if log.Message == "began trace run" {
			foundLog = true
			assert.Equal(t, run.ID().String(), log.ContextMap()["run"])
			assert.Equal(t, "maxcut p2", log.ContextMap()["label"])
			break
		}
	}
	assert.True(t, foundLog, "Expected 'began trace run' debug log")
}

// Test that all runs are listed and unknown ids are reported as such.
func TestTraceStore_Runs(t *testing.T) {
	db, _ := newTestDB(t)
	defer db.Close()

	traces := NewTraceStore(db, nil)

	first, err := traces.BeginRun("first")
	require.NoError(t, err)
	second, err := traces.BeginRun("second")
	require.NoError(t, err)

	runs, err := traces.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []uuid.UUID{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID(), second.ID()}, ids)

	_, err = traces.Run(uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = traces.Records(uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
	err = traces.DeleteRun(uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// Test that deleting a run removes its metadata and records but leaves
// other runs untouched.
func TestTraceStore_DeleteRun(t *testing.T) {
	db, _ := newTestDB(t)
	defer db.Close()

	traces := NewTraceStore(db, nil)

	doomed, err := traces.BeginRun("doomed")
	require.NoError(t, err)
	kept, err := traces.BeginRun("kept")
	require.NoError(t, err)

	require.NoError(t, doomed.Record(sampleRecord(100, 1)))
	require.NoError(t, doomed.Record(sampleRecord(100, 2)))
	require.NoError(t, kept.Record(sampleRecord(100, 3)))

	require.NoError(t, traces.DeleteRun(doomed.ID()))

	_, err = traces.Run(doomed.ID())
	assert.ErrorIs(t, err, ErrRunNotFound)

	doomedID := doomed.ID()
	prefix := append([]byte{TRACE_RECORD}, doomedID[:]...)
	iter, err := db.NewIter(prefix, prefixEnd(prefix))
	require.NoError(t, err)
	assert.False(t, iter.First(), "no record keys should remain")
	require.NoError(t, iter.Close())

	records, err := traces.Records(kept.ID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, float64(3), records[0].Result.Value)
}

// Test that traces survive closing and reopening the database.
func TestTraceStore_Persistence(t *testing.T) {
	db, dir := newTestDB(t)
	traces := NewTraceStore(db, nil)

	run, err := traces.BeginRun("persisted")
	require.NoError(t, err)
	require.NoError(t, run.Record(sampleRecord(100, -4)))
	require.NoError(t, db.Close())

	reopened, err := NewPebbleDB(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := NewTraceStore(reopened, nil).Records(run.ID())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, float64(-4), records[0].Result.Value)
}

// Test that the record sequence keeps append order past the one-byte
// boundary of the sequence encoding.
func TestRunTrace_SequenceOrder(t *testing.T) {
	db, _ := newTestDB(t)
	defer db.Close()

	traces := NewTraceStore(db, nil)
	run, err := traces.BeginRun("long")
	require.NoError(t, err)

	const count = 300
	for i := 0; i < count; i++ {
		record := vqe.CallRecord{Backend: "sampling", Result: vqe.Result{Value: float64(i)}}
		require.NoError(t, run.Record(record))
	}

	records, err := traces.Records(run.ID())
	require.NoError(t, err)
	require.Len(t, records, count)
	for i, record := range records {
		require.Equal(t, float64(i), record.Result.Value)
	}
}

// Test the tracer wired into a live cost function: every evaluation
// lands in the store with the memory map it ran with.
func TestTraceStore_RecordsCostFunctionCalls(t *testing.T) {
	db, _ := newTestDB(t)
	defer db.Close()

	traces := NewTraceStore(db, nil)
	run, err := traces.BeginRun("single qubit")
	require.NoError(t, err)

	hamiltonian := pauli.NewSum(pauli.NewZ(0, 1))
	shape, err := qaoa.ExtractShape(hamiltonian)
	require.NoError(t, err)
	params, err := qaoa.NewStandardParameters(shape, []float64{0}, []float64{0})
	require.NoError(t, err)

	fn, err := qaoa.NewWavefunctionCostFunction(qaoa.WavefunctionCostFunctionConfig{
		Hamiltonian: hamiltonian,
		Params:      params,
		Simulator:   sim.NewWavefunctionSimulator(nil),
		Tracer:      run,
	})
	require.NoError(t, err)

	_, err = fn.Evaluate(context.Background(), []float64{math.Pi / 8, math.Pi / 8}, 0)
	require.NoError(t, err)
	_, err = fn.Evaluate(context.Background(), []float64{math.Pi / 4, math.Pi / 4}, 0)
	require.NoError(t, err)

	records, err := traces.Records(run.ID())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "wavefunction", records[0].Backend)
	assert.Equal(t, []float64{math.Pi / 8}, records[0].Memory["betas0"])
	assert.Equal(t, []float64{math.Pi / 4}, records[1].Memory["betas0"])
	assert.InDelta(t, -1, records[1].Result.Value, 1e-12)
}
