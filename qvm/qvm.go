// Package qvm runs measured quil programs shot by shot, sampling
// readout bitstrings from exact statevector probabilities. Compiled
// programs are cached so parametric circuits pay for validation once
// and are rebound per call.
package qvm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/config"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/sim"
)

var (
	ErrNoMeasurements      = errors.New("program has no measurements")
	ErrInvalidShots        = errors.New("shots must be positive")
	ErrInvalidReadoutError = errors.New("readout error must be within [0, 1]")
)

// QVM is a shot-based quantum virtual machine. A single QVM may back
// any number of engines; the sampling source and compile cache are
// guarded internally.
type QVM struct {
	logger       *zap.Logger
	readoutError float64

	rngMu sync.Mutex
	rng   *rand.Rand

	cache *lru.Cache[string, *Executable]
}

func New(logger *zap.Logger, cfg config.QVMConfig) (*QVM, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()
	if cfg.ReadoutError < 0 || cfg.ReadoutError > 1 {
		return nil, errors.Wrapf(ErrInvalidReadoutError, "%v", cfg.ReadoutError)
	}
	cache, err := lru.New[string, *Executable](cfg.CompileCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "new qvm")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &QVM{
		logger:       logger,
		readoutError: cfg.ReadoutError,
		rng:          rand.New(rand.NewSource(seed)),
		cache:        cache,
	}, nil
}

// Compile validates prog and freezes it into an executable bound to a
// shot count. Results are cached by program text and shot count.
func (q *QVM) Compile(ctx context.Context, prog *quil.Program, shots int) (*Executable, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "compile")
	}
	if shots <= 0 {
		return nil, errors.Wrapf(ErrInvalidShots, "%d", shots)
	}

	key := compileKey(prog, shots)
	if executable, ok := q.cache.Get(key); ok {
		return executable, nil
	}

	var measurements []quil.Measurement
	for _, inst := range prog.Instructions() {
		switch in := inst.(type) {
		case quil.Measurement:
			measurements = append(measurements, in)
		case quil.Gate:
			if len(measurements) > 0 {
				return nil, errors.Wrap(sim.ErrMidCircuitMeasurement, in.String())
			}
		}
	}
	if len(measurements) == 0 {
		return nil, errors.Wrap(ErrNoMeasurements, "compile")
	}

	executable := &Executable{
		qvm:          q,
		prog:         prog.Clone(),
		shots:        shots,
		measurements: measurements,
	}
	q.cache.Add(key, executable)
	q.logger.Debug(
		"compiled program",
		zap.String("key", key[:12]),
		zap.Int("shots", shots),
		zap.Int("measurements", len(measurements)),
	)
	return executable, nil
}

// RunProgram compiles prog (through the cache) and samples shots
// readout rows with memory bound.
func (q *QVM) RunProgram(
	ctx context.Context,
	prog *quil.Program,
	memory quil.MemoryMap,
	shots int,
) ([][]uint8, error) {
	executable, err := q.Compile(ctx, prog, shots)
	if err != nil {
		return nil, err
	}
	return executable.Run(ctx, memory)
}

func compileKey(prog *quil.Program, shots int) string {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s\n%d", prog, shots)))
	return hex.EncodeToString(digest[:])
}

// Executable is a compiled program. Run binds a memory map, evolves
// the state once and samples the compiled shot count from it.
type Executable struct {
	qvm          *QVM
	prog         *quil.Program
	shots        int
	measurements []quil.Measurement
}

// Measurements returns the readout suffix in program order. Row k of a
// Run result holds the bit produced by measurement k.
func (e *Executable) Measurements() []quil.Measurement {
	return append([]quil.Measurement(nil), e.measurements...)
}

// Run executes the program against memory and returns one row per
// shot, one bit per measurement, in measurement program order.
func (e *Executable) Run(ctx context.Context, memory quil.MemoryMap) ([][]uint8, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run")
	}
	started := time.Now()

	state, err := sim.Run(e.prog, memory)
	if err != nil {
		return nil, errors.Wrap(err, "run")
	}

	positions := make([]int, len(e.measurements))
	for k, measurement := range e.measurements {
		position, ok := state.Position(measurement.Qubit)
		if !ok {
			return nil, errors.Wrapf(sim.ErrUnknownQubit, "%d", measurement.Qubit)
		}
		positions[k] = position
	}

	probabilities := state.Probabilities()
	cumulative := make([]float64, len(probabilities))
	total := 0.0
	for i, p := range probabilities {
		total += p
		cumulative[i] = total
	}

	rows := make([][]uint8, e.shots)
	e.qvm.rngMu.Lock()
	for shot := range rows {
		index := sampleIndex(cumulative, e.qvm.rng.Float64())
		row := make([]uint8, len(positions))
		for k, position := range positions {
			bit := uint8((index >> position) & 1)
			if e.qvm.readoutError > 0 && e.qvm.rng.Float64() < e.qvm.readoutError {
				bit ^= 1
			}
			row[k] = bit
		}
		rows[shot] = row
	}
	e.qvm.rngMu.Unlock()

	e.qvm.logger.Debug(
		"sampled program",
		zap.Int("shots", e.shots),
		zap.Int("qubits", len(state.Qubits())),
		zap.Duration("elapsed", time.Since(started)),
	)
	return rows, nil
}

// sampleIndex locates r in the cumulative distribution. The final
// bucket absorbs rounding shortfall so r close to 1 stays in range.
func sampleIndex(cumulative []float64, r float64) int {
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] > r {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
