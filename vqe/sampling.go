package vqe

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

const samplingBackend = "sampling"

// SamplingEngineConfig configures a shot-based expectation engine over
// parameter type P.
type SamplingEngineConfig[P any] struct {
	// Program is the parametric circuit to sample. It must not declare
	// a region named ro; the engine appends the readout itself.
	Program *quil.Program
	// MakeMemoryMap renders the parameters into the memory map binding
	// the program's declared regions. It must be a pure function of
	// its argument.
	MakeMemoryMap func(P) quil.MemoryMap
	// Hamiltonian is the observable to estimate. It must be diagonal
	// in the computational basis.
	Hamiltonian pauli.Sum
	Backend     ShotBackend
	// ReturnDeviation reports the standard error beside the energy.
	ReturnDeviation bool
	// BaseShots per batch. Values <= 0 select DefaultBaseShots.
	BaseShots int
	// Tracer receives a record per successful evaluation. Optional.
	Tracer Tracer
	Logger *zap.Logger
}

// SamplingEngine estimates energies from measured bitstrings. At
// construction it clones the program and appends a measurement of
// every program qubit in sorted order into a fresh ro register.
// Instances serve one sequential evaluation stream.
type SamplingEngine[P any] struct {
	measured        *quil.Program
	makeMemoryMap   func(P) quil.MemoryMap
	hamiltonian     pauli.Sum
	backend         ShotBackend
	returnDeviation bool
	baseShots       int
	positions       map[quil.Qubit]int
	tracer          Tracer
	logger          *zap.Logger
}

func NewSamplingEngine[P any](cfg SamplingEngineConfig[P]) (*SamplingEngine[P], error) {
	if cfg.Program == nil || cfg.MakeMemoryMap == nil || cfg.Backend == nil {
		return nil, errors.Wrap(ErrIncompleteConfig, "new sampling engine")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if !cfg.Hamiltonian.IsDiagonal() {
		return nil, errors.Wrap(ErrNotDiagonal, cfg.Hamiltonian.String())
	}
	if err := hamiltonianOnProgram(cfg.Hamiltonian, cfg.Program); err != nil {
		return nil, errors.Wrap(err, "new sampling engine")
	}

	measured := cfg.Program.Clone()
	qubits := cfg.Program.Qubits()
	ro, err := measured.Declare("ro", quil.Bit, len(qubits))
	if err != nil {
		return nil, errors.Wrap(err, "new sampling engine")
	}
	positions := make(map[quil.Qubit]int, len(qubits))
	for i, q := range qubits {
		measured.Inst(quil.Measure(q, ro.At(i)))
		positions[q] = i
	}

	baseShots := cfg.BaseShots
	if baseShots <= 0 {
		baseShots = DefaultBaseShots
	}

	return &SamplingEngine[P]{
		measured:        measured,
		makeMemoryMap:   cfg.MakeMemoryMap,
		hamiltonian:     cfg.Hamiltonian,
		backend:         cfg.Backend,
		returnDeviation: cfg.ReturnDeviation,
		baseShots:       baseShots,
		positions:       positions,
		tracer:          cfg.Tracer,
		logger:          cfg.Logger,
	}, nil
}

// Evaluate estimates the energy for the given parameters. The
// multiplier is the number of BaseShots-sized batches to run; values
// <= 0 select DefaultShotMultiplier. Backend failures propagate to the
// caller and are never recorded.
func (e *SamplingEngine[P]) Evaluate(
	ctx context.Context,
	params P,
	multiplier int,
) (Result, error) {
	if multiplier <= 0 {
		multiplier = DefaultShotMultiplier
	}
	started := time.Now()

	memory := e.makeMemoryMap(params)
	var count int
	var sum, sumSquares float64
	for batch := 0; batch < multiplier; batch++ {
		if err := ctx.Err(); err != nil {
			return Result{}, errors.Wrap(err, "evaluate")
		}
		rows, err := e.backend.RunProgram(ctx, e.measured, memory, e.baseShots)
		if err != nil {
			return Result{}, errors.Wrap(err, "evaluate")
		}
		for _, row := range rows {
			if len(row) != len(e.positions) {
				return Result{}, errors.Wrapf(
					ErrMalformedReadout,
					"row width %d, measured qubits %d",
					len(row),
					len(e.positions),
				)
			}
			energy, err := pauli.DiagonalEnergy(e.hamiltonian, func(q quil.Qubit) uint8 {
				return row[e.positions[q]]
			})
			if err != nil {
				return Result{}, errors.Wrap(err, "evaluate")
			}
			sum += energy
			sumSquares += energy * energy
			count++
		}
	}
	if count == 0 {
		return Result{}, errors.Wrap(ErrNoSamples, "evaluate")
	}

	mean := sum / float64(count)
	result := Result{Value: mean}
	if e.returnDeviation {
		variance := math.Max(0, sumSquares/float64(count)-mean*mean)
		result.Deviation = math.Sqrt(variance / float64(count))
		result.HasDeviation = true
	}

	elapsed := time.Since(started)
	if e.tracer != nil {
		record := CallRecord{
			Backend: samplingBackend,
			Memory:  memory.Clone(),
			Shots:   count,
			Result:  result,
			Elapsed: elapsed,
			At:      started,
		}
		if err := e.tracer.Record(record); err != nil {
			return Result{}, errors.Wrap(err, "record evaluation")
		}
	}

	evaluationsTotal.WithLabelValues(samplingBackend).Inc()
	evaluationDuration.WithLabelValues(samplingBackend).Observe(elapsed.Seconds())
	shotsSampled.WithLabelValues(samplingBackend).Add(float64(count))
	lastEnergy.WithLabelValues(samplingBackend).Set(result.Value)
	e.logger.Debug(
		"evaluated cost function",
		zap.String("backend", samplingBackend),
		zap.Float64("energy", result.Value),
		zap.Int("shots", count),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// BaseShots reports the per-batch shot count the engine runs with.
func (e *SamplingEngine[P]) BaseShots() int {
	return e.baseShots
}

// Program returns a copy of the measured program the backend executes.
func (e *SamplingEngine[P]) Program() *quil.Program {
	return e.measured.Clone()
}
