package vqe

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

const wavefunctionBackend = "wavefunction"

// WavefunctionEngineConfig configures an exact expectation engine over
// parameter type P.
type WavefunctionEngineConfig[P any] struct {
	// Program is the parametric circuit to evaluate.
	Program *quil.Program
	// MakeMemoryMap renders the parameters into the memory map binding
	// the program's declared regions. It must be a pure function of
	// its argument.
	MakeMemoryMap func(P) quil.MemoryMap
	// Hamiltonian is the observable whose expectation is reported.
	Hamiltonian pauli.Sum
	Simulator   Simulator
	// ReturnDeviation reports the sampling deviation beside the energy.
	ReturnDeviation bool
	// Noisy perturbs the exact energy with gaussian noise of the
	// magnitude a shot-based estimate would show.
	Noisy bool
	// Seed for the noise source. Zero selects a time-derived seed.
	Seed int64
	// Tracer receives a record per successful evaluation. Optional.
	Tracer Tracer
	Logger *zap.Logger
}

// WavefunctionEngine evaluates exact expectation values of a
// parametric program. Instances serve one sequential evaluation
// stream.
type WavefunctionEngine[P any] struct {
	prog            *quil.Program
	makeMemoryMap   func(P) quil.MemoryMap
	observables     []pauli.Sum
	simulator       Simulator
	returnDeviation bool
	noisy           bool
	tracer          Tracer
	rng             *rand.Rand
	logger          *zap.Logger
}

// NewWavefunctionEngine validates the configuration and precomputes
// the observables: the Hamiltonian alone for plain evaluations, plus
// its square when a deviation or noise model is requested.
func NewWavefunctionEngine[P any](
	cfg WavefunctionEngineConfig[P],
) (*WavefunctionEngine[P], error) {
	if cfg.Program == nil || cfg.MakeMemoryMap == nil || cfg.Simulator == nil {
		return nil, errors.Wrap(ErrIncompleteConfig, "new wavefunction engine")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := hamiltonianOnProgram(cfg.Hamiltonian, cfg.Program); err != nil {
		return nil, errors.Wrap(err, "new wavefunction engine")
	}

	observables := []pauli.Sum{cfg.Hamiltonian}
	if cfg.ReturnDeviation || cfg.Noisy {
		observables = append(observables, cfg.Hamiltonian.Squared())
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &WavefunctionEngine[P]{
		prog:            cfg.Program,
		makeMemoryMap:   cfg.MakeMemoryMap,
		observables:     observables,
		simulator:       cfg.Simulator,
		returnDeviation: cfg.ReturnDeviation,
		noisy:           cfg.Noisy,
		tracer:          cfg.Tracer,
		rng:             rand.New(rand.NewSource(seed)),
		logger:          cfg.Logger,
	}, nil
}

// Evaluate computes the energy for the given parameters. The shot
// count parameterizes only the deviation and noise model; values <= 0
// select DefaultSimulationShots. Backend failures propagate to the
// caller and are never recorded.
func (e *WavefunctionEngine[P]) Evaluate(
	ctx context.Context,
	params P,
	shots int,
) (Result, error) {
	if shots <= 0 {
		shots = DefaultSimulationShots
	}
	started := time.Now()

	memory := e.makeMemoryMap(params)
	values, err := e.simulator.Expectation(ctx, e.prog, memory, e.observables)
	if err != nil {
		return Result{}, errors.Wrap(err, "evaluate")
	}

	result := Result{Value: values[0]}
	if len(values) > 1 {
		variance := math.Max(0, values[1]-values[0]*values[0])
		deviation := math.Sqrt(variance / float64(shots))
		if e.noisy {
			result.Value += e.rng.NormFloat64() * deviation
		}
		if e.returnDeviation {
			result.Deviation = deviation
			result.HasDeviation = true
		}
	}

	elapsed := time.Since(started)
	if e.tracer != nil {
		record := CallRecord{
			Backend: wavefunctionBackend,
			Memory:  memory.Clone(),
			Shots:   shots,
			Result:  result,
			Elapsed: elapsed,
			At:      started,
		}
		if err := e.tracer.Record(record); err != nil {
			return Result{}, errors.Wrap(err, "record evaluation")
		}
	}

	evaluationsTotal.WithLabelValues(wavefunctionBackend).Inc()
	evaluationDuration.WithLabelValues(wavefunctionBackend).Observe(elapsed.Seconds())
	lastEnergy.WithLabelValues(wavefunctionBackend).Set(result.Value)
	e.logger.Debug(
		"evaluated cost function",
		zap.String("backend", wavefunctionBackend),
		zap.Float64("energy", result.Value),
		zap.Int("shots", shots),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// Wavefunction returns the final amplitudes the program prepares for
// the given parameters.
func (e *WavefunctionEngine[P]) Wavefunction(ctx context.Context, params P) ([]complex128, error) {
	amps, err := e.simulator.Wavefunction(ctx, e.prog, e.makeMemoryMap(params))
	return amps, errors.Wrap(err, "wavefunction")
}

// Program returns a copy of the evaluated program.
func (e *WavefunctionEngine[P]) Program() *quil.Program {
	return e.prog.Clone()
}
