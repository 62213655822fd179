// Package vqe provides the expectation-value engines behind
// variational quantum cost functions: an exact wavefunction engine
// with an optional sampling-noise model, and a shot-based sampling
// engine for diagonal Hamiltonians. Both are generic over the
// parameter object they are evaluated with.
package vqe

import (
	"context"

	"github.com/pkg/errors"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

const (
	// DefaultSimulationShots is assumed by the wavefunction deviation
	// and noise model when the caller passes no shot count.
	DefaultSimulationShots = 1000
	// DefaultBaseShots is the per-batch shot count of the sampling
	// engine.
	DefaultBaseShots = 100
	// DefaultShotMultiplier is the number of batches the sampling
	// engine runs per evaluation.
	DefaultShotMultiplier = 10
)

var (
	ErrIncompleteConfig = errors.New("incomplete engine configuration")
	ErrUnknownQubit     = errors.New("hamiltonian acts on a qubit outside the program")
	ErrNotDiagonal      = errors.New("sampling requires a diagonal hamiltonian")
	ErrMalformedReadout = errors.New("readout row does not match the measured qubits")
	ErrNoSamples        = errors.New("backend returned no samples")
)

// Simulator is an exact wavefunction backend.
type Simulator interface {
	Wavefunction(
		ctx context.Context,
		prog *quil.Program,
		memory quil.MemoryMap,
	) ([]complex128, error)
	Expectation(
		ctx context.Context,
		prog *quil.Program,
		memory quil.MemoryMap,
		observables []pauli.Sum,
	) ([]float64, error)
}

// ShotBackend executes measured programs and returns one readout row
// per shot.
type ShotBackend interface {
	RunProgram(
		ctx context.Context,
		prog *quil.Program,
		memory quil.MemoryMap,
		shots int,
	) ([][]uint8, error)
}

// Result is one evaluated energy. Deviation is populated exactly when
// the engine was configured to report it.
type Result struct {
	Value        float64 `json:"value"`
	Deviation    float64 `json:"deviation"`
	HasDeviation bool    `json:"has_deviation"`
}

// CostFunction is the call protocol shared by parametric evaluators:
// bind a flat parameter vector, evaluate, report the energy. The shots
// argument is interpreted by the implementation; values <= 0 select
// its documented default.
type CostFunction interface {
	Evaluate(ctx context.Context, values []float64, shots int) (Result, error)
}

// Objective adapts a CostFunction to the plain objective signature
// classical optimizers consume.
func Objective(ctx context.Context, fn CostFunction, shots int) func([]float64) (float64, error) {
	return func(values []float64) (float64, error) {
		result, err := fn.Evaluate(ctx, values, shots)
		if err != nil {
			return 0, err
		}
		return result.Value, nil
	}
}

// hamiltonianOnProgram checks that every qubit the hamiltonian acts on
// is addressed by the program.
func hamiltonianOnProgram(hamiltonian pauli.Sum, prog *quil.Program) error {
	addressed := map[quil.Qubit]struct{}{}
	for _, q := range prog.Qubits() {
		addressed[q] = struct{}{}
	}
	for _, q := range hamiltonian.Qubits() {
		if _, ok := addressed[q]; !ok {
			return errors.Wrapf(ErrUnknownQubit, "qubit %d", q)
		}
	}
	return nil
}
