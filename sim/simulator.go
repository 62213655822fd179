package sim

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

// WavefunctionSimulator is an exact statevector backend. It is
// stateless between calls and safe for concurrent use.
type WavefunctionSimulator struct {
	logger *zap.Logger
}

func NewWavefunctionSimulator(logger *zap.Logger) *WavefunctionSimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WavefunctionSimulator{logger: logger}
}

// Wavefunction executes prog with memory bound and returns the final
// amplitudes in sorted-qubit bit order. A trailing measurement suffix
// is ignored.
func (w *WavefunctionSimulator) Wavefunction(
	ctx context.Context,
	prog *quil.Program,
	memory quil.MemoryMap,
) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "wavefunction")
	}
	state, err := Run(prog, memory)
	if err != nil {
		return nil, errors.Wrap(err, "wavefunction")
	}
	return state.Amplitudes(), nil
}

// Expectation executes prog once and evaluates every observable
// against the final state.
func (w *WavefunctionSimulator) Expectation(
	ctx context.Context,
	prog *quil.Program,
	memory quil.MemoryMap,
	observables []pauli.Sum,
) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "expectation")
	}
	started := time.Now()
	state, err := Run(prog, memory)
	if err != nil {
		return nil, errors.Wrap(err, "expectation")
	}
	values := make([]float64, len(observables))
	for i, observable := range observables {
		value, err := state.Expectation(observable)
		if err != nil {
			return nil, errors.Wrap(err, "expectation")
		}
		values[i] = value
	}
	w.logger.Debug(
		"evaluated expectation values",
		zap.Int("qubits", len(state.qubits)),
		zap.Int("observables", len(observables)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return values, nil
}
