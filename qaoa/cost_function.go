package qaoa

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/vqe"
)

// WavefunctionCostFunctionConfig configures a QAOA cost function
// backed by an exact wavefunction simulator.
type WavefunctionCostFunctionConfig struct {
	// Hamiltonian is the cost Hamiltonian whose expectation is
	// minimized.
	Hamiltonian pauli.Sum
	// Params is the parameter object the cost function takes ownership
	// of. Its shape fixes the ansatz at construction.
	Params    Parameters
	Simulator vqe.Simulator
	// ReturnDeviation reports the sampling deviation beside the energy.
	ReturnDeviation bool
	// Noisy perturbs the exact energy with gaussian noise of the
	// magnitude a shot-based estimate would show.
	Noisy bool
	// Seed for the noise source. Zero selects a time-derived seed.
	Seed int64
	// Tracer receives a record per successful evaluation. Optional.
	Tracer vqe.Tracer
	Logger *zap.Logger
}

// WavefunctionCostFunction evaluates a QAOA cost Hamiltonian exactly.
// It owns its Parameters: every Evaluate first writes the raw vector
// into them, then binds the resulting memory map against the ansatz
// fixed at construction.
type WavefunctionCostFunction struct {
	params Parameters
	engine *vqe.WavefunctionEngine[Parameters]
}

var _ vqe.CostFunction = (*WavefunctionCostFunction)(nil)

func NewWavefunctionCostFunction(
	cfg WavefunctionCostFunctionConfig,
) (*WavefunctionCostFunction, error) {
	if cfg.Params == nil {
		return nil, errors.Wrap(vqe.ErrIncompleteConfig, "new qaoa cost function")
	}
	ansatz, err := Ansatz(cfg.Params)
	if err != nil {
		return nil, errors.Wrap(err, "new qaoa cost function")
	}
	engine, err := vqe.NewWavefunctionEngine(vqe.WavefunctionEngineConfig[Parameters]{
		Program:         ansatz,
		MakeMemoryMap:   MemoryMap,
		Hamiltonian:     cfg.Hamiltonian,
		Simulator:       cfg.Simulator,
		ReturnDeviation: cfg.ReturnDeviation,
		Noisy:           cfg.Noisy,
		Seed:            cfg.Seed,
		Tracer:          cfg.Tracer,
		Logger:          cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &WavefunctionCostFunction{params: cfg.Params, engine: engine}, nil
}

// Evaluate binds values into the owned parameters and reports the
// exact energy. Shots parameterize only the deviation and noise model;
// values <= 0 select vqe.DefaultSimulationShots.
func (c *WavefunctionCostFunction) Evaluate(
	ctx context.Context,
	values []float64,
	shots int,
) (vqe.Result, error) {
	if _, err := c.params.Update(values); err != nil {
		return vqe.Result{}, err
	}
	return c.engine.Evaluate(ctx, c.params, shots)
}

// Wavefunction binds values into the owned parameters and returns the
// ansatz state amplitudes, for inspecting the optimized state.
func (c *WavefunctionCostFunction) Wavefunction(
	ctx context.Context,
	values []float64,
) ([]complex128, error) {
	if _, err := c.params.Update(values); err != nil {
		return nil, err
	}
	return c.engine.Wavefunction(ctx, c.params)
}

// Params exposes the owned parameter object. Mutating it between
// evaluations changes what the next Evaluate starts from.
func (c *WavefunctionCostFunction) Params() Parameters {
	return c.params
}

// Program returns a copy of the ansatz the cost function evaluates.
func (c *WavefunctionCostFunction) Program() *quil.Program {
	return c.engine.Program()
}

// SamplingCostFunctionConfig configures a QAOA cost function estimated
// from measured bitstrings.
type SamplingCostFunctionConfig struct {
	// Hamiltonian is the cost Hamiltonian whose expectation is
	// minimized. It must be diagonal in the computational basis.
	Hamiltonian pauli.Sum
	// Params is the parameter object the cost function takes ownership
	// of. Its shape fixes the ansatz at construction.
	Params  Parameters
	Backend vqe.ShotBackend
	// ReturnDeviation reports the standard error beside the energy.
	ReturnDeviation bool
	// BaseShots per batch. Values <= 0 select vqe.DefaultBaseShots.
	BaseShots int
	// Tracer receives a record per successful evaluation. Optional.
	Tracer vqe.Tracer
	Logger *zap.Logger
}

// SamplingCostFunction estimates a QAOA cost Hamiltonian from shots.
// It owns its Parameters the same way WavefunctionCostFunction does.
type SamplingCostFunction struct {
	params Parameters
	engine *vqe.SamplingEngine[Parameters]
}

var _ vqe.CostFunction = (*SamplingCostFunction)(nil)

func NewSamplingCostFunction(
	cfg SamplingCostFunctionConfig,
) (*SamplingCostFunction, error) {
	if cfg.Params == nil {
		return nil, errors.Wrap(vqe.ErrIncompleteConfig, "new qaoa cost function")
	}
	ansatz, err := Ansatz(cfg.Params)
	if err != nil {
		return nil, errors.Wrap(err, "new qaoa cost function")
	}
	engine, err := vqe.NewSamplingEngine(vqe.SamplingEngineConfig[Parameters]{
		Program:         ansatz,
		MakeMemoryMap:   MemoryMap,
		Hamiltonian:     cfg.Hamiltonian,
		Backend:         cfg.Backend,
		ReturnDeviation: cfg.ReturnDeviation,
		BaseShots:       cfg.BaseShots,
		Tracer:          cfg.Tracer,
		Logger:          cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &SamplingCostFunction{params: cfg.Params, engine: engine}, nil
}

// Evaluate binds values into the owned parameters and estimates the
// energy from multiplier batches of BaseShots samples each. Values
// <= 0 select vqe.DefaultShotMultiplier.
func (c *SamplingCostFunction) Evaluate(
	ctx context.Context,
	values []float64,
	multiplier int,
) (vqe.Result, error) {
	if _, err := c.params.Update(values); err != nil {
		return vqe.Result{}, err
	}
	return c.engine.Evaluate(ctx, c.params, multiplier)
}

// Params exposes the owned parameter object.
func (c *SamplingCostFunction) Params() Parameters {
	return c.params
}

// BaseShots is the per-batch shot count fixed at construction.
func (c *SamplingCostFunction) BaseShots() int {
	return c.engine.BaseShots()
}

// Program returns a copy of the measured ansatz the cost function
// samples.
func (c *SamplingCostFunction) Program() *quil.Program {
	return c.engine.Program()
}
