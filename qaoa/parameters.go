package qaoa

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

var (
	ErrShapeMismatch      = errors.New("parameter shape mismatch")
	ErrInvalidHamiltonian = errors.New("hamiltonian is not an Ising cost hamiltonian")
)

// Shape is the qubit structure a parameter set must match: the full
// register the mixing Hamiltonian acts on, the qubits carrying
// single-qubit cost terms and the qubit pairs carrying two-qubit cost
// terms.
type Shape struct {
	Reg           []quil.Qubit
	QubitsSingles []quil.Qubit
	QubitsPairs   [][2]quil.Qubit
}

// ExtractShape derives the shape from an Ising cost Hamiltonian:
// one-qubit Z terms become singles, two-qubit ZZ terms become pairs
// and identity terms contribute only an energy offset. Anything else
// is rejected.
func ExtractShape(hamiltonian pauli.Sum) (Shape, error) {
	shape := Shape{Reg: hamiltonian.Qubits()}
	for _, term := range hamiltonian.Terms() {
		factors := term.Factors()
		for _, factor := range factors {
			if factor.Op != pauli.Z {
				return Shape{}, errors.Wrap(ErrInvalidHamiltonian, term.String())
			}
		}
		switch len(factors) {
		case 0:
		case 1:
			shape.QubitsSingles = append(shape.QubitsSingles, factors[0].Qubit)
		case 2:
			shape.QubitsPairs = append(
				shape.QubitsPairs,
				[2]quil.Qubit{factors[0].Qubit, factors[1].Qubit},
			)
		default:
			return Shape{}, errors.Wrap(ErrInvalidHamiltonian, term.String())
		}
	}
	return shape, nil
}

// Parameters is the QAOA parameter model consumed by the circuit
// builders and cost functions: per-timestep mixing angles (betas) and
// cost angles for single and pair terms, backed by one flat vector.
type Parameters interface {
	// Reg is the qubit register the mixing Hamiltonian acts on.
	Reg() []quil.Qubit
	// QubitsSingles lists the qubits carrying single-qubit cost terms.
	QubitsSingles() []quil.Qubit
	// QubitsPairs lists the qubit pairs carrying two-qubit cost terms.
	QubitsPairs() [][2]quil.Qubit
	// Timesteps is the number of alternating cost/mixing layers.
	Timesteps() int
	// Betas returns the mixing angles of timestep t, one per register
	// qubit.
	Betas(t int) []float64
	// GammasSingles returns the single-term cost angles of timestep t.
	GammasSingles(t int) []float64
	// GammasPairs returns the pair-term cost angles of timestep t.
	GammasPairs(t int) []float64
	// Update replaces the flat parameter vector in place and returns
	// the previous vector, so callers can roll back a rejected step.
	Update(values []float64) ([]float64, error)
	// Raw returns a copy of the current flat vector.
	Raw() []float64
	// Len is the flat vector length.
	Len() int
}

// ExtendedParameters carries an individual angle for every register
// qubit and every cost term at every timestep. The flat layout is all
// betas, then all single gammas, then all pair gammas, each block
// timestep-major.
type ExtendedParameters struct {
	shape     Shape
	timesteps int
	flat      []float64
}

var _ Parameters = (*ExtendedParameters)(nil)

// NewExtendedParameters validates one angle row per timestep for each
// block and packs them into the flat layout.
func NewExtendedParameters(
	shape Shape,
	betas [][]float64,
	gammasSingles [][]float64,
	gammasPairs [][]float64,
) (*ExtendedParameters, error) {
	timesteps := len(betas)
	if len(gammasSingles) != timesteps || len(gammasPairs) != timesteps {
		return nil, errors.Wrapf(
			ErrShapeMismatch,
			"timestep rows: betas %d, gammas_singles %d, gammas_pairs %d",
			timesteps, len(gammasSingles), len(gammasPairs),
		)
	}
	for t := 0; t < timesteps; t++ {
		if len(betas[t]) != len(shape.Reg) {
			return nil, errors.Wrapf(
				ErrShapeMismatch,
				"betas[%d] has %d angles for %d register qubits",
				t, len(betas[t]), len(shape.Reg),
			)
		}
		if len(gammasSingles[t]) != len(shape.QubitsSingles) {
			return nil, errors.Wrapf(
				ErrShapeMismatch,
				"gammas_singles[%d] has %d angles for %d single terms",
				t, len(gammasSingles[t]), len(shape.QubitsSingles),
			)
		}
		if len(gammasPairs[t]) != len(shape.QubitsPairs) {
			return nil, errors.Wrapf(
				ErrShapeMismatch,
				"gammas_pairs[%d] has %d angles for %d pair terms",
				t, len(gammasPairs[t]), len(shape.QubitsPairs),
			)
		}
	}

	flat := make([]float64, 0, timesteps*(len(shape.Reg)+len(shape.QubitsSingles)+len(shape.QubitsPairs)))
	for t := 0; t < timesteps; t++ {
		flat = append(flat, betas[t]...)
	}
	for t := 0; t < timesteps; t++ {
		flat = append(flat, gammasSingles[t]...)
	}
	for t := 0; t < timesteps; t++ {
		flat = append(flat, gammasPairs[t]...)
	}
	return &ExtendedParameters{shape: shape, timesteps: timesteps, flat: flat}, nil
}

// NewExtendedParametersFromFlat packs an already-flat vector, as
// produced by Raw or an optimizer step.
func NewExtendedParametersFromFlat(
	shape Shape,
	timesteps int,
	values []float64,
) (*ExtendedParameters, error) {
	want := timesteps * (len(shape.Reg) + len(shape.QubitsSingles) + len(shape.QubitsPairs))
	if len(values) != want {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d values, want %d", len(values), want)
	}
	return &ExtendedParameters{
		shape:     shape,
		timesteps: timesteps,
		flat:      slices.Clone(values),
	}, nil
}

func (p *ExtendedParameters) Reg() []quil.Qubit {
	return p.shape.Reg
}

func (p *ExtendedParameters) QubitsSingles() []quil.Qubit {
	return p.shape.QubitsSingles
}

func (p *ExtendedParameters) QubitsPairs() [][2]quil.Qubit {
	return p.shape.QubitsPairs
}

func (p *ExtendedParameters) Timesteps() int {
	return p.timesteps
}

// Betas returns a view into the parameter storage, so the slice
// reflects later Updates.
func (p *ExtendedParameters) Betas(t int) []float64 {
	n := len(p.shape.Reg)
	start := t * n
	return p.flat[start : start+n : start+n]
}

// GammasSingles returns a view into the parameter storage.
func (p *ExtendedParameters) GammasSingles(t int) []float64 {
	s := len(p.shape.QubitsSingles)
	start := p.timesteps*len(p.shape.Reg) + t*s
	return p.flat[start : start+s : start+s]
}

// GammasPairs returns a view into the parameter storage.
func (p *ExtendedParameters) GammasPairs(t int) []float64 {
	pr := len(p.shape.QubitsPairs)
	start := p.timesteps*(len(p.shape.Reg)+len(p.shape.QubitsSingles)) + t*pr
	return p.flat[start : start+pr : start+pr]
}

func (p *ExtendedParameters) Update(values []float64) ([]float64, error) {
	if len(values) != len(p.flat) {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d values, want %d", len(values), len(p.flat))
	}
	previous := slices.Clone(p.flat)
	copy(p.flat, values)
	return previous, nil
}

func (p *ExtendedParameters) Raw() []float64 {
	return slices.Clone(p.flat)
}

func (p *ExtendedParameters) Len() int {
	return len(p.flat)
}

// StandardParameters is the textbook QAOA schedule: a single beta and
// a single gamma per timestep, broadcast across the register and all
// cost terms. The flat layout is all betas, then all gammas.
type StandardParameters struct {
	shape     Shape
	timesteps int
	flat      []float64
}

var _ Parameters = (*StandardParameters)(nil)

func NewStandardParameters(shape Shape, betas []float64, gammas []float64) (*StandardParameters, error) {
	if len(betas) != len(gammas) {
		return nil, errors.Wrapf(
			ErrShapeMismatch,
			"betas %d, gammas %d",
			len(betas), len(gammas),
		)
	}
	flat := make([]float64, 0, 2*len(betas))
	flat = append(flat, betas...)
	flat = append(flat, gammas...)
	return &StandardParameters{shape: shape, timesteps: len(betas), flat: flat}, nil
}

// NewLinearRamp builds standard parameters on a linear annealing
// schedule of the given total time: betas fall and gammas rise
// linearly over the timesteps, evaluated at the midpoint of each.
func NewLinearRamp(shape Shape, timesteps int, totalTime float64) (*StandardParameters, error) {
	if timesteps <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "timesteps %d", timesteps)
	}
	dt := totalTime / float64(timesteps)
	betas := make([]float64, timesteps)
	gammas := make([]float64, timesteps)
	for t := 0; t < timesteps; t++ {
		fraction := (float64(t) + 0.5) / float64(timesteps)
		betas[t] = dt * (1 - fraction)
		gammas[t] = dt * fraction
	}
	return NewStandardParameters(shape, betas, gammas)
}

func (p *StandardParameters) Reg() []quil.Qubit {
	return p.shape.Reg
}

func (p *StandardParameters) QubitsSingles() []quil.Qubit {
	return p.shape.QubitsSingles
}

func (p *StandardParameters) QubitsPairs() [][2]quil.Qubit {
	return p.shape.QubitsPairs
}

func (p *StandardParameters) Timesteps() int {
	return p.timesteps
}

// Betas broadcasts the timestep's single beta across the register.
func (p *StandardParameters) Betas(t int) []float64 {
	betas := make([]float64, len(p.shape.Reg))
	for i := range betas {
		betas[i] = p.flat[t]
	}
	return betas
}

// GammasSingles broadcasts the timestep's single gamma across the
// single-qubit terms.
func (p *StandardParameters) GammasSingles(t int) []float64 {
	gammas := make([]float64, len(p.shape.QubitsSingles))
	for i := range gammas {
		gammas[i] = p.flat[p.timesteps+t]
	}
	return gammas
}

// GammasPairs broadcasts the timestep's single gamma across the pair
// terms.
func (p *StandardParameters) GammasPairs(t int) []float64 {
	gammas := make([]float64, len(p.shape.QubitsPairs))
	for i := range gammas {
		gammas[i] = p.flat[p.timesteps+t]
	}
	return gammas
}

func (p *StandardParameters) Update(values []float64) ([]float64, error) {
	if len(values) != len(p.flat) {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d values, want %d", len(values), len(p.flat))
	}
	previous := slices.Clone(p.flat)
	copy(p.flat, values)
	return previous, nil
}

func (p *StandardParameters) Raw() []float64 {
	return slices.Clone(p.flat)
}

func (p *StandardParameters) Len() int {
	return len(p.flat)
}
