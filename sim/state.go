// Package sim executes quil programs against a dense statevector and
// evaluates Pauli observables exactly.
package sim

import (
	"math"
	"math/bits"
	"math/cmplx"
	"slices"

	"github.com/pkg/errors"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

var (
	ErrUnsupportedGate       = errors.New("unsupported gate")
	ErrMalformedGate         = errors.New("malformed gate")
	ErrMidCircuitMeasurement = errors.New("measurement before the end of the program")
	ErrUnknownQubit          = errors.New("qubit not addressed by the program")
)

// State is the final wavefunction of an executed program. Amplitude
// indices follow the program's sorted qubit order: the qubit at sorted
// position k owns bit k of the index.
type State struct {
	amplitudes   []complex128
	qubits       []quil.Qubit
	positions    map[quil.Qubit]int
	measurements []quil.Measurement
}

// Run executes prog with memory bound to its declared regions and
// returns the final state. Gates are applied in program order.
// Measurements are legal only as a trailing suffix; they are recorded
// on the state for readout, not applied to it.
func Run(prog *quil.Program, memory quil.MemoryMap) (*State, error) {
	qubits := prog.Qubits()
	state := &State{
		amplitudes: make([]complex128, 1<<len(qubits)),
		qubits:     qubits,
		positions:  make(map[quil.Qubit]int, len(qubits)),
	}
	state.amplitudes[0] = 1
	for k, q := range qubits {
		state.positions[q] = k
	}

	for _, inst := range prog.Instructions() {
		switch in := inst.(type) {
		case quil.Gate:
			if len(state.measurements) > 0 {
				return nil, errors.Wrap(ErrMidCircuitMeasurement, in.String())
			}
			if err := state.apply(in, memory); err != nil {
				return nil, err
			}
		case quil.Measurement:
			state.measurements = append(state.measurements, in)
		default:
			return nil, errors.Wrapf(ErrUnsupportedGate, "%T", inst)
		}
	}
	return state, nil
}

// Amplitudes returns a copy of the state amplitudes.
func (s *State) Amplitudes() []complex128 {
	return slices.Clone(s.amplitudes)
}

// Qubits returns the executed program's qubits in sorted order.
func (s *State) Qubits() []quil.Qubit {
	return slices.Clone(s.qubits)
}

// Position reports the amplitude bit owned by q.
func (s *State) Position(q quil.Qubit) (int, bool) {
	position, ok := s.positions[q]
	return position, ok
}

// Measurements returns the trailing measurement suffix in program order.
func (s *State) Measurements() []quil.Measurement {
	return slices.Clone(s.measurements)
}

// Probabilities returns |amplitude|^2 per basis state.
func (s *State) Probabilities() []float64 {
	probs := make([]float64, len(s.amplitudes))
	for i, amp := range s.amplitudes {
		probs[i] = real(amp * cmplx.Conj(amp))
	}
	return probs
}

// Expectation returns <psi|observable|psi>. The observable is assumed
// Hermitian, so only the real part is reported.
func (s *State) Expectation(observable pauli.Sum) (float64, error) {
	var total complex128
	for _, term := range observable.Terms() {
		value, err := s.termExpectation(term)
		if err != nil {
			return 0, err
		}
		total += value
	}
	return real(total), nil
}

// termExpectation evaluates one Pauli product by pairing each basis
// state with its image under the term's X/Y flips.
func (s *State) termExpectation(term pauli.Term) (complex128, error) {
	var zmask, ymask, flipmask int
	for _, factor := range term.Factors() {
		position, ok := s.positions[factor.Qubit]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownQubit, "qubit %d in %s", factor.Qubit, term)
		}
		bit := 1 << position
		switch factor.Op {
		case pauli.Z:
			zmask |= bit
		case pauli.X:
			flipmask |= bit
		case pauli.Y:
			flipmask |= bit
			ymask |= bit
		}
	}

	var total complex128
	for i, amp := range s.amplitudes {
		if amp == 0 {
			continue
		}
		total += cmplx.Conj(s.amplitudes[i^flipmask]) * pauliPhase(i, zmask, ymask) * amp
	}
	return term.Coefficient() * total, nil
}

// pauliPhase is the phase a Pauli product places on basis state i: -1
// per set Z bit, +i per clear Y bit and -i per set Y bit.
func pauliPhase(i int, zmask int, ymask int) complex128 {
	phase := complex(1, 0)
	if bits.OnesCount(uint(i&zmask))%2 == 1 {
		phase = -phase
	}
	if ymask != 0 {
		set := bits.OnesCount(uint(i & ymask))
		phase *= ipower(bits.OnesCount(uint(ymask)) - 2*set)
	}
	return phase
}

func ipower(n int) complex128 {
	switch ((n % 4) + 4) % 4 {
	case 1:
		return 1i
	case 2:
		return -1
	case 3:
		return -1i
	default:
		return 1
	}
}

// gateArity maps each supported gate to its qubit and parameter counts.
var gateArity = map[string][2]int{
	"H": {1, 0}, "X": {1, 0}, "Y": {1, 0}, "Z": {1, 0},
	"RX": {1, 1}, "RY": {1, 1}, "RZ": {1, 1},
	"CNOT": {2, 0}, "CZ": {2, 0}, "CPHASE": {2, 1},
}

func (s *State) apply(g quil.Gate, memory quil.MemoryMap) error {
	angles := make([]float64, len(g.Params))
	for i, param := range g.Params {
		value, err := param.Bind(memory)
		if err != nil {
			return errors.Wrap(err, g.Name)
		}
		angles[i] = value
	}

	want, ok := gateArity[g.Name]
	if !ok {
		return errors.Wrap(ErrUnsupportedGate, g.Name)
	}
	if len(g.Qubits) != want[0] || len(angles) != want[1] {
		return errors.Wrap(ErrMalformedGate, g.String())
	}

	bit := func(i int) int { return 1 << s.positions[g.Qubits[i]] }
	switch g.Name {
	case "H":
		s.applyH(bit(0))
	case "X":
		s.applyX(bit(0))
	case "Y":
		s.applyY(bit(0))
	case "Z":
		s.applyZ(bit(0))
	case "RX":
		s.applyRX(bit(0), angles[0])
	case "RY":
		s.applyRY(bit(0), angles[0])
	case "RZ":
		s.applyRZ(bit(0), angles[0])
	case "CNOT":
		s.applyCNOT(bit(0), bit(1))
	case "CZ":
		s.applyCZ(bit(0), bit(1))
	case "CPHASE":
		s.applyCPHASE(bit(0), bit(1), angles[0])
	}
	return nil
}

func (s *State) applyH(bit int) {
	factor := complex(1/math.Sqrt2, 0)
	next := make([]complex128, len(s.amplitudes))
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			next[i] = factor * (s.amplitudes[i] + s.amplitudes[j])
			next[j] = factor * (s.amplitudes[i] - s.amplitudes[j])
		}
	}
	s.amplitudes = next
}

func (s *State) applyX(bit int) {
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

func (s *State) applyY(bit int) {
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.amplitudes[i], s.amplitudes[j] = -1i*s.amplitudes[j], 1i*s.amplitudes[i]
		}
	}
}

func (s *State) applyZ(bit int) {
	for i := range s.amplitudes {
		if i&bit != 0 {
			s.amplitudes[i] = -s.amplitudes[i]
		}
	}
}

func (s *State) applyRX(bit int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	next := make([]complex128, len(s.amplitudes))
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			next[i] = c*s.amplitudes[i] + js*s.amplitudes[j]
			next[j] = js*s.amplitudes[i] + c*s.amplitudes[j]
		}
	}
	s.amplitudes = next
}

func (s *State) applyRY(bit int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	next := make([]complex128, len(s.amplitudes))
	for i := range s.amplitudes {
		if i&bit == 0 {
			j := i | bit
			next[i] = c*s.amplitudes[i] - sn*s.amplitudes[j]
			next[j] = sn*s.amplitudes[i] + c*s.amplitudes[j]
		}
	}
	s.amplitudes = next
}

func (s *State) applyRZ(bit int, theta float64) {
	phase := cmplx.Exp(complex(0, theta/2))
	for i := range s.amplitudes {
		if i&bit != 0 {
			s.amplitudes[i] *= phase
		} else {
			s.amplitudes[i] *= cmplx.Conj(phase)
		}
	}
}

func (s *State) applyCNOT(control int, target int) {
	for i := range s.amplitudes {
		if i&control != 0 && i&target == 0 {
			j := i | target
			s.amplitudes[i], s.amplitudes[j] = s.amplitudes[j], s.amplitudes[i]
		}
	}
}

func (s *State) applyCZ(bit0 int, bit1 int) {
	for i := range s.amplitudes {
		if i&bit0 != 0 && i&bit1 != 0 {
			s.amplitudes[i] = -s.amplitudes[i]
		}
	}
}

func (s *State) applyCPHASE(bit0 int, bit1 int, theta float64) {
	phase := cmplx.Exp(complex(0, theta))
	for i := range s.amplitudes {
		if i&bit0 != 0 && i&bit1 != 0 {
			s.amplitudes[i] *= phase
		}
	}
}
