// Package qaoa builds parametric QAOA circuits from Ising cost
// Hamiltonians and wraps them into cost functions a classical
// optimizer can drive. The ansatz prepares the uniform superposition
// and alternates cost and mixing rotations; every angle is read from
// declared classical memory, so one compiled program serves the whole
// optimization with per-call memory maps.
package qaoa

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

// MixingRotation builds the mixing-Hamiltonian block of one timestep:
// RX(-2*beta) on every register qubit, angles read from the given
// classical region.
func MixingRotation(betas quil.Region, reg []quil.Qubit) (*quil.Program, error) {
	if betas.Size != len(reg) {
		return nil, errors.Wrapf(
			ErrShapeMismatch,
			"%s spans %d slots, register has %d qubits",
			betas.Name, betas.Size, len(reg),
		)
	}
	p := quil.NewProgram()
	for i, q := range reg {
		p.Inst(quil.RX(betas.At(i).Times(-2), q))
	}
	return p, nil
}

// CostRotation builds the cost-Hamiltonian block of one timestep. A
// pair term becomes RZ(2*gamma) on both qubits followed by
// CPHASE(-4*gamma) on the pair, and a single term becomes RZ(2*gamma)
// on its qubit; up to global phase these implement exp(-i*gamma*ZZ)
// and exp(-i*gamma*Z).
func CostRotation(
	gammasPairs quil.Region,
	pairs [][2]quil.Qubit,
	gammasSingles quil.Region,
	singles []quil.Qubit,
) (*quil.Program, error) {
	p := quil.NewProgram()
	if gammasPairs.Size != len(pairs) {
		return nil, errors.Wrapf(
			ErrShapeMismatch,
			"%s spans %d slots, hamiltonian has %d pair terms",
			gammasPairs.Name, gammasPairs.Size, len(pairs),
		)
	}
	for i, pair := range pairs {
		p.Inst(
			quil.RZ(gammasPairs.At(i).Times(2), pair[0]),
			quil.RZ(gammasPairs.At(i).Times(2), pair[1]),
			quil.CPHASE(gammasPairs.At(i).Times(-4), pair[0], pair[1]),
		)
	}
	if gammasSingles.Size != len(singles) {
		return nil, errors.Wrapf(
			ErrShapeMismatch,
			"%s spans %d slots, hamiltonian has %d single terms",
			gammasSingles.Name, gammasSingles.Size, len(singles),
		)
	}
	for i, q := range singles {
		p.Inst(quil.RZ(gammasSingles.At(i).Times(2), q))
	}
	return p, nil
}

// AnnealingProgram assembles the alternating cost/mixing layers of the
// QAOA circuit. All per-timestep registers are declared up front, then
// every timestep appends its cost block followed by its mixing block.
// The registers are named betas{t}, gammas_singles{t} and
// gammas_pairs{t}, matching what MemoryMap produces.
func AnnealingProgram(params Parameters) (*quil.Program, error) {
	reg := params.Reg()
	singles := params.QubitsSingles()
	pairs := params.QubitsPairs()
	timesteps := params.Timesteps()

	p := quil.NewProgram()
	betasRegions := make([]quil.Region, 0, timesteps)
	singlesRegions := make([]quil.Region, 0, timesteps)
	pairsRegions := make([]quil.Region, 0, timesteps)
	for t := 0; t < timesteps; t++ {
		betas, err := p.Declare(fmt.Sprintf("betas%d", t), quil.Real, len(reg))
		if err != nil {
			return nil, err
		}
		gammasSingles, err := p.Declare(fmt.Sprintf("gammas_singles%d", t), quil.Real, len(singles))
		if err != nil {
			return nil, err
		}
		gammasPairs, err := p.Declare(fmt.Sprintf("gammas_pairs%d", t), quil.Real, len(pairs))
		if err != nil {
			return nil, err
		}
		betasRegions = append(betasRegions, betas)
		singlesRegions = append(singlesRegions, gammasSingles)
		pairsRegions = append(pairsRegions, gammasPairs)
	}

	for t := 0; t < timesteps; t++ {
		cost, err := CostRotation(pairsRegions[t], pairs, singlesRegions[t], singles)
		if err != nil {
			return nil, err
		}
		if err := p.Append(cost); err != nil {
			return nil, err
		}
		mixing, err := MixingRotation(betasRegions[t], reg)
		if err != nil {
			return nil, err
		}
		if err := p.Append(mixing); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Ansatz builds the full QAOA state-preparation program: Hadamards
// bring the register to the uniform superposition, then the annealing
// layers follow.
func Ansatz(params Parameters) (*quil.Program, error) {
	annealing, err := AnnealingProgram(params)
	if err != nil {
		return nil, err
	}
	p := quil.NewProgram()
	for _, q := range params.Reg() {
		p.Inst(quil.H(q))
	}
	if err := p.Append(annealing); err != nil {
		return nil, err
	}
	return p, nil
}

// MemoryMap binds the current parameter values to the registers the
// annealing program declares. It reads params once and copies the
// angles out, so the returned map is a self-contained snapshot that
// later Updates cannot rewrite.
func MemoryMap(params Parameters) quil.MemoryMap {
	timesteps := params.Timesteps()
	m := make(quil.MemoryMap, 3*timesteps)
	for t := 0; t < timesteps; t++ {
		m[fmt.Sprintf("betas%d", t)] = slices.Clone(params.Betas(t))
		m[fmt.Sprintf("gammas_singles%d", t)] = slices.Clone(params.GammasSingles(t))
		m[fmt.Sprintf("gammas_pairs%d", t)] = slices.Clone(params.GammasPairs(t))
	}
	return m
}
