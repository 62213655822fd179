package qaoa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/qaoa"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

func pairOnlyParams(t *testing.T) *qaoa.ExtendedParameters {
	t.Helper()
	params, err := qaoa.NewExtendedParameters(
		qaoa.Shape{
			Reg:         []quil.Qubit{0, 1},
			QubitsPairs: [][2]quil.Qubit{{0, 1}},
		},
		[][]float64{{0.1, 0.2}},
		[][]float64{{}},
		[][]float64{{0.3}},
	)
	require.NoError(t, err)
	return params
}

// Test the full ansatz for one pair term and one timestep: Hadamards,
// then the cost block, then the mixing block, with every angle read
// from the per-timestep registers.
func TestAnsatz_PairOnly(t *testing.T) {
	prog, err := qaoa.Ansatz(pairOnlyParams(t))
	require.NoError(t, err)

	require.Len(t, prog.Instructions(), 7)
	assert.Equal(
		t,
		"DECLARE betas0 REAL[2]\n"+
			"DECLARE gammas_singles0 REAL[0]\n"+
			"DECLARE gammas_pairs0 REAL[1]\n"+
			"H 0\n"+
			"H 1\n"+
			"RZ(2*gammas_pairs0[0]) 0\n"+
			"RZ(2*gammas_pairs0[0]) 1\n"+
			"CPHASE(-4*gammas_pairs0[0]) 0 1\n"+
			"RX(-2*betas0[0]) 0\n"+
			"RX(-2*betas0[1]) 1\n",
		prog.String(),
	)
}

// Test that every timestep declares its own registers up front and the
// layers alternate cost then mixing.
func TestAnnealingProgram_Layers(t *testing.T) {
	params, err := qaoa.NewExtendedParameters(
		ringShape(),
		[][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
		[][]float64{{1.1, 1.2}, {1.3, 1.4}},
		[][]float64{{2.1, 2.2}, {2.3, 2.4}},
	)
	require.NoError(t, err)

	prog, err := qaoa.AnnealingProgram(params)
	require.NoError(t, err)

	regions := prog.Regions()
	require.Len(t, regions, 6)
	assert.Equal(t, quil.Region{Name: "betas0", Type: quil.Real, Size: 3}, regions[0])
	assert.Equal(t, quil.Region{Name: "gammas_singles0", Type: quil.Real, Size: 2}, regions[1])
	assert.Equal(t, quil.Region{Name: "gammas_pairs0", Type: quil.Real, Size: 2}, regions[2])
	assert.Equal(t, quil.Region{Name: "betas1", Type: quil.Real, Size: 3}, regions[3])
	assert.Equal(t, quil.Region{Name: "gammas_singles1", Type: quil.Real, Size: 2}, regions[4])
	assert.Equal(t, quil.Region{Name: "gammas_pairs1", Type: quil.Real, Size: 2}, regions[5])

	instructions := prog.Instructions()
	require.Len(t, instructions, 22)

	assert.Equal(t, "RZ(2*gammas_pairs0[0]) 0", instructions[0].String())
	assert.Equal(t, "CPHASE(-4*gammas_pairs0[1]) 1 2", instructions[5].String())
	assert.Equal(t, "RZ(2*gammas_singles0[0]) 0", instructions[6].String())
	assert.Equal(t, "RZ(2*gammas_singles0[1]) 2", instructions[7].String())
	assert.Equal(t, "RX(-2*betas0[0]) 0", instructions[8].String())

	assert.Equal(t, "RZ(2*gammas_pairs1[0]) 0", instructions[11].String())
	assert.Equal(t, "RX(-2*betas1[2]) 2", instructions[21].String())
}

// Test that the block builders reject angle registers that do not
// match the qubit structure, reporting pair mismatches before single
// ones.
func TestRotationBlocks_ShapeErrors(t *testing.T) {
	empty := quil.Region{Name: "betas0", Type: quil.Real, Size: 0}
	one := quil.Region{Name: "betas0", Type: quil.Real, Size: 1}

	_, err := qaoa.MixingRotation(empty, []quil.Qubit{0})
	assert.ErrorIs(t, err, qaoa.ErrShapeMismatch)

	_, err = qaoa.MixingRotation(one, nil)
	assert.ErrorIs(t, err, qaoa.ErrShapeMismatch)

	pairsRegion := quil.Region{Name: "gammas_pairs0", Type: quil.Real, Size: 0}
	singlesRegion := quil.Region{Name: "gammas_singles0", Type: quil.Real, Size: 0}
	_, err = qaoa.CostRotation(pairsRegion, [][2]quil.Qubit{{0, 1}}, singlesRegion, []quil.Qubit{0})
	require.ErrorIs(t, err, qaoa.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "gammas_pairs0")

	okPairs := quil.Region{Name: "gammas_pairs0", Type: quil.Real, Size: 1}
	badSingles := quil.Region{Name: "gammas_singles0", Type: quil.Real, Size: 1}
	_, err = qaoa.CostRotation(okPairs, [][2]quil.Qubit{{0, 1}}, badSingles, nil)
	require.ErrorIs(t, err, qaoa.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "gammas_singles0")
}

// Test that the memory map is a self-contained snapshot keyed like the
// declared registers.
func TestMemoryMap_Snapshot(t *testing.T) {
	params := pairOnlyParams(t)

	memory := qaoa.MemoryMap(params)
	assert.Equal(t, memory, qaoa.MemoryMap(params), "rebuilding without an update is idempotent")
	require.Len(t, memory, 3)
	assert.Equal(t, []float64{0.1, 0.2}, memory["betas0"])
	assert.Equal(t, []float64{0.3}, memory["gammas_pairs0"])
	assert.Empty(t, memory["gammas_singles0"])

	_, err := params.Update([]float64{9, 9, 9})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 0.2}, memory["betas0"], "snapshot keeps the old angles")
	assert.Equal(t, []float64{9, 9}, qaoa.MemoryMap(params)["betas0"])
}
