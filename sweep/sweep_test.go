package sweep_test

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/config"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/qaoa"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/sim"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/sweep"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/vqe"
)

type stubCost struct {
	failOn float64
}

func (s *stubCost) Evaluate(
	ctx context.Context,
	values []float64,
	_ int,
) (vqe.Result, error) {
	if err := ctx.Err(); err != nil {
		return vqe.Result{}, err
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if s.failOn != 0 && sum == s.failOn {
		return vqe.Result{}, errors.New("bad point")
	}
	return vqe.Result{Value: sum}, nil
}

func costFactory() sweep.Factory {
	return func() (vqe.CostFunction, error) {
		hamiltonian := pauli.NewSum(pauli.NewZ(0, 1))
		shape, err := qaoa.ExtractShape(hamiltonian)
		if err != nil {
			return nil, err
		}
		params, err := qaoa.NewStandardParameters(shape, []float64{0}, []float64{0})
		if err != nil {
			return nil, err
		}
		return qaoa.NewWavefunctionCostFunction(qaoa.WavefunctionCostFunctionConfig{
			Hamiltonian: hamiltonian,
			Params:      params,
			Simulator:   sim.NewWavefunctionSimulator(nil),
		})
	}
}

// Test evenly spaced grid axes.
func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, sweep.Linspace(0, 1, 5))
	assert.Equal(t, []float64{2}, sweep.Linspace(2, 9, 1))
	assert.Nil(t, sweep.Linspace(0, 1, 0))
}

// Test the cross product with the last axis varying fastest.
func TestCartesian(t *testing.T) {
	points := sweep.Cartesian([]float64{1, 2}, []float64{10, 20, 30})
	assert.Equal(t, [][]float64{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}, points)

	assert.Nil(t, sweep.Cartesian())
	assert.Nil(t, sweep.Cartesian([]float64{1}, nil))
}

// Test a parallel landscape against the closed-form single-qubit
// energy, results aligned with the input points.
func TestSweeper_Landscape(t *testing.T) {
	points := sweep.Cartesian(
		sweep.Linspace(0, math.Pi/2, 4),
		sweep.Linspace(0, math.Pi/2, 4),
	)
	require.Len(t, points, 16)

	s := sweep.New(nil, config.SweepConfig{Parallelism: 4})
	results, err := s.Landscape(context.Background(), costFactory(), points, 0)
	require.NoError(t, err)
	require.Len(t, results, 16)

	for i, point := range points {
		want := -math.Sin(2*point[0]) * math.Sin(2*point[1])
		assert.InDelta(t, want, results[i].Value, 1e-12, "point %d", i)
	}
}

// Test that every worker builds its own cost function instance.
func TestSweeper_OneInstancePerWorker(t *testing.T) {
	var instances atomic.Int64
	factory := func() (vqe.CostFunction, error) {
		instances.Add(1)
		return &stubCost{}, nil
	}

	s := sweep.New(nil, config.SweepConfig{Parallelism: 3})
	results, err := s.Landscape(context.Background(), factory, make([][]float64, 8), 0)
	require.NoError(t, err)
	assert.Len(t, results, 8)
	assert.Equal(t, int64(3), instances.Load())
}

// Test that an evaluation error aborts the sweep.
func TestSweeper_ErrorCancels(t *testing.T) {
	factory := func() (vqe.CostFunction, error) {
		return &stubCost{failOn: 3}, nil
	}
	points := [][]float64{{1}, {2}, {3}, {4}}

	s := sweep.New(nil, config.SweepConfig{Parallelism: 2})
	_, err := s.Landscape(context.Background(), factory, points, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad point")
}

// Test that a factory error aborts the sweep.
func TestSweeper_FactoryError(t *testing.T) {
	factory := func() (vqe.CostFunction, error) {
		return nil, errors.New("no backend")
	}

	s := sweep.New(nil, config.SweepConfig{Parallelism: 2})
	_, err := s.Landscape(context.Background(), factory, [][]float64{{1}}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend")
}

// Test that an empty grid returns immediately without building any
// cost function.
func TestSweeper_EmptyPoints(t *testing.T) {
	var instances atomic.Int64
	factory := func() (vqe.CostFunction, error) {
		instances.Add(1)
		return &stubCost{}, nil
	}

	s := sweep.New(nil, config.SweepConfig{})
	results, err := s.Landscape(context.Background(), factory, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, instances.Load())
}

// Test that cancelling the context aborts the sweep.
func TestSweeper_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	factory := func() (vqe.CostFunction, error) {
		return &stubCost{}, nil
	}
	s := sweep.New(nil, config.SweepConfig{Parallelism: 2})
	_, err := s.Landscape(ctx, factory, [][]float64{{1}, {2}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
