// Package mocks provides testify mocks for the vqe backend and tracer
// interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/pauli"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
	"github.com/NunoEdgarGFlowHub/entropica-qaoa/vqe"
)

type MockSimulator struct {
	mock.Mock
}

func (m *MockSimulator) Wavefunction(
	ctx context.Context,
	prog *quil.Program,
	memory quil.MemoryMap,
) ([]complex128, error) {
	args := m.Called(ctx, prog, memory)
	if amps, ok := args.Get(0).([]complex128); ok {
		return amps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSimulator) Expectation(
	ctx context.Context,
	prog *quil.Program,
	memory quil.MemoryMap,
	observables []pauli.Sum,
) ([]float64, error) {
	args := m.Called(ctx, prog, memory, observables)
	if values, ok := args.Get(0).([]float64); ok {
		return values, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockShotBackend struct {
	mock.Mock
}

func (m *MockShotBackend) RunProgram(
	ctx context.Context,
	prog *quil.Program,
	memory quil.MemoryMap,
	shots int,
) ([][]uint8, error) {
	args := m.Called(ctx, prog, memory, shots)
	if rows, ok := args.Get(0).([][]uint8); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTracer struct {
	mock.Mock
}

func (m *MockTracer) Record(record vqe.CallRecord) error {
	args := m.Called(record)
	return args.Error(0)
}
