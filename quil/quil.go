// Package quil models parametric quantum programs in the style of the
// Quil instruction language: gate and measurement instructions over
// abstract qubits, together with named classical memory regions whose
// values are supplied at execution time through a memory map. Programs
// built here are consumed by the sim and qvm backends.
package quil

// Qubit identifies a single qubit. Identifiers are abstract labels and
// need not be contiguous; backends assign amplitude positions by sorted
// order at execution time.
type Qubit int
