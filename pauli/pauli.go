// Package pauli represents observables as weighted sums of Pauli
// operator products, with just enough algebra to support expectation
// values, variances and measurement-based energy estimates.
package pauli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

var ErrNotDiagonal = errors.New("operator is not diagonal in the computational basis")

// Operator is a single-qubit Pauli operator.
type Operator byte

const (
	I Operator = iota
	X
	Y
	Z
)

func (o Operator) String() string {
	switch o {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	default:
		return "I"
	}
}

// mul returns the product o*other as a phase and a Pauli operator,
// following XY = iZ, YZ = iX, ZX = iY and their reverses.
func (o Operator) mul(other Operator) (complex128, Operator) {
	if o == I {
		return 1, other
	}
	if other == I {
		return 1, o
	}
	if o == other {
		return 1, I
	}
	switch [2]Operator{o, other} {
	case [2]Operator{X, Y}:
		return 1i, Z
	case [2]Operator{Y, Z}:
		return 1i, X
	case [2]Operator{Z, X}:
		return 1i, Y
	case [2]Operator{Y, X}:
		return -1i, Z
	case [2]Operator{Z, Y}:
		return -1i, X
	default: // X, Z
		return -1i, Y
	}
}

// Factor is one qubit's operator within a term.
type Factor struct {
	Qubit quil.Qubit
	Op    Operator
}

// Term is a coefficient times a product of single-qubit Pauli operators
// acting on distinct qubits. Identity factors are normalized away, so
// the empty product is the identity term.
type Term struct {
	coefficient complex128
	factors     map[quil.Qubit]Operator
}

// NewTerm builds a term from a coefficient and explicit factors.
func NewTerm(coefficient complex128, factors map[quil.Qubit]Operator) Term {
	term := Term{coefficient: coefficient, factors: map[quil.Qubit]Operator{}}
	for q, op := range factors {
		if op != I {
			term.factors[q] = op
		}
	}
	return term
}

// Identity returns coefficient times the identity operator.
func Identity(coefficient float64) Term {
	return Term{coefficient: complex(coefficient, 0), factors: map[quil.Qubit]Operator{}}
}

func newSingle(op Operator, q quil.Qubit, coefficient float64) Term {
	return Term{
		coefficient: complex(coefficient, 0),
		factors:     map[quil.Qubit]Operator{q: op},
	}
}

func NewX(q quil.Qubit, coefficient float64) Term {
	return newSingle(X, q, coefficient)
}

func NewY(q quil.Qubit, coefficient float64) Term {
	return newSingle(Y, q, coefficient)
}

func NewZ(q quil.Qubit, coefficient float64) Term {
	return newSingle(Z, q, coefficient)
}

// NewZZ returns coefficient times Z on both qubits, the two-body
// interaction of Ising cost Hamiltonians.
func NewZZ(q0 quil.Qubit, q1 quil.Qubit, coefficient float64) Term {
	return Term{
		coefficient: complex(coefficient, 0),
		factors:     map[quil.Qubit]Operator{q0: Z, q1: Z},
	}
}

func (t Term) Coefficient() complex128 {
	return t.coefficient
}

// Operator returns the factor acting on q, or I when the term does not
// touch q.
func (t Term) Operator(q quil.Qubit) Operator {
	if op, ok := t.factors[q]; ok {
		return op
	}
	return I
}

// Factors returns the non-identity factors sorted by qubit.
func (t Term) Factors() []Factor {
	factors := make([]Factor, 0, len(t.factors))
	for q, op := range t.factors {
		factors = append(factors, Factor{Qubit: q, Op: op})
	}
	slices.SortFunc(factors, func(a, b Factor) int {
		return int(a.Qubit - b.Qubit)
	})
	return factors
}

// Qubits returns the qubits the term acts on, sorted.
func (t Term) Qubits() []quil.Qubit {
	qubits := make([]quil.Qubit, 0, len(t.factors))
	for q := range t.factors {
		qubits = append(qubits, q)
	}
	slices.Sort(qubits)
	return qubits
}

// IsIdentity reports whether the term has no non-identity factors.
func (t Term) IsIdentity() bool {
	return len(t.factors) == 0
}

// IsDiagonal reports whether every factor is Z, i.e. the term is
// diagonal in the computational basis.
func (t Term) IsDiagonal() bool {
	for _, op := range t.factors {
		if op != Z {
			return false
		}
	}
	return true
}

// Mul returns the operator product t*other with Pauli phases folded
// into the coefficient.
func (t Term) Mul(other Term) Term {
	product := Term{
		coefficient: t.coefficient * other.coefficient,
		factors:     maps.Clone(t.factors),
	}
	if product.factors == nil {
		product.factors = map[quil.Qubit]Operator{}
	}
	for q, op := range other.factors {
		phase, combined := product.Operator(q).mul(op)
		product.coefficient *= phase
		if combined == I {
			delete(product.factors, q)
		} else {
			product.factors[q] = combined
		}
	}
	return product
}

// Scale returns the term with its coefficient multiplied by c.
func (t Term) Scale(c complex128) Term {
	return Term{coefficient: t.coefficient * c, factors: maps.Clone(t.factors)}
}

// key is the canonical factor signature used to combine like terms.
func (t Term) key() string {
	factors := t.Factors()
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprintf("%s%d", f.Op, f.Qubit)
	}
	return strings.Join(parts, "*")
}

func (t Term) String() string {
	key := t.key()
	if key == "" {
		key = "I"
	}
	return fmt.Sprintf("%v*%s", t.coefficient, key)
}
