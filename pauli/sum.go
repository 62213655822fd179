package pauli

import (
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/NunoEdgarGFlowHub/entropica-qaoa/quil"
)

// Sum is a weighted sum of Pauli terms. Like terms are combined and
// terms with zero coefficient dropped on construction, so a Sum is
// always in simplified form.
type Sum struct {
	terms []Term
}

// NewSum builds a simplified sum of the given terms.
func NewSum(terms ...Term) Sum {
	combined := map[string]Term{}
	order := []string{}
	for _, term := range terms {
		key := term.key()
		if existing, ok := combined[key]; ok {
			existing.coefficient += term.coefficient
			combined[key] = existing
			continue
		}
		combined[key] = NewTerm(term.coefficient, term.factors)
		order = append(order, key)
	}
	sum := Sum{}
	for _, key := range order {
		if term := combined[key]; term.coefficient != 0 {
			sum.terms = append(sum.terms, term)
		}
	}
	return sum
}

// Terms returns the simplified terms in first-seen order.
func (s Sum) Terms() []Term {
	return slices.Clone(s.terms)
}

// Plus returns the simplified sum s + other.
func (s Sum) Plus(other Sum) Sum {
	return NewSum(append(s.Terms(), other.terms...)...)
}

// Squared returns the simplified operator product s*s, used for exact
// variance computations.
func (s Sum) Squared() Sum {
	products := make([]Term, 0, len(s.terms)*len(s.terms))
	for _, a := range s.terms {
		for _, b := range s.terms {
			products = append(products, a.Mul(b))
		}
	}
	return NewSum(products...)
}

// Qubits returns the sorted set of qubits the sum acts on.
func (s Sum) Qubits() []quil.Qubit {
	seen := map[quil.Qubit]struct{}{}
	for _, term := range s.terms {
		for q := range term.factors {
			seen[q] = struct{}{}
		}
	}
	qubits := make([]quil.Qubit, 0, len(seen))
	for q := range seen {
		qubits = append(qubits, q)
	}
	slices.Sort(qubits)
	return qubits
}

// IsDiagonal reports whether every term is diagonal in the
// computational basis.
func (s Sum) IsDiagonal() bool {
	for _, term := range s.terms {
		if !term.IsDiagonal() {
			return false
		}
	}
	return true
}

func (s Sum) String() string {
	if len(s.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(s.terms))
	for i, term := range s.terms {
		parts[i] = term.String()
	}
	return strings.Join(parts, " + ")
}

// DiagonalEnergy evaluates a diagonal sum on a measured bitstring. The
// bit function reports the measured value (0 or 1) of a qubit; each Z
// factor contributes +1 for 0 and -1 for 1. Coefficients are assumed
// Hermitian so only their real parts contribute.
func DiagonalEnergy(s Sum, bit func(quil.Qubit) uint8) (float64, error) {
	energy := 0.0
	for _, term := range s.terms {
		sign := 1.0
		for q, op := range term.factors {
			if op != Z {
				return 0, errors.Wrap(ErrNotDiagonal, term.String())
			}
			if bit(q) != 0 {
				sign = -sign
			}
		}
		energy += sign * real(term.coefficient)
	}
	return energy, nil
}
