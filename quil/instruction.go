package quil

import (
	"fmt"
	"strings"
)

// Instruction is a single executable element of a program.
type Instruction interface {
	fmt.Stringer
	isInstruction()
}

// Gate is a named gate application with optional parameters. Parameter
// conventions follow Quil: RZ(theta) = diag(e^{-i theta/2}, e^{i theta/2}),
// RX(theta) = [[cos(theta/2), -i sin(theta/2)], [-i sin(theta/2),
// cos(theta/2)]], CPHASE(theta) = diag(1, 1, 1, e^{i theta}).
type Gate struct {
	Name   string
	Params []Param
	Qubits []Qubit
}

func (Gate) isInstruction() {}

func (g Gate) String() string {
	var b strings.Builder
	b.WriteString(g.Name)
	if len(g.Params) > 0 {
		b.WriteByte('(')
		for i, param := range g.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(param.String())
		}
		b.WriteByte(')')
	}
	for _, q := range g.Qubits {
		fmt.Fprintf(&b, " %d", q)
	}
	return b.String()
}

// Measurement reads one qubit into a BIT region slot.
type Measurement struct {
	Qubit  Qubit
	Target Ref
}

func (Measurement) isInstruction() {}

func (m Measurement) String() string {
	return fmt.Sprintf("MEASURE %d %s", m.Qubit, m.Target)
}

func H(q Qubit) Gate {
	return Gate{Name: "H", Qubits: []Qubit{q}}
}

func X(q Qubit) Gate {
	return Gate{Name: "X", Qubits: []Qubit{q}}
}

func Y(q Qubit) Gate {
	return Gate{Name: "Y", Qubits: []Qubit{q}}
}

func Z(q Qubit) Gate {
	return Gate{Name: "Z", Qubits: []Qubit{q}}
}

func RX(angle Param, q Qubit) Gate {
	return Gate{Name: "RX", Params: []Param{angle}, Qubits: []Qubit{q}}
}

func RY(angle Param, q Qubit) Gate {
	return Gate{Name: "RY", Params: []Param{angle}, Qubits: []Qubit{q}}
}

func RZ(angle Param, q Qubit) Gate {
	return Gate{Name: "RZ", Params: []Param{angle}, Qubits: []Qubit{q}}
}

func CNOT(control Qubit, target Qubit) Gate {
	return Gate{Name: "CNOT", Qubits: []Qubit{control, target}}
}

func CZ(q0 Qubit, q1 Qubit) Gate {
	return Gate{Name: "CZ", Qubits: []Qubit{q0, q1}}
}

func CPHASE(angle Param, q0 Qubit, q1 Qubit) Gate {
	return Gate{Name: "CPHASE", Params: []Param{angle}, Qubits: []Qubit{q0, q1}}
}

func Measure(q Qubit, target Ref) Measurement {
	return Measurement{Qubit: q, Target: target}
}
