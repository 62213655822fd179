package quil

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Program is an ordered sequence of instructions together with the
// classical memory regions they reference. The zero value is usable.
type Program struct {
	regions      []Region
	regionIndex  map[string]int
	instructions []Instruction
}

func NewProgram() *Program {
	return &Program{regionIndex: map[string]int{}}
}

// Declare adds a named classical register to the program. Size zero is
// legal and declares an empty register.
func (p *Program) Declare(name string, typ MemoryType, size int) (Region, error) {
	if name == "" || size < 0 {
		return Region{}, errors.Wrapf(ErrInvalidRegion, "%q size %d", name, size)
	}
	if _, ok := p.regionIndex[name]; ok {
		return Region{}, errors.Wrap(ErrDuplicateRegion, name)
	}
	if p.regionIndex == nil {
		p.regionIndex = map[string]int{}
	}
	region := Region{Name: name, Type: typ, Size: size}
	p.regionIndex[name] = len(p.regions)
	p.regions = append(p.regions, region)
	return region, nil
}

// Inst appends instructions in order and returns p for chaining.
func (p *Program) Inst(instructions ...Instruction) *Program {
	p.instructions = append(p.instructions, instructions...)
	return p
}

// Append concatenates other onto p: declarations first, then
// instructions. A declaration name already present in p is an error and
// leaves p unchanged.
func (p *Program) Append(other *Program) error {
	if other == nil {
		return nil
	}
	for _, region := range other.regions {
		if _, ok := p.regionIndex[region.Name]; ok {
			return errors.Wrap(ErrDuplicateRegion, region.Name)
		}
	}
	if p.regionIndex == nil && len(other.regions) > 0 {
		p.regionIndex = map[string]int{}
	}
	for _, region := range other.regions {
		p.regionIndex[region.Name] = len(p.regions)
		p.regions = append(p.regions, region)
	}
	p.instructions = append(p.instructions, other.instructions...)
	return nil
}

// Regions returns the declared regions in declaration order.
func (p *Program) Regions() []Region {
	return slices.Clone(p.regions)
}

// RegionNamed reports the declared region with the given name.
func (p *Program) RegionNamed(name string) (Region, bool) {
	i, ok := p.regionIndex[name]
	if !ok {
		return Region{}, false
	}
	return p.regions[i], true
}

// Instructions returns the instruction sequence in program order.
func (p *Program) Instructions() []Instruction {
	return slices.Clone(p.instructions)
}

// Qubits returns the sorted set of qubits the program touches.
func (p *Program) Qubits() []Qubit {
	seen := map[Qubit]struct{}{}
	for _, inst := range p.instructions {
		switch in := inst.(type) {
		case Gate:
			for _, q := range in.Qubits {
				seen[q] = struct{}{}
			}
		case Measurement:
			seen[in.Qubit] = struct{}{}
		}
	}
	qubits := make([]Qubit, 0, len(seen))
	for q := range seen {
		qubits = append(qubits, q)
	}
	slices.Sort(qubits)
	return qubits
}

// Clone returns a copy of the program that can be extended without
// affecting p.
func (p *Program) Clone() *Program {
	clone := &Program{
		regions:      slices.Clone(p.regions),
		regionIndex:  maps.Clone(p.regionIndex),
		instructions: slices.Clone(p.instructions),
	}
	if clone.regionIndex == nil {
		clone.regionIndex = map[string]int{}
	}
	return clone
}

// String renders the program as Quil text: declarations in declaration
// order followed by instructions in program order.
func (p *Program) String() string {
	var b strings.Builder
	for _, region := range p.regions {
		fmt.Fprintf(&b, "DECLARE %s %s[%d]\n", region.Name, region.Type, region.Size)
	}
	for _, inst := range p.instructions {
		b.WriteString(inst.String())
		b.WriteByte('\n')
	}
	return b.String()
}
