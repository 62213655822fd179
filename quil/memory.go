package quil

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrInvalidRegion   = errors.New("invalid region declaration")
	ErrDuplicateRegion = errors.New("duplicate region declaration")
	ErrUnknownRegion   = errors.New("unknown memory region")
	ErrRegionBounds    = errors.New("memory reference out of bounds")
)

// MemoryType identifies the kind of values a classical region holds.
type MemoryType int

const (
	Real MemoryType = iota
	Bit
)

func (t MemoryType) String() string {
	if t == Bit {
		return "BIT"
	}
	return "REAL"
}

// Region is a named classical register declared by a program.
type Region struct {
	Name string
	Type MemoryType
	Size int
}

// At returns a reference to slot i of the region. Offsets are validated
// at bind time against the supplied memory map, so references can be
// built before any values exist.
func (r Region) At(i int) Ref {
	return Ref{Region: r.Name, Offset: i}
}

// Ref is a symbolic reference to one slot of a declared region.
type Ref struct {
	Region string
	Offset int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s[%d]", r.Region, r.Offset)
}

// Bind resolves the reference against a memory map.
func (r Ref) Bind(m MemoryMap) (float64, error) {
	values, ok := m[r.Region]
	if !ok {
		return 0, errors.Wrap(ErrUnknownRegion, r.String())
	}
	if r.Offset < 0 || r.Offset >= len(values) {
		return 0, errors.Wrap(ErrRegionBounds, r.String())
	}
	return values[r.Offset], nil
}

// Times returns a parameter evaluating to c times the referenced slot,
// covering angle expressions such as -2*betas0[1].
func (r Ref) Times(c float64) Param {
	return scaledRef{ref: r, scale: c}
}

// Param is a gate parameter: a constant, or a reference into declared
// classical memory, optionally scaled.
type Param interface {
	fmt.Stringer
	Bind(MemoryMap) (float64, error)
}

// Constant is a literal gate parameter.
type Constant float64

func (c Constant) String() string {
	return strconv.FormatFloat(float64(c), 'g', -1, 64)
}

func (c Constant) Bind(MemoryMap) (float64, error) {
	return float64(c), nil
}

type scaledRef struct {
	ref   Ref
	scale float64
}

func (s scaledRef) String() string {
	return fmt.Sprintf("%s*%s", strconv.FormatFloat(s.scale, 'g', -1, 64), s.ref)
}

func (s scaledRef) Bind(m MemoryMap) (float64, error) {
	value, err := s.ref.Bind(m)
	if err != nil {
		return 0, err
	}
	return s.scale * value, nil
}

// MemoryMap assigns runtime values to declared regions by name.
type MemoryMap map[string][]float64

// Clone returns a deep copy. Call logs snapshot memory maps so that
// later in-place parameter updates cannot rewrite recorded history.
func (m MemoryMap) Clone() MemoryMap {
	if m == nil {
		return nil
	}
	clone := make(MemoryMap, len(m))
	for name, values := range m {
		copied := make([]float64, len(values))
		copy(copied, values)
		clone[name] = copied
	}
	return clone
}
