package mhd

import "fmt"

// FieldKind separates fields with a time derivative from those fixed by a
// constraint at every instant
type FieldKind uint8

const (
	Algebraic FieldKind = iota
	Differential
)

func (fk FieldKind) String() string {
	switch fk {
	case Algebraic:
		return "Algebraic"
	case Differential:
		return "Differential"
	}
	return fmt.Sprintf("FieldKind(%d)", fk)
}

type Field uint8

const (
	Phi Field = iota // Stream function
	Psi              // Magnetic flux
	W                // Vorticity
)

var Fields = [3]Field{Phi, Psi, W}

func (f Field) String() string {
	switch f {
	case Phi:
		return "phi"
	case Psi:
		return "psi"
	case W:
		return "w"
	}
	return fmt.Sprintf("Field(%d)", f)
}

// Kind reports phi as algebraic, it is recovered from w rather than integrated
func (f Field) Kind() FieldKind {
	if f == Phi {
		return Algebraic
	}
	return Differential
}

// State is the block vector [phi | psi | w], each block of length N. Field
// views alias Data and are invalid once Data is reallocated.
type State struct {
	Data []float64
	N    int
}

func NewState(n int) State {
	return State{
		Data: make([]float64, 3*n),
		N:    n,
	}
}

// NewStateView wraps data without copying
func NewStateView(data []float64, n int) (s State, err error) {
	if len(data) != 3*n {
		err = fmt.Errorf("%w: have %d, need 3*%d", ErrStateSize, len(data), n)
		return
	}
	s = State{Data: data, N: n}
	return
}

// Field returns the block of f, capped so appends cannot spill into the next block
func (s State) Field(f Field) []float64 {
	off := int(f) * s.N
	return s.Data[off : off+s.N : off+s.N]
}

func (s State) Phi() []float64 { return s.Field(Phi) }
func (s State) Psi() []float64 { return s.Field(Psi) }
func (s State) W() []float64   { return s.Field(W) }
