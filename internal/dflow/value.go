package dflow

import (
	"fmt"

	"github.com/roach88/archpass/internal/ir"
)

// Kind classifies an abstract value.
type Kind int

const (
	// Unknown is the top of the lattice.
	Unknown Kind = iota

	// Const is a fully known value.
	Const

	// StackOffset is the entry stack pointer plus a byte offset.
	StackOffset
)

func (k Kind) String() string {
	switch k {
	case Const:
		return "const"
	case StackOffset:
		return "stack"
	default:
		return "unknown"
	}
}

// Value is an abstract value computed for a term or held by a location.
type Value struct {
	Kind     Kind
	Constant ir.SizedValue
	Offset   int64
}

// UnknownValue returns the unknown value.
func UnknownValue() Value {
	return Value{}
}

// ConstValue returns a known constant truncated to size bits.
func ConstValue(size int64, v uint64) Value {
	return Value{Kind: Const, Constant: ir.NewSizedValue(size, v)}
}

// StackValue returns the entry stack pointer plus offset bytes.
func StackValue(offset int64) Value {
	return Value{Kind: StackOffset, Offset: offset}
}

// IsKnown reports whether the value is not Unknown.
func (v Value) IsKnown() bool {
	return v.Kind != Unknown
}

// Join returns v if both values agree, Unknown otherwise.
func (v Value) Join(other Value) Value {
	if v == other {
		return v
	}
	return UnknownValue()
}

func (v Value) String() string {
	switch v.Kind {
	case Const:
		return v.Constant.String()
	case StackOffset:
		if v.Offset < 0 {
			return fmt.Sprintf("sp-0x%x", -v.Offset)
		}
		return fmt.Sprintf("sp+0x%x", v.Offset)
	default:
		return "?"
	}
}
