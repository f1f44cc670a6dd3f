package dflow

import "github.com/roach88/archpass/internal/ir"

// Dataflow is the result of analyzing one function: the abstract value of
// every term evaluated, plus the state at each block's exit.
type Dataflow struct {
	id       string
	values   map[ir.Term]Value
	exits    map[*ir.BasicBlock]State
	visits   int
	complete bool
}

// New creates an empty result with an identity from gen.
func New(gen IDGenerator) *Dataflow {
	return NewWithID(gen.Generate())
}

// NewWithID creates an empty result with the given identity.
func NewWithID(id string) *Dataflow {
	return &Dataflow{
		id:     id,
		values: make(map[ir.Term]Value),
		exits:  make(map[*ir.BasicBlock]State),
	}
}

// ID returns the result's unique identity.
func (d *Dataflow) ID() string { return d.id }

// Value returns the value computed for t, if t was evaluated.
func (d *Dataflow) Value(t ir.Term) (Value, bool) {
	v, ok := d.values[t]
	return v, ok
}

// SetValue records the value of t, replacing any earlier one.
func (d *Dataflow) SetValue(t ir.Term, v Value) {
	d.values[t] = v
}

// Len returns the number of evaluated terms.
func (d *Dataflow) Len() int { return len(d.values) }

// KnownCount returns the number of terms with a known value.
func (d *Dataflow) KnownCount() int {
	n := 0
	for _, v := range d.values {
		if v.IsKnown() {
			n++
		}
	}
	return n
}

// ExitState returns the state at the end of b, if b was reached.
func (d *Dataflow) ExitState(b *ir.BasicBlock) (State, bool) {
	s, ok := d.exits[b]
	return s, ok
}

// Visits returns the number of block visits the analysis performed.
func (d *Dataflow) Visits() int { return d.visits }

// IsComplete reports whether the analysis reached a fixpoint.
// Results of cancelled analyses are incomplete.
func (d *Dataflow) IsComplete() bool { return d.complete }
