package calling

import "github.com/roach88/archpass/internal/ir"

// Binding is what is known about one callee.
type Binding struct {
	Convention *Convention

	// ArgumentsSize is the total byte size of stack-passed arguments.
	// Valid only when HasArgumentsSize is set.
	ArgumentsSize    int64
	HasArgumentsSize bool
}

// Conventions maps callees to their bound conventions for one run.
type Conventions struct {
	bindings map[ir.CalleeID]*Binding
	order    []ir.CalleeID
}

// NewConventions creates an empty registry.
func NewConventions() *Conventions {
	return &Conventions{bindings: make(map[ir.CalleeID]*Binding)}
}

func (c *Conventions) entry(id ir.CalleeID) *Binding {
	b, ok := c.bindings[id]
	if !ok {
		b = &Binding{}
		c.bindings[id] = b
		c.order = append(c.order, id)
	}
	return b
}

// SetConvention binds conv to the callee, replacing the previous binding
// wholesale, including any recorded arguments size.
func (c *Conventions) SetConvention(id ir.CalleeID, conv *Convention) {
	*c.entry(id) = Binding{Convention: conv}
}

// SetArgumentsSize records the byte size of the callee's stack arguments.
func (c *Conventions) SetArgumentsSize(id ir.CalleeID, size int64) {
	b := c.entry(id)
	b.ArgumentsSize = size
	b.HasArgumentsSize = true
}

// Convention returns the convention bound to the callee, or nil.
func (c *Conventions) Convention(id ir.CalleeID) *Convention {
	if b, ok := c.bindings[id]; ok {
		return b.Convention
	}
	return nil
}

// ArgumentsSize returns the recorded stack arguments size of the callee.
func (c *Conventions) ArgumentsSize(id ir.CalleeID) (int64, bool) {
	if b, ok := c.bindings[id]; ok && b.HasArgumentsSize {
		return b.ArgumentsSize, true
	}
	return 0, false
}

// Binding returns a copy of the callee's binding.
func (c *Conventions) Binding(id ir.CalleeID) (Binding, bool) {
	b, ok := c.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Callees returns every callee with a binding, in first-bound order.
func (c *Conventions) Callees() []ir.CalleeID {
	out := make([]ir.CalleeID, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of bound callees.
func (c *Conventions) Len() int {
	return len(c.bindings)
}
