package ir

import "fmt"

// CalleeID is a stable, comparable key for a call target: either a known
// entry address or, for indirect calls, the call site itself.
type CalleeID struct {
	entry    uint64
	hasEntry bool
	call     *Call
}

// NewDirectCalleeID identifies the function entered at addr.
func NewDirectCalleeID(addr uint64) CalleeID {
	return CalleeID{entry: addr, hasEntry: true}
}

// NewIndirectCalleeID identifies whatever call targets.
func NewIndirectCalleeID(call *Call) CalleeID {
	return CalleeID{call: call}
}

// CalleeIDOf derives the callee identity of a call statement.
// Calls to a constant address are direct; everything else is indirect.
func CalleeIDOf(call *Call) CalleeID {
	if c, ok := call.Target.(*Constant); ok {
		return NewDirectCalleeID(c.Value.Value)
	}
	return NewIndirectCalleeID(call)
}

// EntryAddress returns the callee's entry address if it is known.
func (c CalleeID) EntryAddress() (uint64, bool) {
	return c.entry, c.hasEntry
}

// Call returns the call site of an indirect callee, or nil.
func (c CalleeID) Call() *Call {
	return c.call
}

// IsValid reports whether the id identifies anything.
func (c CalleeID) IsValid() bool {
	return c.hasEntry || c.call != nil
}

// String returns "0x<entry>" for direct callees and "indirect@0x<site>"
// for indirect ones.
func (c CalleeID) String() string {
	switch {
	case c.hasEntry:
		return fmt.Sprintf("0x%x", c.entry)
	case c.call != nil:
		return fmt.Sprintf("indirect@0x%x", c.call.Addr)
	default:
		return "invalid"
	}
}
