package calling

import "github.com/roach88/archpass/internal/ir"

// CallHook describes the effect of one call on the caller's state.
type CallHook struct {
	Callee     ir.CalleeID
	Convention *Convention

	// Clobbered are locations whose value is unknown after the call.
	Clobbered []ir.MemoryLocation

	// StackAdjustment is added to the stack pointer, in bits, when the
	// call returns. Non-zero only for callee-cleanup conventions with a
	// known arguments size.
	StackAdjustment int64
}

// Hooks derives call hooks from the run's convention registry.
// Hooks only read the registry.
type Hooks struct {
	conventions *Conventions
}

// NewHooks creates hooks backed by conventions.
func NewHooks(conventions *Conventions) *Hooks {
	return &Hooks{conventions: conventions}
}

// CallHook returns the hook for call, or nil if no convention is bound to
// its callee.
func (h *Hooks) CallHook(call *ir.Call) *CallHook {
	if h == nil || h.conventions == nil {
		return nil
	}

	id := ir.CalleeIDOf(call)
	conv := h.conventions.Convention(id)
	if conv == nil {
		return nil
	}

	hook := &CallHook{
		Callee:     id,
		Convention: conv,
		Clobbered:  append([]ir.MemoryLocation(nil), conv.ReturnValues...),
	}
	if conv.CalleeCleanup {
		if size, ok := h.conventions.ArgumentsSize(id); ok {
			hook.StackAdjustment = size * 8
		}
	}
	return hook
}
