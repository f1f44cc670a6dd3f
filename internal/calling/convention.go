package calling

import "github.com/roach88/archpass/internal/ir"

// Convention is a calling convention descriptor resolved against an
// architecture's register file.
type Convention struct {
	Name        string
	Description string

	// StackPointer is the location of the stack pointer register.
	StackPointer ir.MemoryLocation

	// FirstArgumentOffset is the distance, in bits, from the stack pointer
	// at entry to the first stack-passed argument.
	FirstArgumentOffset int64

	// Arguments are the register-passed argument locations in order.
	Arguments []ir.MemoryLocation

	// ReturnValues are the locations a callee may write its result to.
	ReturnValues []ir.MemoryLocation

	// CalleeCleanup is set when the callee pops its stack arguments.
	CalleeCleanup bool

	// StackAlignment is the required stack alignment in bytes.
	StackAlignment int64
}
