package arch

import "github.com/roach88/archpass/internal/ir"

// Intel GPR bank order. Domains are assigned contiguously from
// ir.DomainFirstRegister in this order, rax lowest and r15 highest.
var intelGPRs = []string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rsp", "rbp",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

const (
	intelDomainIP    = ir.DomainFirstRegister + 16
	intelDomainFlags = ir.DomainFirstRegister + 17
)

// newIntelRegisters builds the x86 register file shared by all modes.
func newIntelRegisters() *Registers {
	r := newRegisters()

	for i, name := range intelGPRs {
		d := ir.DomainFirstRegister + ir.Domain(i)
		switch {
		case i < 4:
			// rax, rbx, rcx, rdx: al/ah/ax/eax/rax
			c := name[1:2]
			r.add(c+"l", ir.NewMemoryLocation(d, 0, 8))
			r.add(c+"h", ir.NewMemoryLocation(d, 8, 8))
			r.add(c+"x", ir.NewMemoryLocation(d, 0, 16))
			r.add("e"+c+"x", ir.NewMemoryLocation(d, 0, 32))
		case i < 8:
			// rsi, rdi, rsp, rbp: sil/si/esi/rsi
			base := name[1:]
			r.add(base+"l", ir.NewMemoryLocation(d, 0, 8))
			r.add(base, ir.NewMemoryLocation(d, 0, 16))
			r.add("e"+base, ir.NewMemoryLocation(d, 0, 32))
		default:
			// r8..r15: r8b/r8w/r8d/r8
			r.add(name+"b", ir.NewMemoryLocation(d, 0, 8))
			r.add(name+"w", ir.NewMemoryLocation(d, 0, 16))
			r.add(name+"d", ir.NewMemoryLocation(d, 0, 32))
		}
		r.add(name, ir.NewMemoryLocation(d, 0, 64))
	}

	r.add("ip", ir.NewMemoryLocation(intelDomainIP, 0, 16))
	r.add("eip", ir.NewMemoryLocation(intelDomainIP, 0, 32))
	r.add("rip", ir.NewMemoryLocation(intelDomainIP, 0, 64))

	r.add("cf", ir.NewMemoryLocation(intelDomainFlags, 0, 1))
	r.add("pf", ir.NewMemoryLocation(intelDomainFlags, 2, 1))
	r.add("zf", ir.NewMemoryLocation(intelDomainFlags, 6, 1))
	r.add("sf", ir.NewMemoryLocation(intelDomainFlags, 7, 1))
	r.add("df", ir.NewMemoryLocation(intelDomainFlags, 10, 1))
	r.add("of", ir.NewMemoryLocation(intelDomainFlags, 11, 1))
	r.add("flags", ir.NewMemoryLocation(intelDomainFlags, 0, 16))
	r.add("eflags", ir.NewMemoryLocation(intelDomainFlags, 0, 32))

	return r
}
