package arch

import (
	"fmt"
	"sort"

	"github.com/roach88/archpass/internal/calling"
	"github.com/roach88/archpass/internal/compiler"
	"github.com/roach88/archpass/internal/ir"
)

// Architecture families.
const (
	FamilyIntel = "intel"
)

// Architecture is an immutable architecture descriptor.
type Architecture struct {
	name      string
	family    string
	bitness   int
	registers *Registers

	minGPR       *Register
	maxGPR       *Register
	stackPointer *Register

	conventions     map[string]*calling.Convention
	conventionNames []string
}

// Name returns the architecture name, e.g. "x86-64".
func (a *Architecture) Name() string { return a.name }

// Family returns the instruction-set family, e.g. "intel".
func (a *Architecture) Family() string { return a.family }

// Bitness returns the native word size in bits.
func (a *Architecture) Bitness() int { return a.bitness }

// Registers returns the register file.
func (a *Architecture) Registers() *Registers { return a.registers }

// StackPointer returns the stack pointer register for the native width.
func (a *Architecture) StackPointer() *Register { return a.stackPointer }

// GeneralPurposeRange returns the lowest and highest registers of the
// general-purpose bank. A domain d lies within the bank iff
// lo.Location.Domain <= d && d <= hi.Location.Domain.
func (a *Architecture) GeneralPurposeRange() (lo, hi *Register) {
	return a.minGPR, a.maxGPR
}

// CallingConvention returns the named convention. Names not registered for
// this architecture fail with *UnknownConventionError.
func (a *Architecture) CallingConvention(name string) (*calling.Convention, error) {
	conv, ok := a.conventions[name]
	if !ok {
		return nil, &UnknownConventionError{Architecture: a.name, Name: name}
	}
	return conv, nil
}

// ConventionNames returns the registered convention names in catalog order.
func (a *Architecture) ConventionNames() []string {
	out := make([]string, len(a.conventionNames))
	copy(out, a.conventionNames)
	return out
}

// LocationName implements ir.Namer using the register file.
func (a *Architecture) LocationName(loc ir.MemoryLocation) (string, bool) {
	if reg := a.registers.ByLocation(loc); reg != nil {
		return reg.Name, true
	}
	return "", false
}

// Names returns all architecture names defined in cat, sorted.
func Names(cat *compiler.Catalog) []string {
	names := make([]string, 0, len(cat.Architectures))
	for _, a := range cat.Architectures {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return names
}

// New builds the named architecture from a compiled catalog, resolving
// every convention's register names against the family's register file.
func New(name string, cat *compiler.Catalog) (*Architecture, error) {
	spec, ok := cat.Architecture(name)
	if !ok {
		return nil, &UnknownArchitectureError{Name: name}
	}

	a := &Architecture{
		name:        spec.Name,
		family:      spec.Family,
		bitness:     spec.Bitness,
		conventions: make(map[string]*calling.Convention, len(spec.Conventions)),
	}

	switch spec.Family {
	case FamilyIntel:
		a.registers = newIntelRegisters()
		a.minGPR = a.registers.ByName(intelGPRs[0])
		a.maxGPR = a.registers.ByName(intelGPRs[len(intelGPRs)-1])
		switch {
		case spec.Bitness <= 16:
			a.stackPointer = a.registers.ByName("sp")
		case spec.Bitness <= 32:
			a.stackPointer = a.registers.ByName("esp")
		default:
			a.stackPointer = a.registers.ByName("rsp")
		}
	default:
		return nil, &UnknownArchitectureError{Name: name, Family: spec.Family}
	}

	for _, convName := range spec.Conventions {
		cs, ok := cat.Convention(convName)
		if !ok {
			return nil, &UnknownConventionError{Architecture: name, Name: convName}
		}
		conv, err := a.resolve(cs)
		if err != nil {
			return nil, err
		}
		a.conventions[convName] = conv
		a.conventionNames = append(a.conventionNames, convName)
	}

	return a, nil
}

// resolve turns a convention spec into a descriptor bound to a's registers.
func (a *Architecture) resolve(cs *compiler.ConventionSpec) (*calling.Convention, error) {
	lookup := func(field, name string) (ir.MemoryLocation, error) {
		reg := a.registers.ByName(name)
		if reg == nil {
			return ir.MemoryLocation{}, &UnknownRegisterError{
				Architecture: a.name,
				Convention:   cs.Name,
				Field:        field,
				Name:         name,
			}
		}
		return reg.Location, nil
	}

	sp, err := lookup("stack_pointer", cs.StackPointer)
	if err != nil {
		return nil, err
	}

	conv := &calling.Convention{
		Name:                cs.Name,
		Description:         cs.Description,
		StackPointer:        sp,
		FirstArgumentOffset: cs.FirstArgumentOffset * 8,
		CalleeCleanup:       cs.CalleeCleanup,
		StackAlignment:      cs.StackAlignment,
	}

	for _, name := range cs.Arguments {
		loc, err := lookup("arguments", name)
		if err != nil {
			return nil, err
		}
		conv.Arguments = append(conv.Arguments, loc)
	}
	for _, name := range cs.ReturnValues {
		loc, err := lookup("return_values", name)
		if err != nil {
			return nil, err
		}
		conv.ReturnValues = append(conv.ReturnValues, loc)
	}

	return conv, nil
}

// errorf is a small helper for error messages naming an architecture.
func errorf(arch, format string, args ...any) string {
	return fmt.Sprintf("architecture %q: ", arch) + fmt.Sprintf(format, args...)
}
