package arch

import (
	"sort"

	"github.com/roach88/archpass/internal/ir"
)

// Register is a named view of a storage location.
type Register struct {
	Number   int
	Name     string
	Location ir.MemoryLocation
}

// Registers is a register file indexed by name and by location.
type Registers struct {
	list   []*Register
	byName map[string]*Register
	byLoc  map[ir.MemoryLocation]*Register
}

func newRegisters() *Registers {
	return &Registers{
		byName: make(map[string]*Register),
		byLoc:  make(map[ir.MemoryLocation]*Register),
	}
}

func (r *Registers) add(name string, loc ir.MemoryLocation) *Register {
	reg := &Register{Number: len(r.list), Name: name, Location: loc}
	r.list = append(r.list, reg)
	r.byName[name] = reg
	if _, exists := r.byLoc[loc]; !exists {
		r.byLoc[loc] = reg
	}
	return reg
}

// ByName returns the register with the given name, or nil.
func (r *Registers) ByName(name string) *Register {
	return r.byName[name]
}

// ByLocation returns the register occupying exactly loc, or nil.
func (r *Registers) ByLocation(loc ir.MemoryLocation) *Register {
	return r.byLoc[loc]
}

// All returns every register in definition order.
func (r *Registers) All() []*Register {
	return r.list
}

// Names returns all register names sorted.
func (r *Registers) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
