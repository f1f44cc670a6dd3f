package ir

import "fmt"

// Domain identifies a register bank or memory class.
//
// Domains are totally ordered. Architectures number the registers of one
// bank contiguously, so "d lies within the bank" is two comparisons.
type Domain int

const (
	// DomainMemory is the flat address space.
	DomainMemory Domain = 0

	// DomainStack holds stack slots relative to the stack pointer at
	// function entry.
	DomainStack Domain = 1

	// DomainFirstRegister is the first domain available to registers.
	DomainFirstRegister Domain = 2
)

// MemoryLocation is a (domain, addr, size) triple. Addr and Size are in bits;
// Addr is measured from the domain's base.
type MemoryLocation struct {
	Domain Domain `json:"domain"`
	Addr   int64  `json:"addr"`
	Size   int64  `json:"size"`
}

// NewMemoryLocation returns the location of size bits at addr in domain.
func NewMemoryLocation(domain Domain, addr, size int64) MemoryLocation {
	return MemoryLocation{Domain: domain, Addr: addr, Size: size}
}

// IsValid reports whether the location covers at least one bit.
func (l MemoryLocation) IsValid() bool {
	return l.Size > 0
}

// EndAddr returns the first bit past the location.
func (l MemoryLocation) EndAddr() int64 {
	return l.Addr + l.Size
}

// Shifted returns the same-sized location moved by offset bits.
func (l MemoryLocation) Shifted(offset int64) MemoryLocation {
	return MemoryLocation{Domain: l.Domain, Addr: l.Addr + offset, Size: l.Size}
}

// Resized returns the location starting at the same addr with a new size.
func (l MemoryLocation) Resized(size int64) MemoryLocation {
	return MemoryLocation{Domain: l.Domain, Addr: l.Addr, Size: size}
}

// Covers reports whether every bit of other lies within l.
func (l MemoryLocation) Covers(other MemoryLocation) bool {
	return l.Domain == other.Domain && l.Addr <= other.Addr && other.EndAddr() <= l.EndAddr()
}

// Overlaps reports whether l and other share at least one bit.
func (l MemoryLocation) Overlaps(other MemoryLocation) bool {
	return l.Domain == other.Domain && l.Addr < other.EndAddr() && other.Addr < l.EndAddr()
}

func (l MemoryLocation) String() string {
	return fmt.Sprintf("loc(%d,%d,%d)", l.Domain, l.Addr, l.Size)
}

// Namer resolves human-readable names for storage locations.
// Architectures implement it to print register names.
type Namer interface {
	LocationName(loc MemoryLocation) (string, bool)
}

func nameOf(loc MemoryLocation, n Namer) string {
	if n != nil {
		if name, ok := n.LocationName(loc); ok {
			return name
		}
	}
	return loc.String()
}
