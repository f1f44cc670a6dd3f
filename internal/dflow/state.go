package dflow

import (
	"sort"

	"github.com/roach88/archpass/internal/ir"
)

// State maps storage locations to the values they hold. Locations absent
// from the map hold Unknown.
type State struct {
	locs map[ir.MemoryLocation]Value
}

// NewState creates an empty state.
func NewState() State {
	return State{locs: make(map[ir.MemoryLocation]Value)}
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	c := State{locs: make(map[ir.MemoryLocation]Value, len(s.locs))}
	for k, v := range s.locs {
		c.locs[k] = v
	}
	return c
}

// Len returns the number of tracked locations.
func (s State) Len() int { return len(s.locs) }

// Locations returns tracked locations ordered by (domain, addr, size).
func (s State) Locations() []ir.MemoryLocation {
	out := make([]ir.MemoryLocation, 0, len(s.locs))
	for loc := range s.locs {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Addr != b.Addr {
			return a.Addr < b.Addr
		}
		return a.Size < b.Size
	})
	return out
}

// Write kills every location overlapping loc, then records v at loc.
// Unknown values are not stored.
func (s State) Write(loc ir.MemoryLocation, v Value) {
	s.Kill(loc)
	if v.IsKnown() {
		s.locs[loc] = v
	}
}

// Kill forgets every location overlapping loc.
func (s State) Kill(loc ir.MemoryLocation) {
	for k := range s.locs {
		if k.Overlaps(loc) {
			delete(s.locs, k)
		}
	}
}

// KillDomains forgets every location whose domain satisfies pred.
func (s State) KillDomains(pred func(ir.Domain) bool) {
	for k := range s.locs {
		if pred(k.Domain) {
			delete(s.locs, k)
		}
	}
}

// Read returns the value held at loc.
//
// An exact entry wins. Otherwise a constant covering loc is narrowed, and
// constants tiling loc without gaps are combined.
func (s State) Read(loc ir.MemoryLocation) Value {
	if v, ok := s.locs[loc]; ok {
		return v
	}

	var pieces []ir.MemoryLocation
	for k, v := range s.locs {
		if !k.Overlaps(loc) || v.Kind != Const {
			continue
		}
		if k.Covers(loc) {
			shift := uint(loc.Addr - k.Addr)
			return ConstValue(loc.Size, v.Constant.Value>>shift)
		}
		if loc.Covers(k) {
			pieces = append(pieces, k)
		}
	}

	sort.Slice(pieces, func(i, j int) bool { return pieces[i].Addr < pieces[j].Addr })
	next := loc.Addr
	var combined uint64
	for _, p := range pieces {
		if p.Addr != next {
			return UnknownValue()
		}
		combined |= s.locs[p].Constant.Value << uint(p.Addr-loc.Addr)
		next = p.EndAddr()
	}
	if len(pieces) == 0 || next != loc.EndAddr() {
		return UnknownValue()
	}
	return ConstValue(loc.Size, combined)
}

// Join keeps only the entries on which s and other agree.
func (s State) Join(other State) State {
	out := NewState()
	for k, v := range s.locs {
		if ov, ok := other.locs[k]; ok && ov == v {
			out.locs[k] = v
		}
	}
	return out
}

// Equal reports whether both states hold the same entries.
func (s State) Equal(other State) bool {
	if len(s.locs) != len(other.locs) {
		return false
	}
	for k, v := range s.locs {
		if ov, ok := other.locs[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
