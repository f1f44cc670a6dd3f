package core

import (
	"sort"

	"github.com/roach88/archpass/internal/arch"
)

// Module is the binary being decompiled: its architecture and the symbol
// names known for entry addresses.
type Module struct {
	architecture *arch.Architecture
	symbols      map[uint64]string
}

// NewModule creates a module with no symbols.
func NewModule(a *arch.Architecture) *Module {
	return &Module{architecture: a, symbols: make(map[uint64]string)}
}

// Architecture returns the module's architecture descriptor.
func (m *Module) Architecture() *arch.Architecture { return m.architecture }

// AddSymbol names the function entered at addr. A later name replaces an
// earlier one.
func (m *Module) AddSymbol(addr uint64, name string) {
	m.symbols[addr] = name
}

// Name returns the symbol name at addr, if any.
func (m *Module) Name(addr uint64) (string, bool) {
	name, ok := m.symbols[addr]
	return name, ok
}

// SymbolAddresses returns every named address in ascending order.
func (m *Module) SymbolAddresses() []uint64 {
	out := make([]uint64, 0, len(m.symbols))
	for addr := range m.symbols {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
