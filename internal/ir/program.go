package ir

import (
	"fmt"
	"sort"
)

// Program is the whole IR of one binary: every basic block, and the
// functions built over them.
type Program struct {
	blocks    []*BasicBlock
	byAddr    map[uint64]*BasicBlock
	functions []*Function
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{byAddr: make(map[uint64]*BasicBlock)}
}

// AddBasicBlock registers a block. Block addresses are unique.
func (p *Program) AddBasicBlock(b *BasicBlock) error {
	if _, exists := p.byAddr[b.Address()]; exists {
		return fmt.Errorf("duplicate basic block at 0x%x", b.Address())
	}
	p.byAddr[b.Address()] = b
	p.blocks = append(p.blocks, b)
	sort.SliceStable(p.blocks, func(i, j int) bool {
		return p.blocks[i].Address() < p.blocks[j].Address()
	})
	return nil
}

// BasicBlocks returns all blocks ordered by address.
func (p *Program) BasicBlocks() []*BasicBlock {
	return p.blocks
}

// BasicBlockAt returns the block starting at addr, or nil.
func (p *Program) BasicBlockAt(addr uint64) *BasicBlock {
	return p.byAddr[addr]
}

// AddFunction registers a function. Its blocks must belong to the program.
func (p *Program) AddFunction(f *Function) {
	p.functions = append(p.functions, f)
}

// Functions returns functions in registration order.
func (p *Program) Functions() []*Function {
	return p.functions
}

// Calls returns every call statement in block order.
func (p *Program) Calls() []*Call {
	var calls []*Call
	for _, b := range p.blocks {
		for _, s := range b.Statements() {
			if c, ok := s.(*Call); ok {
				calls = append(calls, c)
			}
		}
	}
	return calls
}

// StatementCount returns the total number of statements in all blocks.
func (p *Program) StatementCount() int {
	n := 0
	for _, b := range p.blocks {
		n += b.Len()
	}
	return n
}
