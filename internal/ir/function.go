package ir

// Function is a set of basic blocks reachable from an entry address.
// The entry block is the first block added.
type Function struct {
	Name   string
	Entry  uint64
	blocks []*BasicBlock
}

// NewFunction creates a function with no blocks.
func NewFunction(name string, entry uint64) *Function {
	return &Function{Name: name, Entry: entry}
}

// AddBasicBlock appends a block to the function.
func (f *Function) AddBasicBlock(b *BasicBlock) {
	f.blocks = append(f.blocks, b)
}

// BasicBlocks returns the function's blocks in insertion order.
func (f *Function) BasicBlocks() []*BasicBlock {
	return f.blocks
}

// EntryBlock returns the block at the entry address, or nil.
func (f *Function) EntryBlock() *BasicBlock {
	for _, b := range f.blocks {
		if b.Address() == f.Entry {
			return b
		}
	}
	return nil
}
