package ir

// BasicBlock is an ordered sequence of statements.
//
// Analysis passes only ever add statements: AppendStatements and
// AddStatements preserve the relative order of everything already there.
type BasicBlock struct {
	address    uint64
	statements []Statement
}

// NewBasicBlock creates an empty block starting at address.
func NewBasicBlock(address uint64) *BasicBlock {
	return &BasicBlock{address: address}
}

// Address returns the address of the block's first instruction.
func (b *BasicBlock) Address() uint64 {
	return b.address
}

// Statements returns the block's statements in order.
// The returned slice must not be modified.
func (b *BasicBlock) Statements() []Statement {
	return b.statements
}

// Len returns the number of statements.
func (b *BasicBlock) Len() int {
	return len(b.statements)
}

// Append adds a statement at the end of the block.
func (b *BasicBlock) Append(s Statement) {
	b.statements = append(b.statements, s)
}

// AppendStatements adds stmts, in order, after the full current sequence.
func (b *BasicBlock) AppendStatements(stmts []Statement) {
	b.statements = append(b.statements, stmts...)
}

// Patch is a statement to insert after an existing anchor statement.
type Patch struct {
	After     Statement
	Statement Statement
}

// AddStatements inserts each patch directly after its anchor in one pass.
// Patches sharing an anchor keep their relative order. Patches whose anchor
// is not in the block are appended at the end.
func (b *BasicBlock) AddStatements(patches []Patch) {
	if len(patches) == 0 {
		return
	}

	byAnchor := make(map[Statement][]Statement, len(patches))
	for _, p := range patches {
		byAnchor[p.After] = append(byAnchor[p.After], p.Statement)
	}

	result := make([]Statement, 0, len(b.statements)+len(patches))
	for _, s := range b.statements {
		result = append(result, s)
		if extra, ok := byAnchor[s]; ok {
			result = append(result, extra...)
			delete(byAnchor, s)
		}
	}

	// Leftovers in input order
	for _, p := range patches {
		if _, ok := byAnchor[p.After]; ok {
			result = append(result, p.Statement)
		}
	}

	b.statements = result
}

// Terminator returns the trailing Jump or Return, if any.
func (b *BasicBlock) Terminator() Statement {
	for i := len(b.statements) - 1; i >= 0; i-- {
		switch s := b.statements[i].(type) {
		case *Jump, *Return:
			return s
		case *Assignment:
			// Synthesized statements may follow the terminator.
			continue
		default:
			return nil
		}
	}
	return nil
}
