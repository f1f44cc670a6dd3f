package dflow

import (
	"context"
	"log/slog"
	"sort"

	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/calling"
	"github.com/roach88/archpass/internal/ir"
)

// Analyzer computes a Dataflow for one function.
//
// Blocks are visited from a FIFO worklist. Block entry states only lose
// entries when joined, so the worklist always drains.
type Analyzer struct {
	df    *Dataflow
	arch  *arch.Architecture
	fn    *ir.Function
	hooks *calling.Hooks

	sp     ir.MemoryLocation
	blocks []*ir.BasicBlock
	byAddr map[uint64]*ir.BasicBlock
}

// NewAnalyzer prepares an analysis of fn writing into df. hooks may be nil,
// in which case every call is treated as clobbering all registers except
// the stack pointer.
func NewAnalyzer(df *Dataflow, a *arch.Architecture, fn *ir.Function, hooks *calling.Hooks) *Analyzer {
	blocks := append([]*ir.BasicBlock(nil), fn.BasicBlocks()...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Address() < blocks[j].Address() })

	byAddr := make(map[uint64]*ir.BasicBlock, len(blocks))
	for _, b := range blocks {
		byAddr[b.Address()] = b
	}

	return &Analyzer{
		df:     df,
		arch:   a,
		fn:     fn,
		hooks:  hooks,
		sp:     a.StackPointer().Location,
		blocks: blocks,
		byAddr: byAddr,
	}
}

// Analyze runs to a fixpoint. Cancellation is polled before each block
// visit; a cancelled analysis returns ctx.Err() and leaves the result
// incomplete but usable.
func (a *Analyzer) Analyze(ctx context.Context) error {
	if len(a.blocks) == 0 {
		a.df.complete = true
		return nil
	}

	entry := a.fn.EntryBlock()
	if entry == nil {
		entry = a.blocks[0]
	}

	initial := NewState()
	initial.Write(a.sp, StackValue(0))

	in := map[*ir.BasicBlock]State{entry: initial}
	queue := []*ir.BasicBlock{entry}
	queued := map[*ir.BasicBlock]bool{entry: true}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			slog.Warn("dataflow analysis cancelled",
				"function", a.fn.Name,
				"visits", a.df.visits)
			return err
		}

		b := queue[0]
		queue = queue[1:]
		queued[b] = false

		st := in[b].Clone()
		a.transfer(b, st)
		a.df.exits[b] = st
		a.df.visits++

		for _, succ := range a.successors(b) {
			prev, reached := in[succ]
			next := st.Clone()
			if reached {
				next = prev.Join(st)
				if next.Equal(prev) {
					continue
				}
			}
			in[succ] = next
			if !queued[succ] {
				queue = append(queue, succ)
				queued[succ] = true
			}
		}
	}

	a.df.complete = true
	slog.Debug("dataflow analysis complete",
		"function", a.fn.Name,
		"blocks", len(a.blocks),
		"visits", a.df.visits,
		"terms", a.df.Len())
	return nil
}

// successors returns the blocks control may reach from the end of b.
func (a *Analyzer) successors(b *ir.BasicBlock) []*ir.BasicBlock {
	switch t := b.Terminator().(type) {
	case *ir.Return:
		return nil
	case *ir.Jump:
		var out []*ir.BasicBlock
		if next := a.target(t.Then); next != nil {
			out = append(out, next)
		}
		if t.IsConditional() {
			if t.Else != nil {
				if next := a.target(t.Else); next != nil {
					out = append(out, next)
				}
			} else if next := a.following(b); next != nil {
				out = append(out, next)
			}
		}
		return out
	default:
		if next := a.following(b); next != nil {
			return []*ir.BasicBlock{next}
		}
		return nil
	}
}

func (a *Analyzer) target(t ir.Term) *ir.BasicBlock {
	if c, ok := t.(*ir.Constant); ok {
		return a.byAddr[c.Value.Value]
	}
	return nil
}

func (a *Analyzer) following(b *ir.BasicBlock) *ir.BasicBlock {
	for i, cand := range a.blocks {
		if cand == b && i+1 < len(a.blocks) {
			return a.blocks[i+1]
		}
	}
	return nil
}

func (a *Analyzer) transfer(b *ir.BasicBlock, st State) {
	for _, s := range b.Statements() {
		switch s := s.(type) {
		case *ir.Assignment:
			v := a.eval(s.Right, st)
			a.store(s.Left, v, st)
		case *ir.Call:
			a.eval(s.Target, st)
			a.call(s, st)
		case *ir.Jump:
			if s.Condition != nil {
				a.eval(s.Condition, st)
			}
			a.eval(s.Then, st)
			if s.Else != nil {
				a.eval(s.Else, st)
			}
		}
	}
}

func (a *Analyzer) store(left ir.Term, v Value, st State) {
	if v.Kind == Const && v.Constant.Size != left.Size() {
		v = ConstValue(left.Size(), v.Constant.Value)
	}
	a.df.SetValue(left, v)

	switch l := left.(type) {
	case *ir.MemoryLocationAccess:
		st.Write(l.Location, v)
	case *ir.Dereference:
		if loc, ok := a.address(l, st); ok {
			st.Write(loc, v)
			return
		}
		// Unknown address: any memory may have changed.
		st.KillDomains(func(d ir.Domain) bool {
			return d == ir.DomainMemory || d == ir.DomainStack
		})
	}
}

func (a *Analyzer) call(c *ir.Call, st State) {
	hook := a.hooks.CallHook(c)
	if hook == nil {
		st.KillDomains(func(d ir.Domain) bool {
			return d == ir.DomainMemory || (d >= ir.DomainFirstRegister && d != a.sp.Domain)
		})
		return
	}

	for _, loc := range hook.Clobbered {
		st.Kill(loc)
	}
	if hook.StackAdjustment != 0 {
		if sp := st.Read(a.sp); sp.Kind == StackOffset {
			st.Write(a.sp, StackValue(sp.Offset+hook.StackAdjustment/8))
		}
	}
}

// address resolves a dereference to a concrete location when its address
// is a constant or a stack offset.
func (a *Analyzer) address(d *ir.Dereference, st State) (ir.MemoryLocation, bool) {
	addr := a.eval(d.Address, st)
	switch addr.Kind {
	case StackOffset:
		return ir.NewMemoryLocation(ir.DomainStack, addr.Offset*8, d.Bits), true
	case Const:
		return ir.NewMemoryLocation(d.Domain, int64(addr.Constant.Value)*8, d.Bits), true
	default:
		return ir.MemoryLocation{}, false
	}
}

func (a *Analyzer) eval(t ir.Term, st State) Value {
	var v Value
	switch t := t.(type) {
	case *ir.Constant:
		v = Value{Kind: Const, Constant: t.Value}
	case *ir.MemoryLocationAccess:
		v = st.Read(t.Location)
	case *ir.Dereference:
		if loc, ok := a.address(t, st); ok {
			v = st.Read(loc)
		}
	case *ir.UnaryOperator:
		v = evalUnary(t, a.eval(t.Operand, st))
	case *ir.BinaryOperator:
		v = evalBinary(t, a.eval(t.Left, st), a.eval(t.Right, st))
	}
	if t != nil {
		a.df.SetValue(t, v)
	}
	return v
}

func evalUnary(t *ir.UnaryOperator, x Value) Value {
	if x.Kind != Const {
		return UnknownValue()
	}
	switch t.Op {
	case ir.OpNot:
		return ConstValue(t.Bits, ^x.Constant.Value)
	case ir.OpNegate:
		return ConstValue(t.Bits, -x.Constant.Value)
	case ir.OpZeroExtend, ir.OpTruncate:
		return ConstValue(t.Bits, x.Constant.Value)
	case ir.OpSignExtend:
		return ConstValue(t.Bits, uint64(x.Constant.Signed()))
	default:
		return UnknownValue()
	}
}

func evalBinary(t *ir.BinaryOperator, l, r Value) Value {
	switch {
	case l.Kind == Const && r.Kind == Const:
		return foldConstants(t.Op, t.Bits, l.Constant, r.Constant)
	case t.Op == ir.OpAdd && l.Kind == StackOffset && r.Kind == Const:
		return StackValue(l.Offset + r.Constant.Signed())
	case t.Op == ir.OpAdd && l.Kind == Const && r.Kind == StackOffset:
		return StackValue(r.Offset + l.Constant.Signed())
	case t.Op == ir.OpSub && l.Kind == StackOffset && r.Kind == Const:
		return StackValue(l.Offset - r.Constant.Signed())
	case t.Op == ir.OpSub && l.Kind == StackOffset && r.Kind == StackOffset:
		return ConstValue(t.Bits, uint64(l.Offset-r.Offset))
	default:
		return UnknownValue()
	}
}

func foldConstants(op ir.BinaryOp, bits int64, l, r ir.SizedValue) Value {
	x, y := l.Value, r.Value
	switch op {
	case ir.OpAdd:
		return ConstValue(bits, x+y)
	case ir.OpSub:
		return ConstValue(bits, x-y)
	case ir.OpMul:
		return ConstValue(bits, x*y)
	case ir.OpAnd:
		return ConstValue(bits, x&y)
	case ir.OpOr:
		return ConstValue(bits, x|y)
	case ir.OpXor:
		return ConstValue(bits, x^y)
	case ir.OpShl:
		if y >= 64 {
			return ConstValue(bits, 0)
		}
		return ConstValue(bits, x<<y)
	case ir.OpShr:
		if y >= 64 {
			return ConstValue(bits, 0)
		}
		return ConstValue(bits, x>>y)
	case ir.OpSar:
		if y >= 64 {
			y = 63
		}
		return ConstValue(bits, uint64(l.Signed()>>y))
	case ir.OpEqual:
		return ConstValue(bits, boolBit(x == y))
	case ir.OpLess:
		return ConstValue(bits, boolBit(x < y))
	default:
		return UnknownValue()
	}
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
