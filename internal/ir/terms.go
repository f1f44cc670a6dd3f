package ir

import "fmt"

// Term is an expression appearing in a statement.
// Terms are used by pointer; two structurally equal terms are distinct
// dataflow nodes.
type Term interface {
	// Size returns the term's width in bits.
	Size() int64

	isTerm()
}

// MemoryLocationAccess reads or writes a statically known storage location.
type MemoryLocationAccess struct {
	Location MemoryLocation
}

// NewAccess returns an access to loc.
func NewAccess(loc MemoryLocation) *MemoryLocationAccess {
	return &MemoryLocationAccess{Location: loc}
}

func (t *MemoryLocationAccess) Size() int64 { return t.Location.Size }
func (*MemoryLocationAccess) isTerm()       {}

// Constant is a literal value.
type Constant struct {
	Value SizedValue
}

// NewConstant returns a constant of size bits.
func NewConstant(size int64, value uint64) *Constant {
	return &Constant{Value: NewSizedValue(size, value)}
}

func (t *Constant) Size() int64 { return t.Value.Size }
func (*Constant) isTerm()       {}

// Dereference accesses memory in Domain at a computed address.
type Dereference struct {
	Address Term
	Domain  Domain
	Bits    int64
}

// NewDereference returns a size-bit access to domain at address.
func NewDereference(address Term, domain Domain, size int64) *Dereference {
	return &Dereference{Address: address, Domain: domain, Bits: size}
}

func (t *Dereference) Size() int64 { return t.Bits }
func (*Dereference) isTerm()       {}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota + 1
	OpNegate
	OpZeroExtend
	OpSignExtend
	OpTruncate
)

var unaryNames = map[UnaryOp]string{
	OpNot:        "not",
	OpNegate:     "neg",
	OpZeroExtend: "zext",
	OpSignExtend: "sext",
	OpTruncate:   "trunc",
}

func (op UnaryOp) String() string {
	if name, ok := unaryNames[op]; ok {
		return name
	}
	return fmt.Sprintf("unary(%d)", int(op))
}

// UnaryOperator applies Op to Operand producing a Bits-wide result.
type UnaryOperator struct {
	Op      UnaryOp
	Operand Term
	Bits    int64
}

// NewUnary returns op(operand) with the given result size.
func NewUnary(op UnaryOp, operand Term, size int64) *UnaryOperator {
	return &UnaryOperator{Op: op, Operand: operand, Bits: size}
}

func (t *UnaryOperator) Size() int64 { return t.Bits }
func (*UnaryOperator) isTerm()       {}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpSar
	OpEqual
	OpLess
)

var binaryNames = map[BinaryOp]string{
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpAnd:   "&",
	OpOr:    "|",
	OpXor:   "^",
	OpShl:   "<<",
	OpShr:   ">>",
	OpSar:   ">>>",
	OpEqual: "==",
	OpLess:  "<",
}

// ParseBinaryOp resolves an operator by its mnemonic (add, sub, ...).
func ParseBinaryOp(name string) (BinaryOp, bool) {
	op, ok := binaryMnemonics[name]
	return op, ok
}

// ParseUnaryOp resolves a unary operator by its mnemonic (not, zext, ...).
func ParseUnaryOp(name string) (UnaryOp, bool) {
	for op, n := range unaryNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

var binaryMnemonics = map[string]BinaryOp{
	"add": OpAdd,
	"sub": OpSub,
	"mul": OpMul,
	"and": OpAnd,
	"or":  OpOr,
	"xor": OpXor,
	"shl": OpShl,
	"shr": OpShr,
	"sar": OpSar,
	"eq":  OpEqual,
	"lt":  OpLess,
}

func (op BinaryOp) String() string {
	if name, ok := binaryNames[op]; ok {
		return name
	}
	return fmt.Sprintf("binary(%d)", int(op))
}

// BinaryOperator combines Left and Right producing a Bits-wide result.
type BinaryOperator struct {
	Op    BinaryOp
	Left  Term
	Right Term
	Bits  int64
}

// NewBinary returns (left op right) with the given result size.
func NewBinary(op BinaryOp, left, right Term, size int64) *BinaryOperator {
	return &BinaryOperator{Op: op, Left: left, Right: right, Bits: size}
}

func (t *BinaryOperator) Size() int64 { return t.Bits }
func (*BinaryOperator) isTerm()       {}

// FormatTerm renders t using n for register names. n may be nil.
func FormatTerm(t Term, n Namer) string {
	switch t := t.(type) {
	case nil:
		return "<nil>"
	case *MemoryLocationAccess:
		return nameOf(t.Location, n)
	case *Constant:
		return t.Value.String()
	case *Dereference:
		return fmt.Sprintf("[%s]:%d", FormatTerm(t.Address, n), t.Bits)
	case *UnaryOperator:
		return fmt.Sprintf("%s(%s):%d", t.Op, FormatTerm(t.Operand, n), t.Bits)
	case *BinaryOperator:
		return fmt.Sprintf("(%s %s %s)", FormatTerm(t.Left, n), t.Op, FormatTerm(t.Right, n))
	default:
		return fmt.Sprintf("<%T>", t)
	}
}
