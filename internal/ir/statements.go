package ir

import "fmt"

// Statement is a node in a basic block's ordered sequence.
type Statement interface {
	isStatement()
}

// Assignment writes Right to Left.
type Assignment struct {
	Left  Term
	Right Term
}

// NewAssignment returns left = right.
func NewAssignment(left, right Term) *Assignment {
	return &Assignment{Left: left, Right: right}
}

func (*Assignment) isStatement() {}

// Call transfers control to Target and returns. Addr is the address of the
// call instruction.
type Call struct {
	Target Term
	Addr   uint64
}

// NewCall returns a call to target issued at addr.
func NewCall(target Term, addr uint64) *Call {
	return &Call{Target: target, Addr: addr}
}

func (*Call) isStatement() {}

// Jump transfers control to Then, or to Else when Condition is zero.
// Condition and Else are nil for unconditional jumps.
type Jump struct {
	Condition Term
	Then      Term
	Else      Term
}

// NewJump returns an unconditional jump to target.
func NewJump(target Term) *Jump {
	return &Jump{Then: target}
}

// NewConditionalJump returns if (cond) goto then else goto els.
func NewConditionalJump(cond, then, els Term) *Jump {
	return &Jump{Condition: cond, Then: then, Else: els}
}

// IsConditional reports whether the jump has a condition.
func (j *Jump) IsConditional() bool {
	return j.Condition != nil
}

func (*Jump) isStatement() {}

// Return leaves the current function.
type Return struct{}

// NewReturn returns a return statement.
func NewReturn() *Return {
	return &Return{}
}

func (*Return) isStatement() {}

// FormatStatement renders s using n for register names. n may be nil.
func FormatStatement(s Statement, n Namer) string {
	switch s := s.(type) {
	case *Assignment:
		return fmt.Sprintf("%s = %s", FormatTerm(s.Left, n), FormatTerm(s.Right, n))
	case *Call:
		return fmt.Sprintf("call %s", FormatTerm(s.Target, n))
	case *Jump:
		if s.IsConditional() {
			if s.Else != nil {
				return fmt.Sprintf("if %s goto %s else %s",
					FormatTerm(s.Condition, n), FormatTerm(s.Then, n), FormatTerm(s.Else, n))
			}
			return fmt.Sprintf("if %s goto %s", FormatTerm(s.Condition, n), FormatTerm(s.Then, n))
		}
		return fmt.Sprintf("goto %s", FormatTerm(s.Then, n))
	case *Return:
		return "return"
	default:
		return fmt.Sprintf("<%T>", s)
	}
}
