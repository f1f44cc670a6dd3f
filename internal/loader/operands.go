package loader

import (
	"gopkg.in/yaml.v3"

	"github.com/roach88/archpass/internal/ir"
)

// operand parses a term. Integers without an explicit size take hint bits.
func (b *builder) operand(n *yaml.Node, hint int64) (ir.Term, error) {
	if hint <= 0 {
		hint = int64(b.arch.Bitness())
	}

	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!int":
			v, err := b.integer(n)
			if err != nil {
				return nil, err
			}
			return ir.NewConstant(hint, v), nil
		case "!!str":
			reg := b.arch.Registers().ByName(n.Value)
			if reg == nil {
				return nil, b.errorf(n, "unknown register %q for %s", n.Value, b.arch.Name())
			}
			return ir.NewAccess(reg.Location), nil
		default:
			return nil, b.errorf(n, "operand must be a register name, an integer or a mapping")
		}
	case yaml.MappingNode:
		return b.compound(n, hint)
	default:
		return nil, b.errorf(n, "operand must be a register name, an integer or a mapping")
	}
}

// compound parses the mapping forms: const, deref and op.
func (b *builder) compound(n *yaml.Node, hint int64) (ir.Term, error) {
	fields, err := b.fields(n, "operand")
	if err != nil {
		return nil, err
	}

	size := hint
	if sn, ok := fields["size"]; ok {
		var s int64
		if err := sn.Decode(&s); err != nil || s <= 0 {
			return nil, b.errorf(sn, "size must be a positive integer")
		}
		size = s
	}

	allowed := func(keys ...string) error {
		for k, v := range fields {
			ok := k == "size"
			for _, a := range keys {
				ok = ok || k == a
			}
			if !ok {
				return b.errorf(v, "unknown operand field %q", k)
			}
		}
		return nil
	}

	switch {
	case fields["const"] != nil:
		if err := allowed("const"); err != nil {
			return nil, err
		}
		v, err := b.integer(fields["const"])
		if err != nil {
			return nil, err
		}
		return ir.NewConstant(size, v), nil

	case fields["deref"] != nil:
		if err := allowed("deref", "domain"); err != nil {
			return nil, err
		}
		domain := ir.DomainMemory
		if dn, ok := fields["domain"]; ok {
			switch dn.Value {
			case "memory":
			case "stack":
				domain = ir.DomainStack
			default:
				return nil, b.errorf(dn, "domain must be memory or stack, got %q", dn.Value)
			}
		}
		addr, err := b.operand(fields["deref"], int64(b.arch.Bitness()))
		if err != nil {
			return nil, err
		}
		return ir.NewDereference(addr, domain, size), nil

	case fields["op"] != nil:
		if err := allowed("op", "args"); err != nil {
			return nil, err
		}
		return b.operator(fields["op"], fields["args"], size)

	default:
		return nil, b.errorf(n, "operand mapping needs one of const, deref, op")
	}
}

func (b *builder) operator(opNode, argsNode *yaml.Node, size int64) (ir.Term, error) {
	if argsNode == nil || argsNode.Kind != yaml.SequenceNode {
		return nil, b.errorf(opNode, "operator %q needs an args list", opNode.Value)
	}

	switch len(argsNode.Content) {
	case 1:
		op, ok := ir.ParseUnaryOp(opNode.Value)
		if !ok {
			return nil, b.errorf(opNode, "unknown unary operator %q", opNode.Value)
		}
		x, err := b.operand(argsNode.Content[0], size)
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(op, x, size), nil
	case 2:
		op, ok := ir.ParseBinaryOp(opNode.Value)
		if !ok {
			return nil, b.errorf(opNode, "unknown binary operator %q", opNode.Value)
		}
		// A sized left operand fixes the width of an unsized right one.
		left, err := b.operand(argsNode.Content[0], size)
		if err != nil {
			return nil, err
		}
		right, err := b.operand(argsNode.Content[1], left.Size())
		if err != nil {
			return nil, err
		}
		return ir.NewBinary(op, left, right, size), nil
	default:
		return nil, b.errorf(argsNode, "operator %q takes one or two args, got %d", opNode.Value, len(argsNode.Content))
	}
}

// integer decodes an integer scalar. Negative values wrap to two's
// complement.
func (b *builder) integer(n *yaml.Node) (uint64, error) {
	if n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		return 0, b.errorf(n, "expected an integer, got %q", n.Value)
	}
	var s int64
	if err := n.Decode(&s); err == nil {
		return uint64(s), nil
	}
	var u uint64
	if err := n.Decode(&u); err != nil {
		return 0, b.errorf(n, "invalid integer %q: %v", n.Value, err)
	}
	return u, nil
}
