package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/compiler"
	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/ir"
)

// Load reads the program file at path. A nil catalog selects the built-in
// one.
func Load(path string, cat *compiler.Catalog) (*core.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	return Parse(path, data, cat)
}

// Parse builds a run context from program file contents. source names the
// data in error messages and may be empty.
func Parse(source string, data []byte, cat *compiler.Catalog) (*core.Context, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: source, Message: "empty program file"}
		}
		return nil, &LoadError{Source: source, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}

	if f.Architecture == "" {
		return nil, &LoadError{Source: source, Message: "architecture is required"}
	}
	if len(f.Functions) == 0 {
		return nil, &LoadError{Source: source, Message: "functions list is required and must be non-empty"}
	}

	if cat == nil {
		var err error
		if cat, err = arch.LoadCatalog(""); err != nil {
			return nil, err
		}
	}
	a, err := arch.New(f.Architecture, cat)
	if err != nil {
		return nil, err
	}

	module := core.NewModule(a)
	for i, sym := range f.Symbols {
		if sym.Name == "" {
			return nil, &LoadError{Source: source, Message: fmt.Sprintf("symbols[%d]: name is required", i)}
		}
		module.AddSymbol(sym.Address, sym.Name)
	}

	b := &builder{source: source, arch: a}
	program := ir.NewProgram()
	for i, fd := range f.Functions {
		fn, err := b.function(i, fd, program)
		if err != nil {
			return nil, err
		}
		program.AddFunction(fn)
	}

	slog.Debug("program loaded",
		"source", source,
		"architecture", a.Name(),
		"functions", len(program.Functions()),
		"blocks", len(program.BasicBlocks()),
		"statements", program.StatementCount())

	return core.NewContext(module, program), nil
}

// builder turns decoded definitions into IR for one architecture.
type builder struct {
	source string
	arch   *arch.Architecture
}

func (b *builder) errorf(n *yaml.Node, format string, args ...any) error {
	le := &LoadError{Source: b.source, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		le.Line = n.Line
	}
	return le
}

func (b *builder) function(index int, fd Function, program *ir.Program) (*ir.Function, error) {
	if fd.Name == "" {
		return nil, b.errorf(nil, "functions[%d]: name is required", index)
	}
	if len(fd.Blocks) == 0 {
		return nil, b.errorf(nil, "function %s: blocks list is required and must be non-empty", fd.Name)
	}

	entry := fd.Blocks[0].Address
	if fd.Entry != nil {
		entry = *fd.Entry
	}

	fn := ir.NewFunction(fd.Name, entry)
	for _, bd := range fd.Blocks {
		block := ir.NewBasicBlock(bd.Address)
		for i := range bd.Statements {
			s, err := b.statement(&bd.Statements[i], bd.Address+uint64(i))
			if err != nil {
				return nil, err
			}
			block.Append(s)
		}
		if err := program.AddBasicBlock(block); err != nil {
			return nil, b.errorf(nil, "function %s: %v", fd.Name, err)
		}
		fn.AddBasicBlock(block)
	}

	if fn.EntryBlock() == nil {
		return nil, b.errorf(nil, "function %s: entry 0x%x is not a block address", fd.Name, entry)
	}
	return fn, nil
}

// statement parses one statement. site is the call address used when a
// call has no explicit "at".
func (b *builder) statement(n *yaml.Node, site uint64) (ir.Statement, error) {
	if n.Kind == yaml.ScalarNode && n.Value == "return" {
		return ir.NewReturn(), nil
	}

	fields, err := b.fields(n, "statement")
	if err != nil {
		return nil, err
	}

	var kind string
	for _, k := range []string{"assign", "call", "jump", "return"} {
		if _, ok := fields[k]; !ok {
			continue
		}
		if kind != "" {
			return nil, b.errorf(n, "statement has both %q and %q", kind, k)
		}
		kind = k
	}
	for k := range fields {
		switch k {
		case "assign", "call", "jump", "return":
		case "at":
			if kind != "call" {
				return nil, b.errorf(fields[k], "\"at\" is only valid on calls")
			}
		default:
			return nil, b.errorf(fields[k], "unknown statement field %q", k)
		}
	}

	value := fields[kind]
	switch kind {
	case "assign":
		return b.assignment(value)
	case "call":
		if at, ok := fields["at"]; ok {
			if site, err = b.address(at); err != nil {
				return nil, err
			}
		}
		target, err := b.operand(value, int64(b.arch.Bitness()))
		if err != nil {
			return nil, err
		}
		return ir.NewCall(target, site), nil
	case "jump":
		return b.jump(value)
	case "return":
		return ir.NewReturn(), nil
	default:
		return nil, b.errorf(n, "statement must be one of assign, call, jump, return")
	}
}

func (b *builder) assignment(n *yaml.Node) (ir.Statement, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return nil, b.errorf(n, "assign takes [left, right]")
	}
	left, err := b.operand(n.Content[0], int64(b.arch.Bitness()))
	if err != nil {
		return nil, err
	}
	switch left.(type) {
	case *ir.MemoryLocationAccess, *ir.Dereference:
	default:
		return nil, b.errorf(n.Content[0], "left side of assign must be a register or memory access")
	}
	right, err := b.operand(n.Content[1], left.Size())
	if err != nil {
		return nil, err
	}
	return ir.NewAssignment(left, right), nil
}

func (b *builder) jump(n *yaml.Node) (ir.Statement, error) {
	width := int64(b.arch.Bitness())
	if n.Kind == yaml.MappingNode {
		if fields, err := b.fields(n, "jump"); err == nil {
			if cond, ok := fields["if"]; ok {
				for k := range fields {
					if k != "if" && k != "then" && k != "else" {
						return nil, b.errorf(fields[k], "unknown jump field %q", k)
					}
				}
				if fields["then"] == nil {
					return nil, b.errorf(n, "conditional jump requires \"then\"")
				}
				c, err := b.operand(cond, 1)
				if err != nil {
					return nil, err
				}
				then, err := b.operand(fields["then"], width)
				if err != nil {
					return nil, err
				}
				var els ir.Term
				if fields["else"] != nil {
					if els, err = b.operand(fields["else"], width); err != nil {
						return nil, err
					}
				}
				return ir.NewConditionalJump(c, then, els), nil
			}
		}
	}
	target, err := b.operand(n, width)
	if err != nil {
		return nil, err
	}
	return ir.NewJump(target), nil
}

// fields indexes a mapping node by key.
func (b *builder) fields(n *yaml.Node, what string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, b.errorf(n, "%s must be a mapping", what)
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if _, dup := out[key]; dup {
			return nil, b.errorf(n.Content[i], "duplicate key %q", key)
		}
		out[key] = n.Content[i+1]
	}
	return out, nil
}

func (b *builder) address(n *yaml.Node) (uint64, error) {
	var addr uint64
	if n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		return 0, b.errorf(n, "address must be an integer")
	}
	if err := n.Decode(&addr); err != nil {
		return 0, b.errorf(n, "invalid address %q: %v", n.Value, err)
	}
	return addr, nil
}
