package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/archpass/internal/ir"
	"github.com/roach88/archpass/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the committed bindings to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Bindings []store.Binding // Committed bindings for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Bindings) > 0 {
		fmt.Fprintf(&buf, "\nBindings:\n")
		for i, b := range e.Bindings {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, formatBinding(b))
		}
	}

	return buf.String()
}

func formatBinding(b store.Binding) string {
	s := fmt.Sprintf("%s %s", b.Callee, b.Status)
	if b.Convention != "" {
		s += " " + b.Convention
	}
	if b.ArgumentsSize != nil {
		s += fmt.Sprintf(" args=%d", *b.ArgumentsSize)
	}
	return s
}

func assertPatch(r *Result, a Assertion) error {
	if a.Synthesized != nil && *a.Synthesized != r.Patch.Synthesized {
		return &AssertionError{
			Type:     AssertPatch,
			Expected: fmt.Sprintf("%d synthesized statements", *a.Synthesized),
			Actual:   fmt.Sprintf("%d synthesized statements", r.Patch.Synthesized),
		}
	}
	if a.BlocksPatched != nil && *a.BlocksPatched != r.Patch.BlocksPatched {
		return &AssertionError{
			Type:     AssertPatch,
			Expected: fmt.Sprintf("%d blocks patched", *a.BlocksPatched),
			Actual:   fmt.Sprintf("%d blocks patched", r.Patch.BlocksPatched),
		}
	}
	return nil
}

// assertBinding checks the binding committed for a callee. Status and
// ArgumentsSize are only compared when the assertion sets them.
func assertBinding(r *Result, a Assertion) error {
	for _, b := range r.Bindings {
		if b.Callee != a.Callee {
			continue
		}
		matched := b.Convention == a.Convention &&
			(a.Status == "" || b.Status == a.Status) &&
			(a.ArgumentsSize == nil || reflect.DeepEqual(b.ArgumentsSize, a.ArgumentsSize))
		if matched {
			return nil
		}
		return &AssertionError{
			Type:     AssertBinding,
			Expected: formatBinding(store.Binding{Callee: a.Callee, Status: a.Status, Convention: a.Convention, ArgumentsSize: a.ArgumentsSize}),
			Actual:   formatBinding(b),
			Bindings: r.Bindings,
		}
	}

	return &AssertionError{
		Type:     AssertBinding,
		Expected: fmt.Sprintf("binding for %s", a.Callee),
		Actual:   "callee never detected",
		Bindings: r.Bindings,
	}
}

func assertBindingCount(r *Result, a Assertion) error {
	if len(r.Bindings) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertBindingCount,
		Expected: fmt.Sprintf("%d bindings", a.Count),
		Actual:   fmt.Sprintf("%d bindings", len(r.Bindings)),
		Bindings: r.Bindings,
	}
}

func assertDataflow(r *Result, a Assertion) error {
	for _, d := range r.Dataflows {
		if d.Function != a.Function {
			continue
		}
		if a.Complete != nil && d.Complete != *a.Complete {
			return &AssertionError{
				Type:     AssertDataflow,
				Expected: fmt.Sprintf("%s complete=%t", a.Function, *a.Complete),
				Actual:   fmt.Sprintf("%s complete=%t", d.Function, d.Complete),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertDataflow,
		Expected: fmt.Sprintf("dataflow stored for %s", a.Function),
		Actual:   "no dataflow stored",
	}
}

// assertValue checks a register's value on exit from a block.
func assertValue(r *Result, a Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s = %s on exit from 0x%x in %s", a.Register, a.Value, *a.Block, a.Function),
			Actual:   actual,
		}
	}

	if r.Context == nil {
		return fail("no run context")
	}
	var fn *ir.Function
	for _, f := range r.Context.Program().Functions() {
		if f.Name == a.Function {
			fn = f
			break
		}
	}
	if fn == nil {
		return fail(fmt.Sprintf("no function %q", a.Function))
	}
	df := r.Context.Dataflow(fn)
	if df == nil {
		return fail("no dataflow stored")
	}
	block := r.Context.Program().BasicBlockAt(*a.Block)
	if block == nil {
		return fail("no such block")
	}
	exit, ok := df.ExitState(block)
	if !ok {
		return fail("block never reached")
	}
	reg := r.Context.Module().Architecture().Registers().ByName(a.Register)
	if reg == nil {
		return fail(fmt.Sprintf("unknown register %q", a.Register))
	}

	if got := exit.Read(reg.Location).String(); got != a.Value {
		return fail(fmt.Sprintf("%s = %s", a.Register, got))
	}
	return nil
}

func assertStatements(r *Result, a Assertion) error {
	key := fmt.Sprintf("0x%x", *a.Block)
	got, ok := r.Statements[key]
	if !ok {
		return &AssertionError{
			Type:     AssertStatements,
			Expected: fmt.Sprintf("block %s", key),
			Actual:   "no such block",
		}
	}
	want := a.Statements
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		return &AssertionError{
			Type:     AssertStatements,
			Expected: fmt.Sprintf("%s: %q", key, want),
			Actual:   fmt.Sprintf("%s: %q", key, got),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertPatch:
			err = assertPatch(result, assertion)
		case AssertBinding:
			err = assertBinding(result, assertion)
		case AssertBindingCount:
			err = assertBindingCount(result, assertion)
		case AssertDataflow:
			err = assertDataflow(result, assertion)
		case AssertValue:
			if assertion.Block == nil {
				err = fmt.Errorf("assertion[%d]: value requires block", i)
			} else {
				err = assertValue(result, assertion)
			}
		case AssertStatements:
			if assertion.Block == nil {
				err = fmt.Errorf("assertion[%d]: statements requires block", i)
			} else {
				err = assertStatements(result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
