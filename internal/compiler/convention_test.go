package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileConventionBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: fastcall32: {
			description:           "32-bit Microsoft fastcall"
			stack_pointer:         "esp"
			first_argument_offset: 4
			arguments: ["ecx", "edx"]
			return_values: ["eax", "edx"]
			callee_cleanup:  true
			stack_alignment: 4
		}
	`)

	require.NoError(t, v.Err())
	spec, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.fastcall32")))
	require.NoError(t, err)

	assert.Equal(t, "fastcall32", spec.Name)
	assert.Equal(t, "32-bit Microsoft fastcall", spec.Description)
	assert.Equal(t, "esp", spec.StackPointer)
	assert.Equal(t, int64(4), spec.FirstArgumentOffset)
	assert.Equal(t, []string{"ecx", "edx"}, spec.Arguments)
	assert.Equal(t, []string{"eax", "edx"}, spec.ReturnValues)
	assert.True(t, spec.CalleeCleanup)
	assert.Equal(t, int64(4), spec.StackAlignment)
}

func TestCompileConventionDefaults(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: bare: {
			stack_pointer:         "sp"
			first_argument_offset: 2
		}
	`)

	require.NoError(t, v.Err())
	spec, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.bare")))
	require.NoError(t, err)

	assert.Empty(t, spec.Description)
	assert.NotNil(t, spec.Arguments)
	assert.Empty(t, spec.Arguments)
	assert.NotNil(t, spec.ReturnValues)
	assert.Empty(t, spec.ReturnValues)
	assert.False(t, spec.CalleeCleanup)
	assert.Equal(t, int64(1), spec.StackAlignment, "alignment defaults to one byte")
}

func TestCompileConventionMissingStackPointer(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: bad: {
			first_argument_offset: 4
		}
	`)

	require.NoError(t, v.Err())
	_, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.bad")))

	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "stack_pointer", cerr.Field)
	assert.Contains(t, err.Error(), "required")
}

func TestCompileConventionMissingOffset(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: bad: {
			stack_pointer: "esp"
		}
	`)

	require.NoError(t, v.Err())
	_, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.bad")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "first_argument_offset")
}

func TestCompileConventionRejectsNonStringRegister(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: bad: {
			stack_pointer:         "esp"
			first_argument_offset: 4
			arguments: ["ecx", 7]
		}
	`)

	require.NoError(t, v.Err())
	_, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.bad")))

	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "arguments", cerr.Field)
	assert.Contains(t, cerr.Message, "register names")
}

func TestCompileConventionRejectsFloatOffset(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: bad: {
			stack_pointer:         "esp"
			first_argument_offset: 4.5
		}
	`)

	require.NoError(t, v.Err())
	_, err := CompileConvention(v.LookupPath(cue.ParsePath("convention.bad")))
	require.Error(t, err)
}

func TestCompileConventionQuotedLabel(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		convention: "ms-x64": {
			stack_pointer:         "rsp"
			first_argument_offset: 8
		}
	`)

	require.NoError(t, v.Err())
	spec, err := CompileConvention(v.LookupPath(cue.ParsePath(`convention."ms-x64"`)))
	require.NoError(t, err)
	assert.Equal(t, "ms-x64", spec.Name)
}
