package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoArchCatalog = `
architecture: {
	"i386": {
		family:  "intel"
		bitness: 32
		conventions: ["cdecl32", "stdcall32"]
	}
	"x86-64": {
		family:  "intel"
		bitness: 64
		conventions: ["amd64"]
	}
}

convention: {
	cdecl32: {
		stack_pointer:         "esp"
		first_argument_offset: 4
		return_values: ["eax", "edx"]
		stack_alignment: 4
	}
	stdcall32: {
		stack_pointer:         "esp"
		first_argument_offset: 4
		return_values: ["eax", "edx"]
		callee_cleanup:  true
		stack_alignment: 4
	}
	amd64: {
		stack_pointer:         "rsp"
		first_argument_offset: 8
		arguments: ["rdi", "rsi", "rdx", "rcx", "r8", "r9"]
		return_values: ["rax", "rdx"]
		stack_alignment: 16
	}
}
`

// validationCodes collects the codes of every ValidationError in errs.
func validationCodes(errs []error) []string {
	var codes []string
	for _, err := range errs {
		var verr ValidationError
		if errors.As(err, &verr) {
			codes = append(codes, verr.Code)
		}
	}
	return codes
}

func TestCompileArchitectureBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(twoArchCatalog)
	require.NoError(t, v.Err())

	spec, err := CompileArchitecture(v.LookupPath(cue.ParsePath(`architecture."x86-64"`)))
	require.NoError(t, err)

	assert.Equal(t, "x86-64", spec.Name)
	assert.Equal(t, "intel", spec.Family)
	assert.Equal(t, 64, spec.Bitness)
	assert.Equal(t, []string{"amd64"}, spec.Conventions)
}

func TestCompileArchitectureMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"family", `architecture: a: { bitness: 32, conventions: ["c"] }`, "family"},
		{"bitness", `architecture: a: { family: "intel", conventions: ["c"] }`, "bitness"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := CompileArchitecture(v.LookupPath(cue.ParsePath("architecture.a")))
			require.Error(t, err)

			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestCompileCatalogDeclarationOrder(t *testing.T) {
	cat, errs := CompileCatalogSource("two.cue", []byte(twoArchCatalog))
	require.Empty(t, errs)
	require.NotNil(t, cat)

	require.Len(t, cat.Architectures, 2)
	assert.Equal(t, "i386", cat.Architectures[0].Name)
	assert.Equal(t, "x86-64", cat.Architectures[1].Name)

	require.Len(t, cat.Conventions, 3)
	assert.Equal(t, "cdecl32", cat.Conventions[0].Name)
	assert.Equal(t, "stdcall32", cat.Conventions[1].Name)
	assert.Equal(t, "amd64", cat.Conventions[2].Name)
}

func TestCatalogLookups(t *testing.T) {
	cat, errs := CompileCatalogSource("two.cue", []byte(twoArchCatalog))
	require.Empty(t, errs)

	a, ok := cat.Architecture("i386")
	require.True(t, ok)
	assert.Equal(t, 32, a.Bitness)

	_, ok = cat.Architecture("arm64")
	assert.False(t, ok)

	c, ok := cat.Convention("stdcall32")
	require.True(t, ok)
	assert.True(t, c.CalleeCleanup)

	_, ok = cat.Convention("pascal16")
	assert.False(t, ok)
}

func TestCompileCatalogUndefinedConvention(t *testing.T) {
	src := `
architecture: i8086: {
	family:  "intel"
	bitness: 16
	conventions: ["cdecl16", "pascal16"]
}
convention: cdecl16: {
	stack_pointer:         "sp"
	first_argument_offset: 2
	stack_alignment:       2
}
`
	cat, errs := CompileCatalogSource("undefined.cue", []byte(src))
	require.NotNil(t, cat)
	require.Len(t, errs, 1)

	var verr ValidationError
	require.ErrorAs(t, errs[0], &verr)
	assert.Equal(t, ErrUndefinedConvention, verr.Code)
	assert.Equal(t, "architecture.i8086.conventions[1]", verr.Field)
	assert.Contains(t, verr.Message, "pascal16")
}

func TestCompileCatalogCollectsAllErrors(t *testing.T) {
	src := `
architecture: broken: {
	family:  ""
	bitness: 12
	conventions: []
}
convention: odd: {
	stack_pointer:         "esp"
	first_argument_offset: -4
	stack_alignment:       3
}
`
	cat, errs := CompileCatalogSource("broken.cue", []byte(src))
	require.NotNil(t, cat)

	assert.ElementsMatch(t, []string{
		ErrConventionOffset,
		ErrConventionAlignment,
		ErrArchitectureBitness,
		ErrArchitectureFamily,
		ErrArchitectureNoConvents,
	}, validationCodes(errs))
}

func TestCompileCatalogMissingRequiredField(t *testing.T) {
	src := `
architecture: i386: {
	family:  "intel"
	bitness: 32
	conventions: ["cdecl32"]
}
convention: cdecl32: {
	first_argument_offset: 4
}
`
	_, errs := CompileCatalogSource("missing.cue", []byte(src))
	require.NotEmpty(t, errs)

	assert.Contains(t, errs[0].Error(), "convention.cdecl32")
	assert.Contains(t, errs[0].Error(), "stack_pointer")

	var cerr *CompileError
	require.ErrorAs(t, errs[0], &cerr)
	assert.Equal(t, "stack_pointer", cerr.Field)
}

func TestCompileCatalogEmpty(t *testing.T) {
	_, errs := CompileCatalogSource("empty.cue", []byte(`note: "nothing here"`))
	require.Len(t, errs, 1)

	var cerr *CompileError
	require.ErrorAs(t, errs[0], &cerr)
	assert.Equal(t, "catalog", cerr.Field)
	assert.Contains(t, cerr.Message, "no architectures or conventions")
}

func TestCompileCatalogSyntaxError(t *testing.T) {
	cat, errs := CompileCatalogSource("syntax.cue", []byte(`architecture: {`))
	assert.Nil(t, cat)
	require.Len(t, errs, 1)

	var cerr *CompileError
	require.ErrorAs(t, errs[0], &cerr)
	assert.Equal(t, "cue", cerr.Field)
	assert.True(t, cerr.Pos.IsValid())
	assert.Equal(t, "syntax.cue", cerr.Pos.Filename())
}
