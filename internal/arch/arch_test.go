package arch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archpass/internal/arch/catalog"
	"github.com/roach88/archpass/internal/compiler"
	"github.com/roach88/archpass/internal/ir"
)

func TestLookup_BuiltinArchitectures(t *testing.T) {
	tests := []struct {
		name        string
		bitness     int
		sp          string
		conventions []string
	}{
		{"i8086", 16, "sp", []string{"cdecl16"}},
		{"i386", 32, "esp", []string{"cdecl32", "stdcall32", "fastcall32"}},
		{"x86-64", 64, "rsp", []string{"amd64", "microsoft64"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Lookup(tt.name)
			require.NoError(t, err)

			assert.Equal(t, tt.name, a.Name())
			assert.Equal(t, FamilyIntel, a.Family())
			assert.Equal(t, tt.bitness, a.Bitness())
			assert.Equal(t, tt.sp, a.StackPointer().Name)
			assert.Equal(t, tt.conventions, a.ConventionNames())
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("pdp11")
	require.Error(t, err)

	var ue *UnknownArchitectureError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "pdp11", ue.Name)
}

func TestGeneralPurposeRange(t *testing.T) {
	a := MustLookup("x86-64")
	lo, hi := a.GeneralPurposeRange()

	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, "rax", lo.Name)
	assert.Equal(t, "r15", hi.Name)
	assert.Equal(t, ir.DomainFirstRegister, lo.Location.Domain)
	assert.Equal(t, lo.Location.Domain+15, hi.Location.Domain)

	// Every 64-bit GPR lies inside the range.
	for _, name := range intelGPRs {
		reg := a.Registers().ByName(name)
		require.NotNil(t, reg, name)
		assert.GreaterOrEqual(t, reg.Location.Domain, lo.Location.Domain, name)
		assert.LessOrEqual(t, reg.Location.Domain, hi.Location.Domain, name)
	}

	// Instruction pointer and flags lie outside.
	for _, name := range []string{"rip", "eflags"} {
		reg := a.Registers().ByName(name)
		require.NotNil(t, reg, name)
		assert.Greater(t, reg.Location.Domain, hi.Location.Domain, name)
	}
}

func TestRegisters_SubRegisterLayout(t *testing.T) {
	regs := MustLookup("x86-64").Registers()

	tests := []struct {
		name string
		base string
		addr int64
		size int64
	}{
		{"al", "rax", 0, 8},
		{"ah", "rax", 8, 8},
		{"ax", "rax", 0, 16},
		{"eax", "rax", 0, 32},
		{"sil", "rsi", 0, 8},
		{"esp", "rsp", 0, 32},
		{"r8b", "r8", 0, 8},
		{"r9w", "r9", 0, 16},
		{"r15d", "r15", 0, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := regs.ByName(tt.name)
			require.NotNil(t, reg)
			base := regs.ByName(tt.base)
			require.NotNil(t, base)

			assert.Equal(t, base.Location.Domain, reg.Location.Domain)
			assert.Equal(t, tt.addr, reg.Location.Addr)
			assert.Equal(t, tt.size, reg.Location.Size)
		})
	}
}

func TestCallingConvention_Resolved(t *testing.T) {
	a := MustLookup("i386")

	conv, err := a.CallingConvention("stdcall32")
	require.NoError(t, err)

	regs := a.Registers()
	assert.Equal(t, "stdcall32", conv.Name)
	assert.Equal(t, regs.ByName("esp").Location, conv.StackPointer)
	assert.Equal(t, int64(32), conv.FirstArgumentOffset, "offset is stored in bits")
	assert.True(t, conv.CalleeCleanup)
	assert.Equal(t, []ir.MemoryLocation{
		regs.ByName("eax").Location,
		regs.ByName("edx").Location,
	}, conv.ReturnValues)

	fast, err := a.CallingConvention("fastcall32")
	require.NoError(t, err)
	assert.Equal(t, []ir.MemoryLocation{
		regs.ByName("ecx").Location,
		regs.ByName("edx").Location,
	}, fast.Arguments)
}

func TestCallingConvention_SharedDescriptor(t *testing.T) {
	a := MustLookup("x86-64")

	first, err := a.CallingConvention("amd64")
	require.NoError(t, err)
	second, err := a.CallingConvention("amd64")
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated lookups return the same descriptor")
}

func TestCallingConvention_Unknown(t *testing.T) {
	a := MustLookup("x86-64")

	_, err := a.CallingConvention("stdcall32")
	require.Error(t, err)
	assert.True(t, IsUnknownConvention(err))
	assert.Contains(t, err.Error(), "x86-64")
	assert.Contains(t, err.Error(), "stdcall32")
}

func TestLocationName(t *testing.T) {
	a := MustLookup("x86-64")

	name, ok := a.LocationName(a.Registers().ByName("eax").Location)
	require.True(t, ok)
	assert.Equal(t, "eax", name)

	_, ok = a.LocationName(ir.NewMemoryLocation(ir.DomainMemory, 0x1000, 32))
	assert.False(t, ok)

	assign := ir.NewAssignment(
		ir.NewAccess(a.Registers().ByName("rax").Location),
		ir.NewConstant(64, 1),
	)
	assert.Equal(t, "rax = 0x1:64", ir.FormatStatement(assign, a))
}

func TestNew_UnknownRegister(t *testing.T) {
	cat, errs := compiler.CompileCatalogSource("bad.cue", []byte(`
convention: broken: {
	stack_pointer: "esp"
	first_argument_offset: 4
	return_values: ["xmm0"]
}
architecture: weird: {
	family: "intel"
	bitness: 32
	conventions: ["broken"]
}
`))
	require.Empty(t, errs)

	_, err := New("weird", cat)
	require.Error(t, err)

	var re *UnknownRegisterError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "broken", re.Convention)
	assert.Equal(t, "return_values", re.Field)
	assert.Equal(t, "xmm0", re.Name)
}

func TestNew_UnsupportedFamily(t *testing.T) {
	cat, errs := compiler.CompileCatalogSource("arm.cue", []byte(`
convention: aapcs: {
	stack_pointer: "sp"
	first_argument_offset: 0
}
architecture: arm: {
	family: "arm"
	bitness: 32
	conventions: ["aapcs"]
}
`))
	require.Empty(t, errs)

	_, err := New("arm", cat)
	var ue *UnknownArchitectureError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "arm", ue.Family)
}

func TestNames(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"i386", "i8086", "x86-64"}, Names(cat))
}

func TestLoadCatalog_DefaultWhenEmpty(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	def, err := catalog.Default()
	require.NoError(t, err)
	assert.Same(t, def, cat)
}
