package analyzer

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/calling"
	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/ir"
)

// Convention names the Intel strategy binds.
const (
	ConventionCdecl16   = "cdecl16"
	ConventionCdecl32   = "cdecl32"
	ConventionStdcall32 = "stdcall32"
	ConventionAMD64     = "amd64"
)

// decorationChar separates a 32-bit stdcall symbol from its stack
// arguments byte size, as in "_foo@12".
const decorationChar = "@"

// Intel is the strategy for the x86 family.
type Intel struct {
	*Generic

	arch      *arch.Architecture
	placement Placement

	stdcall32 *calling.Convention
	defaults  map[int]*calling.Convention
}

// NewIntel builds the x86 strategy for a. Every convention it may bind for
// a's bitness must be registered, otherwise a *ConfigError is returned.
func NewIntel(a *arch.Architecture, opts ...Option) (*Intel, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	x := &Intel{
		Generic:   &Generic{ids: o.ids},
		arch:      a,
		placement: o.placement,
		defaults:  make(map[int]*calling.Convention),
	}

	var defaultName string
	switch a.Bitness() {
	case 16:
		defaultName = ConventionCdecl16
	case 32:
		defaultName = ConventionCdecl32
	case 64:
		defaultName = ConventionAMD64
	}

	if defaultName != "" {
		conv, err := a.CallingConvention(defaultName)
		if err != nil {
			return nil, missingConvention(a, err)
		}
		x.defaults[a.Bitness()] = conv
	}

	if a.Bitness() == 32 {
		conv, err := a.CallingConvention(ConventionStdcall32)
		if err != nil {
			return nil, missingConvention(a, err)
		}
		x.stdcall32 = conv
	}

	return x, nil
}

// Architecture returns the architecture the strategy was built for.
func (x *Intel) Architecture() *arch.Architecture { return x.arch }

// PatchProgram makes the x86-64 zero extension of 32-bit GPR writes
// explicit: for every assignment to the low 32 bits of a general-purpose
// register, a second assignment writes zero to the upper 32 bits.
//
// Non-64-bit architectures are left untouched. Cancellation is checked once
// per block; blocks patched before it keep their statements.
func (x *Intel) PatchProgram(ctx context.Context, rc *core.Context) (PatchReport, error) {
	var report PatchReport
	if x.arch.Bitness() != 64 {
		return report, nil
	}

	lo, hi := x.arch.GeneralPurposeRange()
	minDomain, maxDomain := lo.Location.Domain, hi.Location.Domain

	for _, b := range rc.Program().BasicBlocks() {
		if err := ctx.Err(); err != nil {
			slog.Warn("patch cancelled",
				"blocks_scanned", report.BlocksScanned,
				"blocks_patched", report.BlocksPatched)
			return report, err
		}
		report.BlocksScanned++

		var patches []ir.Patch
		for _, s := range b.Statements() {
			assign, ok := s.(*ir.Assignment)
			if !ok {
				continue
			}
			access, ok := assign.Left.(*ir.MemoryLocationAccess)
			if !ok {
				continue
			}
			loc := access.Location
			if loc.Domain < minDomain || loc.Domain > maxDomain || loc.Addr != 0 || loc.Size != 32 {
				continue
			}
			patches = append(patches, ir.Patch{
				After:     s,
				Statement: ir.NewAssignment(ir.NewAccess(loc.Shifted(32)), ir.NewConstant(32, 0)),
			})
		}

		if len(patches) == 0 {
			continue
		}

		switch x.placement {
		case PlacementAnchored:
			b.AddStatements(patches)
		default:
			stmts := make([]ir.Statement, len(patches))
			for i, p := range patches {
				stmts[i] = p.Statement
			}
			b.AppendStatements(stmts)
		}

		report.BlocksPatched++
		report.Synthesized += len(patches)
		slog.Debug("block patched",
			"block", formatAddr(b.Address()),
			"synthesized", len(patches))
	}

	return report, nil
}

// DetectCallingConvention binds a convention to callee.
//
// On 32-bit architectures a callee whose symbol ends in "@N", N a decimal
// byte count, is bound to stdcall32 with N recorded as its stack arguments
// size. Otherwise the bitness default is bound. Bitness without a default
// binds nothing and leaves any earlier binding in place.
func (x *Intel) DetectCallingConvention(rc *core.Context, callee ir.CalleeID) Detection {
	d := Detection{Callee: callee}
	registry := rc.Conventions()

	if x.arch.Bitness() == 32 {
		if addr, ok := callee.EntryAddress(); ok {
			if name, ok := rc.Module().Name(addr); ok {
				if size, ok := decoratedArgumentsSize(name); ok {
					registry.SetConvention(callee, x.stdcall32)
					registry.SetArgumentsSize(callee, size)

					d.Status = DetectionDecoratedStdcall
					d.Convention = x.stdcall32.Name
					d.ArgumentsSize = size
					d.HasArgumentsSize = true
					slog.Debug("convention detected",
						"callee", callee.String(),
						"symbol", name,
						"convention", d.Convention,
						"arguments_size", size)
					return d
				}
			}
		}
	}

	conv, ok := x.defaults[x.arch.Bitness()]
	if !ok {
		slog.Debug("convention undetermined",
			"callee", callee.String(),
			"bitness", x.arch.Bitness())
		return d
	}

	registry.SetConvention(callee, conv)
	d.Status = DetectionBitnessDefault
	d.Convention = conv.Name
	slog.Debug("convention detected",
		"callee", callee.String(),
		"convention", d.Convention)
	return d
}

// decoratedArgumentsSize parses the decimal suffix after the last '@' of
// a decorated symbol name.
func decoratedArgumentsSize(name string) (int64, bool) {
	i := strings.LastIndex(name, decorationChar)
	if i < 0 {
		return 0, false
	}
	size, err := strconv.ParseUint(name[i+1:], 10, 63)
	if err != nil {
		return 0, false
	}
	return int64(size), true
}

func formatAddr(addr uint64) string {
	return "0x" + strconv.FormatUint(addr, 16)
}
