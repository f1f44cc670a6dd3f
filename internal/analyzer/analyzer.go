package analyzer

import (
	"context"
	"fmt"

	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/ir"
)

// MasterAnalyzer is the per-family analysis strategy.
type MasterAnalyzer interface {
	// PatchProgram patches the run's program in place. It is not
	// idempotent: callers invoke it once per program.
	PatchProgram(ctx context.Context, rc *core.Context) (PatchReport, error)

	// DetectCallingConvention binds a convention to callee in the run's
	// registry and reports what was decided.
	DetectCallingConvention(rc *core.Context, callee ir.CalleeID) Detection

	// AnalyzeDataflow computes a fresh dataflow result for fn and stores it,
	// replacing any previous result, even when cancelled.
	AnalyzeDataflow(ctx context.Context, rc *core.Context, fn *ir.Function) error
}

// PatchReport summarizes one PatchProgram call.
type PatchReport struct {
	BlocksScanned int `json:"blocks_scanned"`
	BlocksPatched int `json:"blocks_patched"`
	Synthesized   int `json:"synthesized"`
}

// DetectionStatus records which rule decided a detection.
type DetectionStatus int

const (
	// DetectionUndetermined means no rule applies; nothing was bound.
	DetectionUndetermined DetectionStatus = iota

	// DetectionDecoratedStdcall means a 32-bit symbol carried a numeric
	// "@N" suffix.
	DetectionDecoratedStdcall

	// DetectionBitnessDefault means the convention was chosen from
	// bitness alone.
	DetectionBitnessDefault
)

func (s DetectionStatus) String() string {
	switch s {
	case DetectionDecoratedStdcall:
		return "decorated_stdcall"
	case DetectionBitnessDefault:
		return "bitness_default"
	default:
		return "undetermined"
	}
}

// Detection is the outcome of one DetectCallingConvention call.
type Detection struct {
	Callee ir.CalleeID
	Status DetectionStatus

	// Convention is the bound convention name, empty when undetermined.
	Convention string

	// ArgumentsSize is the stack arguments byte size parsed from the
	// symbol. Valid only when HasArgumentsSize is set.
	ArgumentsSize    int64
	HasArgumentsSize bool
}

// Determined reports whether a convention was bound.
func (d Detection) Determined() bool {
	return d.Status != DetectionUndetermined
}

// Placement selects where synthesized statements go within a block.
type Placement int

const (
	// PlacementAppend puts every synthesized statement of a block after the
	// block's full original sequence.
	PlacementAppend Placement = iota

	// PlacementAnchored puts each synthesized statement directly after the
	// statement that triggered it.
	PlacementAnchored
)

func (p Placement) String() string {
	if p == PlacementAnchored {
		return "anchored"
	}
	return "append"
}

// ParsePlacement parses "append" or "anchored".
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "append":
		return PlacementAppend, nil
	case "anchored":
		return PlacementAnchored, nil
	default:
		return 0, fmt.Errorf("unknown placement %q (want append or anchored)", s)
	}
}
