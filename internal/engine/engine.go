package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/archpass/internal/analyzer"
	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/dflow"
	"github.com/roach88/archpass/internal/ir"
	"github.com/roach88/archpass/internal/store"
)

// RunIDGenerator generates unique run identities.
// Implemented by dflow.UUIDv7Generator (production) and
// dflow.SequenceGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// Recorder receives every committed result of a run.
// *store.Store implements it.
type Recorder interface {
	WriteRun(ctx context.Context, run store.Run) error
	WritePatch(ctx context.Context, p store.PatchSummary) error
	WriteBinding(ctx context.Context, b store.Binding) error
	WriteDataflow(ctx context.Context, d store.DataflowSummary) error
	WriteSnapshot(ctx context.Context, runID, digest string, snapshot map[string]any) error
	CompleteRun(ctx context.Context, runID, status string) error
}

// Sequencer hands out strictly increasing seq values.
// Implemented by *Clock and testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
}

// Engine drives the three analysis phases over a run.
type Engine struct {
	analyzer  analyzer.MasterAnalyzer
	clock     Sequencer
	recorder  Recorder
	runIDs    RunIDGenerator
	placement string
	source    string
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithRecorder forwards committed results to r.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithClock sets the run's logical clock.
func WithClock(c Sequencer) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRunIDGenerator sets the generator for run identities.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithPlacement records the patch placement the analyzer was built with.
// It is informational: placement itself is an analyzer option.
func WithPlacement(p analyzer.Placement) EngineOption {
	return func(e *Engine) {
		e.placement = p.String()
	}
}

// WithSource records where the program was loaded from.
func WithSource(source string) EngineOption {
	return func(e *Engine) {
		e.source = source
	}
}

// New creates an engine driving m.
func New(m analyzer.MasterAnalyzer, opts ...EngineOption) *Engine {
	e := &Engine{
		analyzer:  m,
		clock:     NewClock(),
		runIDs:    dflow.UUIDv7Generator{},
		placement: analyzer.PlacementAppend.String(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report is everything a run committed.
type Report struct {
	Run       store.Run               `json:"run"`
	Patch     store.PatchSummary      `json:"patch"`
	Bindings  []store.Binding         `json:"bindings"`
	Dataflows []store.DataflowSummary `json:"dataflows"`

	// PatchedDigest is the program digest after patching.
	PatchedDigest string `json:"patched_digest"`
}

// Run drives one run over rc. On cancellation it returns the partial
// report together with the context error.
func (e *Engine) Run(ctx context.Context, rc *core.Context) (*Report, error) {
	runID := e.runIDs.Generate()

	if err := e.checkArchitecture(rc, runID); err != nil {
		return nil, err
	}

	digest, err := ir.ProgramDigest(rc.Program())
	if err != nil {
		return nil, &RuntimeError{Code: ErrCodeInvalidProgram, Message: "digest program", RunID: runID, Err: err}
	}

	report := &Report{
		Run: store.Run{
			ID:              runID,
			Architecture:    rc.Module().Architecture().Name(),
			ProgramDigest:   digest,
			Placement:       e.placement,
			Status:          store.StatusRunning,
			AnalyzerVersion: ir.AnalyzerVersion,
			IRVersion:       ir.IRVersion,
			Source:          e.source,
		},
		Patch:     store.PatchSummary{RunID: runID},
		Bindings:  []store.Binding{},
		Dataflows: []store.DataflowSummary{},
	}

	// Records survive cancellation of the run itself.
	rctx := context.WithoutCancel(ctx)

	slog.Info("run starting",
		"run_id", runID,
		"architecture", report.Run.Architecture,
		"blocks", len(rc.Program().BasicBlocks()),
		"functions", len(rc.Program().Functions()))

	if err := e.record(runID, "run", func() error { return e.recorder.WriteRun(rctx, report.Run) }); err != nil {
		return nil, err
	}

	runErr := e.phases(ctx, rctx, rc, report)

	status := store.StatusCompleted
	switch {
	case runErr == nil:
	case IsCancelled(runErr):
		status = store.StatusCancelled
		slog.Warn("run cancelled", "run_id", runID, "error", runErr)
	default:
		status = store.StatusFailed
		slog.Error("run failed", "run_id", runID, "error", runErr)
	}
	report.Run.Status = status

	if err := e.record(runID, "status", func() error { return e.recorder.CompleteRun(rctx, runID, status) }); err != nil && runErr == nil {
		runErr = err
	}

	slog.Info("run finished",
		"run_id", runID,
		"status", status,
		"synthesized", report.Patch.Synthesized,
		"bindings", len(report.Bindings),
		"dataflows", len(report.Dataflows))

	return report, runErr
}

// phases runs patch, detection and dataflow in order.
func (e *Engine) phases(ctx, rctx context.Context, rc *core.Context, report *Report) error {
	runID := report.Run.ID

	// Phase 1: patch, exactly once.
	patch, patchErr := e.analyzer.PatchProgram(ctx, rc)
	report.Patch = store.PatchSummary{
		RunID:         runID,
		Seq:           e.clock.Next(),
		BlocksScanned: patch.BlocksScanned,
		BlocksPatched: patch.BlocksPatched,
		Synthesized:   patch.Synthesized,
	}
	if err := e.record(runID, "patch", func() error { return e.recorder.WritePatch(rctx, report.Patch) }); err != nil {
		return err
	}

	patched, err := ir.ProgramDigest(rc.Program())
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidProgram, Message: "digest patched program", RunID: runID, Err: err}
	}
	report.PatchedDigest = patched
	if err := e.record(runID, "snapshot", func() error {
		return e.recorder.WriteSnapshot(rctx, runID, patched, ir.Snapshot(rc.Program(), rc.Module().Architecture()))
	}); err != nil {
		return err
	}

	if patchErr != nil {
		return patchErr
	}

	// Phase 2: one detection per distinct callee.
	for _, callee := range distinctCallees(rc.Program()) {
		if err := ctx.Err(); err != nil {
			return err
		}

		d := e.analyzer.DetectCallingConvention(rc, callee)
		b := store.Binding{
			RunID:      runID,
			Callee:     callee.String(),
			Seq:        e.clock.Next(),
			Status:     d.Status.String(),
			Convention: d.Convention,
		}
		if d.HasArgumentsSize {
			size := d.ArgumentsSize
			b.ArgumentsSize = &size
		}
		report.Bindings = append(report.Bindings, b)

		if err := e.record(runID, "binding", func() error { return e.recorder.WriteBinding(rctx, b) }); err != nil {
			return err
		}
	}

	// Phase 3: one dataflow per function.
	for _, fn := range rc.Program().Functions() {
		if err := ctx.Err(); err != nil {
			return err
		}

		dfErr := e.analyzer.AnalyzeDataflow(ctx, rc, fn)

		// The trigger stores a result even when cancelled.
		if df := rc.Dataflow(fn); df != nil {
			summary := store.DataflowSummary{
				RunID:      runID,
				Entry:      fn.Entry,
				Function:   fn.Name,
				Seq:        e.clock.Next(),
				DataflowID: df.ID(),
				Complete:   df.IsComplete(),
				Terms:      df.Len(),
				Known:      df.KnownCount(),
				Visits:     df.Visits(),
			}
			report.Dataflows = append(report.Dataflows, summary)

			if err := e.record(runID, "dataflow", func() error { return e.recorder.WriteDataflow(rctx, summary) }); err != nil {
				return err
			}
		}

		if dfErr != nil {
			return dfErr
		}
	}

	return nil
}

// record calls write when a recorder is configured.
func (e *Engine) record(runID, what string, write func() error) error {
	if e.recorder == nil {
		return nil
	}
	if err := write(); err != nil {
		return &RuntimeError{
			Code:    ErrCodeRecordFailed,
			Message: fmt.Sprintf("record %s", what),
			RunID:   runID,
			Err:     err,
		}
	}
	return nil
}

// checkArchitecture rejects analyzers built for another architecture.
func (e *Engine) checkArchitecture(rc *core.Context, runID string) error {
	bound, ok := e.analyzer.(interface{ Architecture() *arch.Architecture })
	if !ok {
		return nil
	}
	want := rc.Module().Architecture()
	if got := bound.Architecture(); got.Name() != want.Name() {
		return &RuntimeError{
			Code:    ErrCodeArchitectureMismatch,
			Message: fmt.Sprintf("analyzer built for %s, module is %s", got.Name(), want.Name()),
			RunID:   runID,
		}
	}
	return nil
}

// distinctCallees returns each callee once, in the order its first call
// site appears.
func distinctCallees(p *ir.Program) []ir.CalleeID {
	var out []ir.CalleeID
	seen := make(map[ir.CalleeID]bool)
	for _, call := range p.Calls() {
		id := ir.CalleeIDOf(call)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
