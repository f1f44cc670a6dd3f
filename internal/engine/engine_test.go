package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archpass/internal/analyzer"
	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/dflow"
	"github.com/roach88/archpass/internal/ir"
	"github.com/roach88/archpass/internal/store"
)

// countingAnalyzer wraps a real strategy and counts phase calls.
type countingAnalyzer struct {
	inner    analyzer.MasterAnalyzer
	patches  int
	detects  map[ir.CalleeID]int
	analyses map[*ir.Function]int
}

func newCountingAnalyzer(inner analyzer.MasterAnalyzer) *countingAnalyzer {
	return &countingAnalyzer{
		inner:    inner,
		detects:  make(map[ir.CalleeID]int),
		analyses: make(map[*ir.Function]int),
	}
}

func (c *countingAnalyzer) Architecture() *arch.Architecture {
	return c.inner.(*analyzer.Intel).Architecture()
}

func (c *countingAnalyzer) PatchProgram(ctx context.Context, rc *core.Context) (analyzer.PatchReport, error) {
	c.patches++
	return c.inner.PatchProgram(ctx, rc)
}

func (c *countingAnalyzer) DetectCallingConvention(rc *core.Context, callee ir.CalleeID) analyzer.Detection {
	c.detects[callee]++
	return c.inner.DetectCallingConvention(rc, callee)
}

func (c *countingAnalyzer) AnalyzeDataflow(ctx context.Context, rc *core.Context, fn *ir.Function) error {
	c.analyses[fn]++
	return c.inner.AnalyzeDataflow(ctx, rc, fn)
}

// memoryRecorder keeps every record in memory.
type memoryRecorder struct {
	runs      []store.Run
	patches   []store.PatchSummary
	bindings  []store.Binding
	dataflows []store.DataflowSummary
	snapshots []string
	statuses  []string
	failOn    string
}

func (m *memoryRecorder) fail(what string) error {
	if m.failOn == what {
		return fmt.Errorf("%s: disk full", what)
	}
	return nil
}

func (m *memoryRecorder) WriteRun(_ context.Context, r store.Run) error {
	m.runs = append(m.runs, r)
	return m.fail("run")
}

func (m *memoryRecorder) WritePatch(_ context.Context, p store.PatchSummary) error {
	m.patches = append(m.patches, p)
	return m.fail("patch")
}

func (m *memoryRecorder) WriteBinding(_ context.Context, b store.Binding) error {
	m.bindings = append(m.bindings, b)
	return m.fail("binding")
}

func (m *memoryRecorder) WriteDataflow(_ context.Context, d store.DataflowSummary) error {
	m.dataflows = append(m.dataflows, d)
	return m.fail("dataflow")
}

func (m *memoryRecorder) WriteSnapshot(_ context.Context, _ string, digest string, _ map[string]any) error {
	m.snapshots = append(m.snapshots, digest)
	return m.fail("snapshot")
}

func (m *memoryRecorder) CompleteRun(_ context.Context, _ string, status string) error {
	m.statuses = append(m.statuses, status)
	return m.fail("status")
}

func reg(t *testing.T, a *arch.Architecture, name string) ir.MemoryLocation {
	t.Helper()
	r := a.Registers().ByName(name)
	require.NotNil(t, r, "register %s", name)
	return r.Location
}

// buildRun creates a two-function program:
//
//	main@0x1000: eax = 1; call 0x2000; call 0x2000; call [rax]; return
//	helper@0x2000: ecx = 2; return
func buildRun(t *testing.T, a *arch.Architecture) (*core.Context, *ir.Function, *ir.Function) {
	t.Helper()
	width := int64(a.Bitness())

	mainBlock := ir.NewBasicBlock(0x1000)
	mainBlock.Append(ir.NewAssignment(ir.NewAccess(reg(t, a, "eax")), ir.NewConstant(32, 1)))
	mainBlock.Append(ir.NewCall(ir.NewConstant(width, 0x2000), 0x1004))
	mainBlock.Append(ir.NewCall(ir.NewConstant(width, 0x2000), 0x1008))
	mainBlock.Append(ir.NewCall(ir.NewDereference(ir.NewAccess(reg(t, a, "eax")), ir.DomainMemory, width), 0x100c))
	mainBlock.Append(ir.NewReturn())

	helperBlock := ir.NewBasicBlock(0x2000)
	helperBlock.Append(ir.NewAssignment(ir.NewAccess(reg(t, a, "ecx")), ir.NewConstant(32, 2)))
	helperBlock.Append(ir.NewReturn())

	p := ir.NewProgram()
	require.NoError(t, p.AddBasicBlock(mainBlock))
	require.NoError(t, p.AddBasicBlock(helperBlock))

	mainFn := ir.NewFunction("main", 0x1000)
	mainFn.AddBasicBlock(mainBlock)
	helperFn := ir.NewFunction("helper", 0x2000)
	helperFn.AddBasicBlock(helperBlock)
	p.AddFunction(mainFn)
	p.AddFunction(helperFn)

	return core.NewContext(core.NewModule(a), p), mainFn, helperFn
}

func newEngine(t *testing.T, a *arch.Architecture, opts ...EngineOption) (*Engine, *countingAnalyzer) {
	t.Helper()
	m, err := analyzer.ForArchitecture(a, analyzer.WithIDGenerator(dflow.NewSequenceGenerator("df-1", "df-2", "df-3")))
	require.NoError(t, err)
	counting := newCountingAnalyzer(m)

	opts = append([]EngineOption{WithRunIDGenerator(dflow.NewSequenceGenerator("run-1"))}, opts...)
	return New(counting, opts...), counting
}

func TestRun_PhaseCallCounts(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, mainFn, helperFn := buildRun(t, a)
	e, counting := newEngine(t, a)

	_, err := e.Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, counting.patches, "patch runs exactly once per program")
	assert.Len(t, counting.detects, 2, "direct callee and indirect call site")
	for callee, n := range counting.detects {
		assert.Equal(t, 1, n, "callee %s detected once", callee)
	}
	assert.Equal(t, 1, counting.analyses[mainFn])
	assert.Equal(t, 1, counting.analyses[helperFn])
}

func TestRun_X64Report(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, mainFn, _ := buildRun(t, a)
	e, _ := newEngine(t, a)

	before := ir.MustProgramDigest(rc.Program())
	report, err := e.Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.Run.ID)
	assert.Equal(t, "x86-64", report.Run.Architecture)
	assert.Equal(t, store.StatusCompleted, report.Run.Status)
	assert.Equal(t, before, report.Run.ProgramDigest, "run digest is taken before patching")
	assert.NotEqual(t, before, report.PatchedDigest)

	assert.Equal(t, 2, report.Patch.BlocksScanned)
	assert.Equal(t, 2, report.Patch.BlocksPatched)
	assert.Equal(t, 2, report.Patch.Synthesized)

	require.Len(t, report.Bindings, 2)
	assert.Equal(t, "0x2000", report.Bindings[0].Callee)
	assert.Equal(t, "amd64", report.Bindings[0].Convention)
	assert.Equal(t, "bitness_default", report.Bindings[0].Status)
	assert.Nil(t, report.Bindings[0].ArgumentsSize)
	assert.Equal(t, "indirect@0x100c", report.Bindings[1].Callee)

	require.Len(t, report.Dataflows, 2)
	assert.Equal(t, "main", report.Dataflows[0].Function)
	assert.Equal(t, "df-1", report.Dataflows[0].DataflowID)
	assert.True(t, report.Dataflows[0].Complete)
	assert.Equal(t, "df-2", report.Dataflows[1].DataflowID)

	assert.Same(t, rc.Dataflow(mainFn), rc.Dataflow(mainFn))
	assert.Equal(t, "df-1", rc.Dataflow(mainFn).ID())
}

func TestRun_SeqStrictlyIncreasing(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, _, _ := buildRun(t, a)
	e, _ := newEngine(t, a)

	report, err := e.Run(context.Background(), rc)
	require.NoError(t, err)

	seqs := []int64{report.Patch.Seq}
	for _, b := range report.Bindings {
		seqs = append(seqs, b.Seq)
	}
	for _, d := range report.Dataflows {
		seqs = append(seqs, d.Seq)
	}
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1])
	}
}

func TestRun_DecoratedStdcall(t *testing.T) {
	a := arch.MustLookup("i386")
	rc, mainFn, _ := buildRun(t, a)
	rc.Module().AddSymbol(0x2000, "_helper@8")
	e, _ := newEngine(t, a)

	report, err := e.Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Patch.Synthesized, "no zero extension on 32-bit")
	require.NotEmpty(t, report.Bindings)
	b := report.Bindings[0]
	assert.Equal(t, "stdcall32", b.Convention)
	require.NotNil(t, b.ArgumentsSize)
	assert.Equal(t, int64(8), *b.ArgumentsSize)

	// main calls the stdcall helper twice; each call pops 8 bytes.
	df := rc.Dataflow(mainFn)
	require.NotNil(t, df)
	exit, ok := df.ExitState(mainFn.EntryBlock())
	require.True(t, ok)
	// The indirect call after them is bound to cdecl32: no adjustment.
	assert.Equal(t, dflow.StackValue(16), exit.Read(reg(t, a, "esp")))
}

func TestRun_Recorder(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, _, _ := buildRun(t, a)
	rec := &memoryRecorder{}
	e, _ := newEngine(t, a, WithRecorder(rec), WithSource("prog.yaml"))

	report, err := e.Run(context.Background(), rc)
	require.NoError(t, err)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, store.StatusRunning, rec.runs[0].Status)
	assert.Equal(t, "prog.yaml", rec.runs[0].Source)
	assert.Equal(t, []store.PatchSummary{report.Patch}, rec.patches)
	assert.Equal(t, report.Bindings, rec.bindings)
	assert.Equal(t, report.Dataflows, rec.dataflows)
	assert.Equal(t, []string{report.PatchedDigest}, rec.snapshots)
	assert.Equal(t, []string{store.StatusCompleted}, rec.statuses)
}

func TestRun_RecorderFailure(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, _, _ := buildRun(t, a)
	rec := &memoryRecorder{failOn: "binding"}
	e, _ := newEngine(t, a, WithRecorder(rec))

	report, err := e.Run(context.Background(), rc)
	require.Error(t, err)

	assert.True(t, IsRecordError(err))
	assert.False(t, IsCancelled(err))
	assert.Equal(t, store.StatusFailed, report.Run.Status)
	assert.Equal(t, []string{store.StatusFailed}, rec.statuses)
	assert.Empty(t, rec.dataflows, "run stops at the failed write")
}

func TestRun_CancelledDuringPatch(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, _, _ := buildRun(t, a)
	rec := &memoryRecorder{}
	e, counting := newEngine(t, a, WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Run(ctx, rc)
	require.Error(t, err)

	assert.True(t, IsCancelled(err))
	assert.False(t, IsRecordError(err))
	assert.Equal(t, store.StatusCancelled, report.Run.Status)
	assert.Equal(t, 1, counting.patches)
	assert.Empty(t, counting.detects, "later phases do not start")
	assert.Empty(t, counting.analyses)
	assert.Equal(t, []string{store.StatusCancelled}, rec.statuses, "status recorded despite cancellation")
}

// cancelOnDetect cancels the run's context on the first detection.
type cancelOnDetect struct {
	*countingAnalyzer
	cancel context.CancelFunc
}

func (c *cancelOnDetect) DetectCallingConvention(rc *core.Context, callee ir.CalleeID) analyzer.Detection {
	c.cancel()
	return c.countingAnalyzer.DetectCallingConvention(rc, callee)
}

func TestRun_CancelledBetweenCallees(t *testing.T) {
	a := arch.MustLookup("x86-64")
	rc, _, _ := buildRun(t, a)

	m, err := analyzer.ForArchitecture(a)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wrapped := &cancelOnDetect{countingAnalyzer: newCountingAnalyzer(m), cancel: cancel}

	report, err := New(wrapped).Run(ctx, rc)
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, report.Bindings, 1, "committed binding kept")
	assert.Len(t, rc.Conventions().Callees(), 1)
	assert.Equal(t, 2, report.Patch.Synthesized, "patch completed before cancellation")
}

func TestRun_ArchitectureMismatch(t *testing.T) {
	rc, _, _ := buildRun(t, arch.MustLookup("x86-64"))
	e, counting := newEngine(t, arch.MustLookup("i386"))

	_, err := e.Run(context.Background(), rc)
	require.Error(t, err)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeArchitectureMismatch, re.Code)
	assert.Equal(t, 0, counting.patches)
}

func TestRun_WithStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	a := arch.MustLookup("i386")
	rc, _, _ := buildRun(t, a)
	rc.Module().AddSymbol(0x2000, "_helper@8")
	e, _ := newEngine(t, a, WithRecorder(s))

	report, err := e.Run(context.Background(), rc)
	require.NoError(t, err)

	ctx := context.Background()
	run, err := s.ReadRun(ctx, report.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)

	bindings, err := s.ReadBindings(ctx, report.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Bindings, bindings)

	dataflows, err := s.ReadDataflows(ctx, report.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Dataflows, dataflows)

	snap, err := s.ReadSnapshot(ctx, report.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, report.PatchedDigest, snap.Digest)
	assert.Contains(t, snap.Snapshot, `"eax = 0x1:32"`)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(context.Canceled))
	assert.True(t, IsCancelled(context.DeadlineExceeded))
	assert.True(t, IsCancelled(fmt.Errorf("patch: %w", context.Canceled)))
	assert.False(t, IsCancelled(errors.New("boom")))
	assert.False(t, IsCancelled(nil))
}

func TestRuntimeError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &RuntimeError{Code: ErrCodeRecordFailed, Message: "record run", RunID: "r", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "RECORD_FAILED: record run (run=r): disk full", err.Error())
}
