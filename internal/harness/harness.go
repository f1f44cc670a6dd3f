package harness

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roach88/archpass/internal/analyzer"
	"github.com/roach88/archpass/internal/arch"
	"github.com/roach88/archpass/internal/engine"
	"github.com/roach88/archpass/internal/ir"
	"github.com/roach88/archpass/internal/loader"
	"github.com/roach88/archpass/internal/store"
	"github.com/roach88/archpass/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with deterministic run
// IDs ("run-1"), dataflow IDs ("df-1", "df-2", ...) and seq values, so the
// same scenario always commits identical records.
//
// Execution flow:
//  1. Load the catalog and the program
//  2. Build the analyzer for the program's architecture
//  3. Drive the run through the engine, recording into the store
//  4. Read the committed results back from the store
//  5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cat, err := arch.LoadCatalog(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	rc, err := loader.Load(scenario.Program, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	placement, err := analyzer.ParsePlacement(scenario.Placement)
	if err != nil {
		return nil, err
	}

	m, err := analyzer.ForArchitecture(rc.Module().Architecture(),
		analyzer.WithPlacement(placement),
		analyzer.WithIDGenerator(testutil.NewCountingIDGenerator("df")))
	if err != nil {
		return nil, fmt.Errorf("failed to build analyzer: %w", err)
	}

	eng := engine.New(m,
		engine.WithRecorder(st),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithRunIDGenerator(testutil.NewCountingIDGenerator("run")),
		engine.WithPlacement(placement),
		engine.WithSource(filepath.Base(scenario.Program)))

	report, err := eng.Run(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("run failed: %w", err)
	}

	result, err := readBack(ctx, st, report.Run.ID)
	if err != nil {
		return nil, err
	}
	result.Context = rc
	for _, b := range rc.Program().BasicBlocks() {
		stmts := make([]string, 0, b.Len())
		for _, s := range b.Statements() {
			stmts = append(stmts, ir.FormatStatement(s, rc.Module().Architecture()))
		}
		result.Statements[fmt.Sprintf("0x%x", b.Address())] = stmts
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// readBack loads everything a run committed from the store.
func readBack(ctx context.Context, st *store.Store, runID string) (*Result, error) {
	result := NewResult()

	var err error
	if result.Run, err = st.ReadRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	if result.Patch, err = st.ReadPatch(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to read patch: %w", err)
	}
	if result.Bindings, err = st.ReadBindings(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to read bindings: %w", err)
	}
	if result.Dataflows, err = st.ReadDataflows(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to read dataflows: %w", err)
	}
	return result, nil
}
