package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/archpass/internal/ir"
)

// RunSnapshot is the deterministic part of a scenario run compared against
// golden files. Program digests are left out: they change with every IR
// formatting tweak and the statements already pin the program.
type RunSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a RunSnapshot to a map[string]any for canonical
// JSON serialization, since ir.MarshalCanonical only handles primitives,
// slices and maps.
func (s *RunSnapshot) toCanonicalMap() map[string]any {
	r := s.Result

	bindings := make([]any, len(r.Bindings))
	for i, b := range r.Bindings {
		m := map[string]any{
			"callee": b.Callee,
			"seq":    b.Seq,
			"status": b.Status,
		}
		if b.Convention != "" {
			m["convention"] = b.Convention
		}
		if b.ArgumentsSize != nil {
			m["arguments_size"] = *b.ArgumentsSize
		}
		bindings[i] = m
	}

	dataflows := make([]any, len(r.Dataflows))
	for i, d := range r.Dataflows {
		dataflows[i] = map[string]any{
			"complete":    d.Complete,
			"dataflow_id": d.DataflowID,
			"entry":       d.Entry,
			"function":    d.Function,
			"seq":         d.Seq,
		}
	}

	statements := make(map[string]any, len(r.Statements))
	for addr, stmts := range r.Statements {
		statements[addr] = stmts
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"architecture":  r.Run.Architecture,
		"placement":     r.Run.Placement,
		"status":        r.Run.Status,
		"patch": map[string]any{
			"blocks_patched": r.Patch.BlocksPatched,
			"blocks_scanned": r.Patch.BlocksScanned,
			"seq":            r.Patch.Seq,
			"synthesized":    r.Patch.Synthesized,
		},
		"bindings":   bindings,
		"dataflows":  dataflows,
		"statements": statements,
	}
}

// RunWithGolden executes a scenario and compares its committed results
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

// Snapshot returns the canonical JSON golden files hold for result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := RunSnapshot{ScenarioName: scenarioName, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}
