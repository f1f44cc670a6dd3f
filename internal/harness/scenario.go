package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/archpass/internal/analyzer"
)

// Scenario defines a conformance scenario: one program run through the
// analysis phases, and assertions over what the run committed.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to a program file (see package loader).
	// Relative paths are resolved against the scenario file's directory.
	Program string `yaml:"program"`

	// Catalog optionally overrides the built-in convention catalog.
	// Resolved like Program.
	Catalog string `yaml:"catalog,omitempty"`

	// Placement selects where synthesized statements go: "append"
	// (default) or "anchored".
	Placement string `yaml:"placement,omitempty"`

	// Assertions validate the committed results.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type selects the assertion:
	//   - "patch": patch phase counts
	//   - "binding": the convention bound to Callee
	//   - "binding_count": number of bindings committed
	//   - "dataflow": the dataflow result stored for Function
	//   - "value": a register's value on exit from Block of Function
	//   - "statements": the statements of Block after patching
	Type string `yaml:"type"`

	// Synthesized, BlocksPatched are checked by "patch" when set.
	Synthesized   *int `yaml:"synthesized,omitempty"`
	BlocksPatched *int `yaml:"blocks_patched,omitempty"`

	// Callee is "0x<entry>" or "indirect@0x<site>" (binding).
	Callee string `yaml:"callee,omitempty"`

	// Convention is the expected convention name; "" expects none (binding).
	Convention string `yaml:"convention,omitempty"`

	// Status is the expected detection status (binding).
	Status string `yaml:"status,omitempty"`

	// ArgumentsSize is the expected recorded arguments size (binding).
	ArgumentsSize *int64 `yaml:"arguments_size,omitempty"`

	// Count is the expected number of bindings (binding_count).
	Count int `yaml:"count,omitempty"`

	// Function names a function (dataflow, value).
	Function string `yaml:"function,omitempty"`

	// Complete is the expected completion flag (dataflow).
	Complete *bool `yaml:"complete,omitempty"`

	// Block is a block address (value, statements).
	Block *uint64 `yaml:"block,omitempty"`

	// Register and Value: the register's exit value as printed by
	// dflow.Value.String, e.g. "sp+0x10" or "0x1:32" (value).
	Register string `yaml:"register,omitempty"`
	Value    string `yaml:"value,omitempty"`

	// Statements are the expected formatted statements (statements).
	Statements []string `yaml:"statements,omitempty"`
}

// Assertion type constants.
const (
	AssertPatch        = "patch"
	AssertBinding      = "binding"
	AssertBindingCount = "binding_count"
	AssertDataflow     = "dataflow"
	AssertValue        = "value"
	AssertStatements   = "statements"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so "assertion:" vs "assertions:" typos fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Program = resolve(base, scenario.Program)
	scenario.Catalog = resolve(base, scenario.Catalog)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program file not found: %s", s.Program)
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog file not found: %s", s.Catalog)
		}
	}
	if s.Placement != "" {
		if _, err := analyzer.ParsePlacement(s.Placement); err != nil {
			return err
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPatch:
		if a.Synthesized == nil && a.BlocksPatched == nil {
			return fmt.Errorf("assertions[%d]: patch needs synthesized or blocks_patched", index)
		}
	case AssertBinding:
		if a.Callee == "" {
			return fmt.Errorf("assertions[%d]: callee is required for binding", index)
		}
	case AssertBindingCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for binding_count", index)
		}
	case AssertDataflow:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for dataflow", index)
		}
	case AssertValue:
		if a.Function == "" || a.Block == nil || a.Register == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: value needs function, block, register and value", index)
		}
	case AssertStatements:
		if a.Block == nil {
			return fmt.Errorf("assertions[%d]: block is required for statements", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
