package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hierframe/internal/classify"
)

// Scenario defines one end-to-end run of a study over an event file.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Study is the path to the CUE study file.
	Study string `yaml:"study"`

	// Events is the path to the YAML event file.
	Events string `yaml:"events"`

	// BatchSize splits the events; 0 runs them as one batch.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Golden selects, per stored table, the columns written to the golden
	// snapshot. Tables not listed are left out.
	Golden map[string][]string `yaml:"golden,omitempty"`

	// Assertions validate the stored tables and failed batches.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates stored tables or failed batches.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Table is the stored table name, e.g. "kmc_0".
	Table string `yaml:"table,omitempty"`

	// Column is a dotted column name (column_values).
	Column string `yaml:"column,omitempty"`

	// Values are the expected cells in key order (column_values).
	// A YAML null expects a Null cell.
	Values []any `yaml:"values,omitempty"`

	// Where is a filter expression (query_count).
	Where string `yaml:"where,omitempty"`

	// Count is the expected number of rows (row_count, query_count).
	Count int `yaml:"count,omitempty"`

	// Seq is the failed batch (batch_failed).
	Seq int64 `yaml:"seq,omitempty"`

	// Code is the expected error code (batch_failed).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertTableExists  = "table_exists"
	AssertRowCount     = "row_count"
	AssertColumnValues = "column_values"
	AssertQueryCount   = "query_count"
	AssertBatchFailed  = "batch_failed"
)

// LoadScenario reads and parses a scenario YAML file, resolving the study
// and events paths relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Study = resolve(base, scenario.Study)
	scenario.Events = resolve(base, scenario.Events)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Study == "" {
		return fmt.Errorf("study is required")
	}
	if s.Events == "" {
		return fmt.Errorf("events is required")
	}
	if s.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range []string{s.Study, s.Events} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needTable := func() error {
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertTableExists, AssertRowCount:
		return needTable()
	case AssertColumnValues:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for column_values", index)
		}
		return needTable()
	case AssertQueryCount:
		if a.Where == "" {
			return fmt.Errorf("assertions[%d]: where is required for query_count", index)
		}
		if _, err := classify.Parse(a.Where); err != nil {
			return fmt.Errorf("assertions[%d]: where: %w", index, err)
		}
		return needTable()
	case AssertBatchFailed:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for batch_failed", index)
		}
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
}
