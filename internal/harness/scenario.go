package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/searchql/internal/operation"
	"github.com/roach88/searchql/internal/pipeline"
)

// Scenario is a list of requests to compile plus assertions on the output.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an optional CUE search configuration. Relative paths are
	// resolved against the scenario file. Empty means the built-in config.
	Config string `yaml:"config,omitempty"`

	// QueryIDPrefix prefixes the deterministic trace ids ("query" if empty).
	QueryIDPrefix string `yaml:"query_id_prefix,omitempty"`

	// Policy is "abort" (default) or "skip" for unsupported rules.
	Policy string `yaml:"policy,omitempty"`

	// Steps are compiled in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the compiled steps and the query log.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one request to compile.
type Step struct {
	Name    string               `yaml:"name"`
	Request pipeline.RequestSpec `yaml:"request"`

	// Expect is optional; nil means the step must compile.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause describes the expected outcome of a step.
type ExpectClause struct {
	// Error, when set, is a substring of the expected compile error.
	Error string `yaml:"error,omitempty"`

	// Dialect, when set, must equal the result's dialect.
	Dialect string `yaml:"dialect,omitempty"`
}

// Assertion validates the output of a step or the query log.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Step names the step whose output is checked.
	Step string `yaml:"step,omitempty"`

	// Text is the fragment for text_contains, text_not_contains and text_count.
	Text string `yaml:"text,omitempty"`

	// Texts are the fragments for text_order.
	Texts []string `yaml:"texts,omitempty"`

	// Count is the expected number for text_count and logged_count.
	Count int `yaml:"count,omitempty"`

	// Binding and Value are used by binding_equals. Value follows the
	// request binding convention ("emf:x" is a URI).
	Binding string `yaml:"binding,omitempty"`
	Value   any    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertTextContains    = "text_contains"
	AssertTextNotContains = "text_not_contains"
	AssertTextOrder       = "text_order"
	AssertTextCount       = "text_count"
	AssertBindingEquals   = "binding_equals"
	AssertLoggedCount     = "logged_count"
)

// LoadScenario reads and parses a scenario YAML file. A relative config
// path is resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative config path against basePath.
// Unknown fields (typos) are rejected.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) && basePath != "" {
		scenario.Config = filepath.Join(basePath, scenario.Config)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config)
		}
	}

	if s.Policy != "" {
		if _, err := operation.ParsePolicy(s.Policy); err != nil {
			return err
		}
	}

	names := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTextContains, AssertTextNotContains, AssertTextOrder, AssertTextCount, AssertBindingEquals:
		if !steps[a.Step] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Step)
		}
	}

	switch a.Type {
	case AssertTextContains, AssertTextNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertTextOrder:
		if len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: texts needs at least two fragments for text_order", index)
		}
	case AssertTextCount:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for text_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for text_count", index)
		}
	case AssertBindingEquals:
		if a.Binding == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: binding and value are required for binding_equals", index)
		}
	case AssertLoggedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for logged_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
