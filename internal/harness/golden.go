package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/searchql/internal/ir"
)

// TraceSnapshot captures the compiled steps of a scenario run.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Trace        []StepTrace `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Empty fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, step := range s.Trace {
		stepMap := map[string]any{
			"step": step.Step,
		}
		if step.Dialect != "" {
			stepMap["dialect"] = step.Dialect
		}
		if step.QueryID != "" {
			stepMap["query_id"] = step.QueryID
		}
		if step.Text != "" {
			stepMap["text"] = step.Text
		}
		if len(step.Bindings) > 0 {
			stepMap["bindings"] = step.Bindings
		}
		if len(step.Projection) > 0 {
			stepMap["projection"] = step.Projection
		}
		if step.Skip != 0 {
			stepMap["skip"] = step.Skip
		}
		if step.Error != "" {
			stepMap["error"] = step.Error
		}
		traceList[i] = stepMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Snapshot renders result's trace as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
