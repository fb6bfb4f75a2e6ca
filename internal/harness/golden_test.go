package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "paged_query.yaml"))
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scenario))
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.AddStep(StepTrace{Step: "bad", Error: "boom"})

	data, err := Snapshot("s", result)
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"s","trace":[{"error":"boom","step":"bad"}]}`, string(data))
}
