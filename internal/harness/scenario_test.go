package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "sorted_title_search.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sorted_title_search", scenario.Name)
	assert.Equal(t, "search", scenario.QueryIDPrefix)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "by_title", scenario.Steps[0].Name)
	require.Len(t, scenario.Steps[0].Request.Rules, 1)
	assert.Equal(t, "dcterms:title", scenario.Steps[0].Request.Rules[0].Field)
	require.NotNil(t, scenario.Steps[1].Expect)
	assert.Equal(t, "UNSUPPORTED_SEARCH_OPERATION", scenario.Steps[1].Expect.Error)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps: [{name: a}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps: [{name: a}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\nstep: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unnamed step",
			content: "name: n\ndescription: d\nsteps: [{request: {}}]\n",
			wantErr: "steps[0]: name is required",
		},
		{
			name:    "duplicate step",
			content: "name: n\ndescription: d\nsteps: [{name: a}, {name: a}]\n",
			wantErr: "duplicate step name",
		},
		{
			name:    "missing config",
			content: "name: n\ndescription: d\nconfig: nope.cue\nsteps: [{name: a}]\n",
			wantErr: "config file not found",
		},
		{
			name:    "bad policy",
			content: "name: n\ndescription: d\npolicy: retry\nsteps: [{name: a}]\n",
			wantErr: "unknown policy",
		},
		{
			name:    "assertion on unknown step",
			content: "name: n\ndescription: d\nsteps: [{name: a}]\nassertions: [{type: text_contains, step: b, text: x}]\n",
			wantErr: "unknown step",
		},
		{
			name:    "text_order needs two fragments",
			content: "name: n\ndescription: d\nsteps: [{name: a}]\nassertions: [{type: text_order, step: a, texts: [x]}]\n",
			wantErr: "at least two fragments",
		},
		{
			name:    "binding_equals needs value",
			content: "name: n\ndescription: d\nsteps: [{name: a}]\nassertions: [{type: binding_equals, step: a, binding: p1}]\n",
			wantErr: "binding and value are required",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\nsteps: [{name: a}]\nassertions: [{type: final_state}]\n",
			wantErr: "unknown assertion type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			writeFile(t, path, tt.content)

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "search.cue"), "search: {}\n")

	other := t.TempDir()
	path := filepath.Join(other, "scenario.yaml")
	writeFile(t, path, "name: n\ndescription: d\nconfig: search.cue\nsteps: [{name: a}]\n")

	scenario, err := LoadScenarioWithBasePath(path, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "search.cue"), scenario.Config)
}
