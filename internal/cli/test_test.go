package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: solr_status
description: "full-text equals"
steps:
  - name: q
    request:
      dialect: solr
      rules:
        - { field: "emf:status", type: string, operator: equals, values: [OPEN] }
assertions:
  - { type: text_contains, step: q, text: "emf:status" }
`

const failingScenario = `name: wrong_text
description: "assertion that cannot hold"
steps:
  - name: q
    request: { dialect: solr }
assertions:
  - { type: text_contains, step: q, text: "emf:title" }
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeRoot(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := executeRoot(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeRoot(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := executeRoot(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	out, err := executeRoot(t, "test", "../../testdata/scenarios")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ paged_query")
	assert.Contains(t, out, "✓ sorted_title_search")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yaml", failingScenario)

	out, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ solr_status")
	assert.Contains(t, out, "✗ wrong_text")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "solr_ok.yaml", passingScenario)
	writeScenario(t, dir, "broken.yaml", failingScenario)

	out, err := executeRoot(t, "test", dir, "--filter", "solr_*", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "solr_status", resp.Data.Scenarios[0].Name)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)

	_, err := executeRoot(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandGoldenUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "solr.yaml", passingScenario)

	_, err := executeRoot(t, "test", path, "--update")
	require.NoError(t, err)

	golden := filepath.Join(dir, "golden", "solr.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"solr_status"`)

	_, err = executeRoot(t, "test", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"solr_status","trace":[]}`), 0o644))
	out, err := executeRoot(t, "test", path)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad.yaml", "name: only_a_name\n")

	out, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
