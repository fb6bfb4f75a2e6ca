package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCommand_BuiltIn(t *testing.T) {
	out, err := executeRoot(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configuration valid")
}

func TestValidateCommand_ValidFile(t *testing.T) {
	path := writeConfig(t, `search: {
	sort_alias: name: {field: "dcterms:title"}
	namespace: dcterms: "http://purl.org/dc/terms/"
}`)

	out, err := executeRoot(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configuration valid")
}

func TestValidateCommand_CollectsAllErrors(t *testing.T) {
	path := writeConfig(t, `search: {
	sort_alias: "bad name": {field: ""}
	namespace: "1x": "relative"
	connector_name: "has space"
}`)

	out, err := executeRoot(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	for _, code := range []string{"E101", "E102", "E103", "E104", "E108"} {
		assert.Contains(t, out, code)
	}
}

func TestValidateCommand_JSONErrors(t *testing.T) {
	path := writeConfig(t, `search: connector_name: "has space"`)

	out, err := executeRoot(t, "validate", path, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "E108", resp.Data.Errors[0].Code)
}

func TestValidateCommand_AliasWarnings(t *testing.T) {
	path := writeConfig(t, `search: sort_alias: {
	owner: {field: "createdBy"}
	createdBy: {field: "emf:createdBy", object_property: true}
}`)

	out, err := executeRoot(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `info: alias "owner" targets alias "createdBy"`)
	assert.Contains(t, out, "✓ Configuration valid")
}

func TestValidateCommand_SyntaxError(t *testing.T) {
	path := writeConfig(t, `search: {`)

	out, err := executeRoot(t, "validate", path, "--verbose")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E011]")
	assert.Contains(t, out, "Details:")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := executeRoot(t, "validate", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
