package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/store"
)

const sparqlRequest = `query: "PREFIX emf: <http://e#>\nSELECT ?instance WHERE { ?instance emf:type ?type . }"
admin: true
limit: 10
bindings:
  type: emf:Case
`

const solrRequest = `dialect = "solr"

[[rules]]
field = "emf:status"
type = "string"
operator = "equals"
values = ["OPEN"]
`

func writeRequest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileCommand_SPARQLText(t *testing.T) {
	path := writeRequest(t, "request.yaml", sparqlRequest)

	out, err := executeRoot(t, "compile", path)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled sparql query")
	assert.Contains(t, out, "# Query ID: ")
	assert.Contains(t, out, "} LIMIT 10")
	assert.Contains(t, out, `type = {"uri":"emf:Case"}`)
	assert.Contains(t, out, "Fingerprint: ")
}

func TestCompileCommand_SolrJSON(t *testing.T) {
	path := writeRequest(t, "request.toml", solrRequest)

	out, err := executeRoot(t, "compile", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status  string `json:"status"`
		TraceID string `json:"trace_id"`
		Data    struct {
			Dialect string `json:"dialect"`
			Text    string `json:"text"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "solr", resp.Data.Dialect)
	assert.Equal(t, "(emf:status:(OPEN))", resp.Data.Text)
	assert.NotEmpty(t, resp.TraceID)
}

func TestCompileCommand_UnsupportedOperator(t *testing.T) {
	path := writeRequest(t, "request.yaml", `rules:
  - { field: "emf:status", type: string, operator: sounds_like, values: [x] }
`)

	out, err := executeRoot(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNSUPPORTED_SEARCH_OPERATION]")
}

func TestCompileCommand_MissingCurrentUser(t *testing.T) {
	path := writeRequest(t, "request.yaml", `rules:
  - { field: "emf:status", type: string, operator: equals, values: [OPEN] }
`)

	out, err := executeRoot(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MISSING_CURRENT_USER]")
}

func TestCompileCommand_SkipPolicyFromEnv(t *testing.T) {
	t.Setenv("SEARCHQL_POLICY", "skip")
	path := writeRequest(t, "request.yaml", `admin: true
rules:
  - { field: "emf:status", type: string, operator: sounds_like, values: [x] }
  - { field: "emf:status", type: string, operator: equals, values: [OPEN] }
`)

	out, err := executeRoot(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, "?instance emf:status ?p1 .")
}

func TestCompileCommand_BadRequest(t *testing.T) {
	path := writeRequest(t, "request.yaml", "dialect: sql\n")

	out, err := executeRoot(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E010]")
}

func TestCompileCommand_MissingConfig(t *testing.T) {
	path := writeRequest(t, "request.yaml", sparqlRequest)

	out, err := executeRoot(t, "compile", path, "--config", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E011]")
}

func TestCompileCommand_OutputFile(t *testing.T) {
	path := writeRequest(t, "request.yaml", sparqlRequest)
	outFile := filepath.Join(t.TempDir(), "result.json")

	out, err := executeRoot(t, "compile", path, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote result to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "sparql", result["dialect"])
	assert.Equal(t, map[string]any{"type": map[string]any{"uri": "emf:Case"}}, result["bindings"])
}

func TestCompileCommand_Record(t *testing.T) {
	path := writeRequest(t, "request.yaml", sparqlRequest)
	db := filepath.Join(t.TempDir(), "log.db")

	out, err := executeRoot(t, "compile", path, "--record", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.ReadQuery(context.Background(), resp.TraceID)
	require.NoError(t, err)
	assert.Equal(t, "sparql", rec.Dialect)
	assert.Contains(t, rec.Text, "# Query ID: "+resp.TraceID)
}

func TestCompileCommand_VerboseGoesToStderr(t *testing.T) {
	path := writeRequest(t, "request.yaml", sparqlRequest)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"compile", path, "--verbose", "--format", "json"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "Loaded sparql request")
	assert.Contains(t, errOut.String(), "assembled query")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
}

func TestCompileCommand_MissingArgs(t *testing.T) {
	_, err := executeRoot(t, "compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
