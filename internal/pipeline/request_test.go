package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/querysolr"
	"github.com/roach88/searchql/internal/querysparql"
)

const yamlRequest = `
dialect: sparql
rules:
  - field: dcterms:title
    type: string
    operator: contains
    values: [report]
  - field: emf:status
    type: string
    operator: empty
sorters:
  - field: modifiedOn
    ascending: false
    allow_missing: true
page:
  number: 3
  size: 10
  max_size: 25
access: write
current_user: emf:jane
bindings:
  type: emf:Case
  count: 3
group_by: emf:type
timeout: 30s
`

const tomlRequest = `
dialect = "solr"
query = "type:case"

[[rules]]
field = "emf:status"
type = "string"
operator = "equals"
values = ["OPEN", "CLOSED"]
`

func TestDecodeRequest_YAML(t *testing.T) {
	spec, err := DecodeRequest([]byte(yamlRequest), "yaml")
	require.NoError(t, err)

	req, err := spec.Request()
	require.NoError(t, err)

	assert.Equal(t, querysparql.Dialect, req.Dialect)
	require.Len(t, req.Rules, 2)
	assert.Equal(t, "contains", req.Rules[0].Operator())
	assert.Equal(t, []string{"report"}, req.Rules[0].Values())
	assert.Equal(t, 0, req.Rules[1].Len())

	require.Len(t, req.Sorters, 1)
	assert.Equal(t, ir.Sorter{Field: "modifiedOn", AllowMissing: true}, req.Sorters[0])

	// page 3 of 10 inside a window of 25: window starts at 0, skip 20
	assert.Equal(t, 0, req.Offset)
	assert.Equal(t, 20, req.Skip)
	assert.Equal(t, 25, req.Limit)

	assert.Equal(t, "write", req.Access)
	assert.Equal(t, "emf:jane", req.CurrentUser)
	assert.Equal(t, "emf:Case", req.Bindings["type"])
	assert.Equal(t, 3, req.Bindings["count"])
	assert.Equal(t, "emf:type", req.GroupBy)
	assert.Equal(t, 30*time.Second, req.Timeout)
}

func TestDecodeRequest_TOML(t *testing.T) {
	spec, err := DecodeRequest([]byte(tomlRequest), "toml")
	require.NoError(t, err)

	req, err := spec.Request()
	require.NoError(t, err)
	assert.Equal(t, querysolr.Dialect, req.Dialect)
	assert.Equal(t, "type:case", req.Query)
	require.Len(t, req.Rules, 1)
	assert.Equal(t, []string{"OPEN", "CLOSED"}, req.Rules[0].Values())
}

func TestDecodeRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"unknown yaml field", "dialect: sparql\nsorter: []\n", "yaml"},
		{"bad yaml", "rules: [", "yaml"},
		{"unknown toml key", "dialekt = \"solr\"\n", "toml"},
		{"bad toml", "dialect = ", "toml"},
		{"unsupported format", "{}", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestRequestSpec_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec RequestSpec
	}{
		{"unknown dialect", RequestSpec{Dialect: "sql"}},
		{"empty rule field", RequestSpec{Rules: []RuleSpec{{Operator: "equals", Values: []string{"x"}}}}},
		{"bad timeout", RequestSpec{Timeout: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Request()
			assert.Error(t, err)
		})
	}
}

func TestRequestSpec_DefaultDialect(t *testing.T) {
	req, err := RequestSpec{Offset: 5, Limit: 10}.Request()
	require.NoError(t, err)
	assert.Equal(t, querysparql.Dialect, req.Dialect)
	assert.Equal(t, 5, req.Offset)
	assert.Equal(t, 10, req.Limit)
}

func TestLoadRequest(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "search.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlRequest), 0o644))
	req, err := LoadRequest(yamlPath)
	require.NoError(t, err)
	assert.Len(t, req.Rules, 2)

	tomlPath := filepath.Join(dir, "search.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlRequest), 0o644))
	req, err = LoadRequest(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, querysolr.Dialect, req.Dialect)

	_, err = LoadRequest(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
