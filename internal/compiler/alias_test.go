package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/searchql/internal/ir"
)

func TestAnalyzeAliases_Defaults(t *testing.T) {
	spec := ir.SearchConfigSpec{SortAliases: ir.DefaultSortAliases()}
	assert.Empty(t, AnalyzeAliases(&spec))
}

func TestAnalyzeAliases_Empty(t *testing.T) {
	warnings := AnalyzeAliases(&ir.SearchConfigSpec{})
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)
}

func TestAnalyzeAliases_Chain(t *testing.T) {
	spec := ir.SearchConfigSpec{SortAliases: map[string]ir.Sorter{
		"owner":     {Field: "createdBy"},
		"createdBy": {Field: "emf:createdBy", ObjectProperty: true},
	}}

	warnings := AnalyzeAliases(&spec)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"owner", "createdBy"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
}

func TestAnalyzeAliases_Loop(t *testing.T) {
	spec := ir.SearchConfigSpec{SortAliases: map[string]ir.Sorter{
		"a": {Field: "b"},
		"b": {Field: "a"},
	}}

	warnings := AnalyzeAliases(&spec)
	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"a", "b", "a"}, warnings[0].Path)
	assert.Equal(t, []string{"b", "a", "b"}, warnings[1].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "a -> b -> a")
}

func TestAnalyzeAliases_SelfLoop(t *testing.T) {
	spec := ir.SearchConfigSpec{SortAliases: map[string]ir.Sorter{"title": {Field: "title"}}}

	warnings := AnalyzeAliases(&spec)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"title", "title"}, warnings[0].Path)
}

func TestAnalyzeAliases_ReservedKey(t *testing.T) {
	spec := ir.SearchConfigSpec{SortAliases: map[string]ir.Sorter{"Relevance": {Field: "emf:rank"}}}

	warnings := AnalyzeAliases(&spec)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "reserved")
}
