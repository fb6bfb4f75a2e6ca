package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRule(t *testing.T) {
	r, err := NewRule("emf:modifiedOn", TypeDateTime, "before", "2021-01-01")
	require.NoError(t, err)

	assert.Equal(t, "emf:modifiedOn", r.Field())
	assert.Equal(t, TypeDateTime, r.Type())
	assert.Equal(t, "before", r.Operator())
	assert.Equal(t, []string{"2021-01-01"}, r.Values())
	assert.True(t, r.IsDateType())
}

func TestNewRuleEmptyField(t *testing.T) {
	_, err := NewRule("  ", TypeString, "equals", "x")
	require.Error(t, err)
	assert.True(t, IsInvalidRule(err))
}

func TestRuleValuesNeverNil(t *testing.T) {
	r := MustRule("emf:status", TypeString, "empty")
	assert.NotNil(t, r.Values())
	assert.Equal(t, 0, r.Len())
}

func TestZeroRule(t *testing.T) {
	var r Rule
	assert.NotNil(t, r.Values())
	assert.Empty(t, r.Values())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "", r.Value(0))
	assert.Equal(t, "", r.Value(-1))

	r = MustRule("emf:status", TypeString, "between", "a")
	assert.Equal(t, "a", r.Value(0))
	assert.Equal(t, "", r.Value(1))
}

func TestRuleIsImmutable(t *testing.T) {
	values := []string{"a", "b"}
	r := MustRule("f", TypeString, "equals", values...)

	values[0] = "changed"
	assert.Equal(t, "a", r.Value(0))

	got := r.Values()
	got[1] = "changed"
	assert.Equal(t, "b", r.Value(1))
}

func TestMustRulePanics(t *testing.T) {
	assert.Panics(t, func() { MustRule("", TypeString, "equals") })
}

func TestSorterConstructors(t *testing.T) {
	s := AscendingSorter("emf:createdBy").AsObjectProperty().WithMissingValues()
	assert.Equal(t, Sorter{Field: "emf:createdBy", Ascending: true, ObjectProperty: true, AllowMissing: true}, s)

	d := DescendingSorter("dcterms:title")
	assert.False(t, d.Ascending)
	assert.False(t, d.ObjectProperty)
}
