package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var values []IRValue = []IRValue{
		IRString(""), IRInt(0), IRBool(false), IRURI("emf:x"),
		IRDateTime(time.Time{}), IRArray{}, IRObject{},
	}
	assert.Len(t, values, 7)
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	// U+1F600 sorts before U+FFFD in UTF-16 (surrogate 0xD83D < 0xFFFD) but after it in UTF-8.
	obj := IRObject{
		"\U0001F600": IRInt(1),
		"\uFFFD":     IRInt(2),
		"a":          IRInt(3),
	}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFFFD"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "ab", -1},
		{"", "a", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestParseBindingValue(t *testing.T) {
	ts := time.Date(2021, 1, 1, 10, 0, 0, 0, time.FixedZone("EET", 2*3600))

	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"prefixed name becomes uri", "emf:admin", IRURI("emf:admin")},
		{"absolute iri becomes uri", "http://example.com/x", IRURI("http://example.com/x")},
		{"escaped colon is a literal", `10\:30`, IRString("10:30")},
		{"plain string", "report", IRString("report")},
		{"int", 42, IRInt(42)},
		{"int64", int64(-1), IRInt(-1)},
		{"bool", true, IRBool(true)},
		{"time normalized to utc", ts, IRDateTime(ts.UTC())},
		{"ir value passes through", IRString("a:b"), IRString("a:b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBindingValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBindingValueRejects(t *testing.T) {
	for _, in := range []any{nil, 1.5, float32(2), []int{1}} {
		_, err := ParseBindingValue(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestMarshalBindingsRoundTrip(t *testing.T) {
	in := IRObject{
		"currentUser": IRURI("emf:admin"),
		"p1":          IRString("abc"),
		"p2":          IRInt(3),
		"p3":          IRBool(false),
		"p4":          IRDateTime(time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	data, err := in.MarshalJSON()
	require.NoError(t, err)

	out, err := UnmarshalBindings(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshalBindingsRejectsFloats(t *testing.T) {
	_, err := UnmarshalBindings([]byte(`{"p":1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")
}

func TestIRObjectInStruct(t *testing.T) {
	type envelope struct {
		Bindings IRObject `json:"bindings"`
	}

	var got envelope
	require.NoError(t, json.Unmarshal([]byte(`{"bindings":{"owner":{"uri":"emf:jane"},"n":2}}`), &got))
	assert.Equal(t, IRObject{"owner": IRURI("emf:jane"), "n": IRInt(2)}, got.Bindings)
}

func TestMarshalIRObjectKeyOrder(t *testing.T) {
	data, err := IRObject{"b": IRInt(1), "a": IRInt(2)}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(data))
}
