package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf16"
)

// IRValue is a sealed interface for values bound into a compiled query.
// Only IRString, IRInt, IRBool, IRURI, IRDateTime, IRArray and IRObject
// implement it. There is no float type: numeric bindings are int64.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRString is a plain string literal.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer literal.
type IRInt int64

func (IRInt) irValue() {}

// IRBool is a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRURI is a resource reference, either a prefixed name ("emf:Case")
// or an absolute IRI ("http://example.com/x").
type IRURI string

func (IRURI) irValue() {}

// IRDateTime is an xsd:dateTime literal. Always stored in UTC.
type IRDateTime time.Time

func (IRDateTime) irValue() {}

// Time returns the value as a time.Time.
func (d IRDateTime) Time() time.Time { return time.Time(d) }

// IRArray is an ordered list of values. Used for snapshots, never bound.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps string keys to values. Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for supplementary planes.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// ParseBindingValue converts a loosely typed value (from a request file or a
// caller map) into an IRValue.
//
// String handling follows the binding convention of the graph store:
//   - "prefix:local" (a colon, none escaped) becomes an IRURI
//   - "a\:b" is a literal; the escape is removed ("a:b")
//   - anything else is an IRString
func ParseBindingValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("binding value must not be null")
	case IRValue:
		return val, nil
	case string:
		return parseBindingString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case uint64:
		return IRInt(int64(val)), nil
	case time.Time:
		return IRDateTime(val.UTC()), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are not supported as binding values: %v", val)
	default:
		return nil, fmt.Errorf("unsupported binding value type: %T", v)
	}
}

func parseBindingString(s string) IRValue {
	if strings.Contains(s, `\:`) {
		return IRString(strings.ReplaceAll(s, `\:`, ":"))
	}
	if strings.Contains(s, ":") {
		return IRURI(s)
	}
	return IRString(s)
}

// MarshalJSON implements json.Marshaler for IRObject with sorted keys.
// This is NOT canonical marshaling; use MarshalCanonical for fingerprints.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalIRValue marshals an IRValue to JSON bytes.
// URIs and date-times are tagged so the kind survives a round trip through
// the query log: {"uri":"emf:Case"} and {"dateTime":"2021-01-01T00:00:00Z"}.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRURI:
		return json.Marshal(map[string]string{"uri": string(val)})
	case IRDateTime:
		return json.Marshal(map[string]string{"dateTime": val.Time().UTC().Format(time.RFC3339)})
	case IRArray:
		return marshalIRArray(val)
	case IRObject:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

func marshalIRArray(arr IRArray) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalIRValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalBindings decodes a JSON object produced by IRObject.MarshalJSON.
func UnmarshalBindings(data []byte) (IRObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	obj := make(IRObject, len(raw))
	for k, v := range raw {
		val, err := decodeTagged(v)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", k, err)
		}
		obj[k] = val
	}
	return obj, nil
}

// UnmarshalJSON implements json.Unmarshaler for the tagged form written by
// MarshalJSON.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	decoded, err := UnmarshalBindings(data)
	if err != nil {
		return err
	}
	*obj = decoded
	return nil
}

func decodeTagged(v any) (IRValue, error) {
	switch val := v.(type) {
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are not supported: %s", val)
		}
		return IRInt(n), nil
	case map[string]any:
		if uri, ok := val["uri"].(string); ok {
			return IRURI(uri), nil
		}
		if ts, ok := val["dateTime"].(string); ok {
			t, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("parse dateTime: %w", err)
			}
			return IRDateTime(t.UTC()), nil
		}
		return nil, fmt.Errorf("unknown tagged value: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
