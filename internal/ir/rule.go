package ir

import (
	"fmt"
	"strings"
)

// Logical datatype tags carried by Rule.Type.
const (
	TypeString   = "string"
	TypeDate     = "date"
	TypeDateTime = "dateTime"
	TypeNumeric  = "numeric"
	TypeBoolean  = "boolean"
	TypeObject   = "object"
)

// AnyObject is the reserved value marker meaning "related to any object".
// Set-membership rules turn it into a wildcard instead of a literal match.
const AnyObject = "anyObject"

// Rule is a single search criterion: a field, an operator and its ordered values.
//
// Rule is immutable. Construct it with NewRule; accessors return copies so
// callers cannot alter the values slice shared with the compiler. The zero
// Rule has no field; its accessors behave as for a rule with no values.
//
// Example:
//
//	rule, _ := NewRule("emf:modifiedOn", TypeDateTime, "before", "2021-01-01")
type Rule struct {
	field    string
	typ      string
	operator string
	values   []string
}

// NewRule creates a Rule. The field must be non-empty. A call without values
// produces an empty (zero-length, non-nil) value list.
func NewRule(field, typ, operator string, values ...string) (Rule, error) {
	if strings.TrimSpace(field) == "" {
		return Rule{}, &CompileError{
			Code:     ErrCodeInvalidRule,
			Message:  "rule field must not be empty",
			Operator: operator,
		}
	}
	vals := make([]string, len(values))
	copy(vals, values)
	return Rule{
		field:    field,
		typ:      typ,
		operator: operator,
		values:   vals,
	}, nil
}

// MustRule is like NewRule but panics on error. Intended for tables and tests.
func MustRule(field, typ, operator string, values ...string) Rule {
	r, err := NewRule(field, typ, operator, values...)
	if err != nil {
		panic(err)
	}
	return r
}

// Field returns the field the rule filters on.
func (r Rule) Field() string { return r.field }

// Type returns the logical datatype tag (e.g. "dateTime").
func (r Rule) Type() string { return r.typ }

// Operator returns the operator exactly as supplied. Matching is case-insensitive.
func (r Rule) Operator() string { return r.operator }

// Values returns a copy of the ordered values.
func (r Rule) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Len returns the number of values.
func (r Rule) Len() int { return len(r.values) }

// Value returns the value at index i, or "" when i is out of range.
func (r Rule) Value(i int) string {
	if i < 0 || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// IsDateType reports whether the rule carries a date or date-time tag.
func (r Rule) IsDateType() bool {
	return r.typ == TypeDate || r.typ == TypeDateTime
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %q", r.field, r.operator, r.values)
}
