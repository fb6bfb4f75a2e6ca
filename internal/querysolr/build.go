// Package querysolr compiles search rules into Solr query clauses.
//
// Every builder is a pure function of its rule and format string: no
// configuration, no counters. The same rule always yields the same clause.
package querysolr

import (
	"fmt"
	"strings"

	"github.com/roach88/searchql/internal/ir"
)

// Format templates shared by the range and wildcard operations.
const (
	FormatValue      = "%s"
	FormatBefore     = "[* TO %s]"
	FormatAfter      = "[%s TO *]"
	FormatStartsWith = "%s*"
	FormatEndsWith   = "*%s"
	FormatContains   = "*%s*"
)

// BuildQuery emits "(field:(v1) OR field:(v2) ...)" with each value passed
// through format.
//
// Example: BuildQuery(before("emf:modifiedOn", "2021-01-01"), FormatBefore)
// yields "(emf:modifiedOn:([* TO 2021-01-01]))".
func BuildQuery(r ir.Rule, format string) string {
	return buildQuery(r, func(v string) string { return fmt.Sprintf(format, v) })
}

// BuildNegatedQuery is BuildQuery with a leading "-".
func BuildNegatedQuery(r ir.Rule, format string) string {
	return "-" + BuildQuery(r, format)
}

// BuildEscapedQuery is BuildQuery with every value escaped first.
func BuildEscapedQuery(r ir.Rule, format string) string {
	return buildQuery(r, func(v string) string { return fmt.Sprintf(format, EscapeQueryChars(v)) })
}

func buildQuery(r ir.Rule, value func(string) string) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < r.Len(); i++ {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString(r.Field())
		b.WriteString(":(")
		b.WriteString(value(r.Value(i)))
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String()
}

// BuildRange emits "field:[from TO to]" from a two-value rule. A blank bound
// becomes "*". When both bounds are blank nothing is emitted.
func BuildRange(r ir.Rule) string {
	from := strings.TrimSpace(r.Value(0))
	to := strings.TrimSpace(r.Value(1))
	if from == "" && to == "" {
		return ""
	}
	if from == "" {
		from = "*"
	}
	if to == "" {
		to = "*"
	}
	return fmt.Sprintf("%s:[%s TO %s]", r.Field(), from, to)
}

// BuildSetTo emits set membership. The ir.AnyObject marker matches any
// value ("field:(*)"); other values are literal with ":" escaped as "\:".
func BuildSetTo(r ir.Rule) string {
	return buildQuery(r, func(v string) string {
		if v == ir.AnyObject {
			return "*"
		}
		return strings.ReplaceAll(v, ":", `\:`)
	})
}

// BuildEmpty emits "-field:[* TO *]" (no value stored).
func BuildEmpty(r ir.Rule) string {
	return "-" + BuildNotEmpty(r)
}

// BuildNotEmpty emits "field:[* TO *]" (any value stored).
func BuildNotEmpty(r ir.Rule) string {
	return r.Field() + ":[* TO *]"
}

// EscapeQueryChars escapes the characters the Solr query parser treats as
// syntax, plus whitespace.
func EscapeQueryChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '\\', '+', '-', '!', '(', ')', ':', '^', '[', ']', '"', '{', '}', '~', '*', '?', '|', '&', ';', '/', ' ', '\t', '\n', '\r':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
