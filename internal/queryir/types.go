package queryir

import (
	"fmt"
	"strings"
)

// Pattern is a sealed interface for graph patterns appended to a WHERE body.
type Pattern interface {
	patternNode()
	render() string
}

// Triple is "subject predicate object ."
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

func (Triple) patternNode() {}

func (t Triple) render() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// Optional wraps a pattern so rows without a match are kept.
type Optional struct {
	Inner Pattern
}

func (Optional) patternNode() {}

func (o Optional) render() string {
	return "OPTIONAL { " + o.Inner.render() + " }"
}

// Bind is "bind(expr as ?var) ."
type Bind struct {
	Expr string
	Var  string
}

func (Bind) patternNode() {}

func (b Bind) render() string {
	return fmt.Sprintf("bind(%s as %s) .", b.Expr, b.Var)
}

// Subquery is a nested SELECT joined back into the outer query.
// Its text is emitted inside braces without modification.
type Subquery struct {
	Text string
}

func (Subquery) patternNode() {}

func (s Subquery) render() string {
	return "{ " + strings.TrimSpace(s.Text) + " }"
}

// Raw is query text the caller already made well-formed (for example a
// permission filter). It is emitted as-is.
type Raw struct {
	Text string
}

func (Raw) patternNode() {}

func (r Raw) render() string {
	return strings.TrimSpace(r.Text)
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Var       string
	Ascending bool
}

func (o OrderTerm) String() string {
	if o.Ascending {
		return "ASC(" + o.Var + ")"
	}
	return "DESC(" + o.Var + ")"
}

// Select is a parsed SELECT query plus pending additions.
//
// The verbatim segments are set by Parse and never modified. Additions are
// made through AddProjection, AddPattern and AddOrder.
type Select struct {
	source string

	head      string // everything before the WHERE keyword
	where     string // WHERE keyword through the opening brace
	body      string // inside the outer braces
	tailPre   string // after the closing brace, before ORDER BY/LIMIT/OFFSET
	tailOrder string // terms of an existing ORDER BY clause
	tailRest  string // LIMIT/OFFSET and anything after

	projection []string
	patterns   []Pattern
	order      []OrderTerm
}

// Head returns the text before the WHERE keyword.
func (s *Select) Head() string { return s.head }

// Body returns the original WHERE body.
func (s *Select) Body() string { return s.body }

// Tail returns the text after the closing brace, excluding an existing
// ORDER BY clause.
func (s *Select) Tail() string { return s.tailPre + s.tailRest }

// ExistingOrder returns the terms of an ORDER BY clause already present.
func (s *Select) ExistingOrder() string { return s.tailOrder }

// IsSelectAll reports whether the head projects "*".
func (s *Select) IsSelectAll() bool {
	return selectAllRe.MatchString(s.head)
}

// AddProjection appends variables to the SELECT list. Variables already
// projected by the head or a previous call are ignored, as is every
// variable when the head is "SELECT *".
func (s *Select) AddProjection(vars ...string) {
	if s.IsSelectAll() {
		return
	}
	for _, v := range vars {
		if s.projects(v) {
			continue
		}
		s.projection = append(s.projection, v)
	}
}

// Projection returns the variables added to the SELECT list.
func (s *Select) Projection() []string {
	out := make([]string, len(s.projection))
	copy(out, s.projection)
	return out
}

func (s *Select) projects(v string) bool {
	for _, p := range s.projection {
		if p == v {
			return true
		}
	}
	for _, f := range strings.Fields(s.head) {
		if f == v {
			return true
		}
	}
	return false
}

// AddPattern appends patterns to the end of the WHERE body.
func (s *Select) AddPattern(p ...Pattern) {
	s.patterns = append(s.patterns, p...)
}

// Patterns returns the appended patterns.
func (s *Select) Patterns() []Pattern {
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// AddOrder appends ORDER BY keys, after any existing ones.
func (s *Select) AddOrder(terms ...OrderTerm) {
	s.order = append(s.order, terms...)
}

// Order returns the ORDER BY keys added so far.
func (s *Select) Order() []OrderTerm {
	out := make([]OrderTerm, len(s.order))
	copy(out, s.order)
	return out
}

// Modified reports whether anything was added since Parse.
func (s *Select) Modified() bool {
	return len(s.projection) > 0 || len(s.patterns) > 0 || len(s.order) > 0
}

// String serializes the query. Without additions it returns the parsed
// text unchanged.
func (s *Select) String() string {
	if !s.Modified() {
		return s.source
	}

	var b strings.Builder
	b.Grow(len(s.source) + 256)

	if len(s.projection) > 0 {
		b.WriteString(strings.TrimRight(s.head, " \t\r\n"))
		for _, v := range s.projection {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte(' ')
	} else {
		b.WriteString(s.head)
	}

	b.WriteString(s.where)
	if len(s.patterns) > 0 {
		body := strings.TrimRight(s.body, " \t\r\n")
		body = strings.TrimSuffix(body, ".")
		body = strings.TrimRight(body, " \t\r\n")
		b.WriteString(body)
		if strings.TrimSpace(body) != "" {
			b.WriteString(" .")
		}
		b.WriteByte('\n')
		for _, p := range s.patterns {
			b.WriteByte(' ')
			b.WriteString(p.render())
			b.WriteByte('\n')
		}
	} else {
		b.WriteString(s.body)
	}
	b.WriteByte('}')

	if s.tailOrder == "" && len(s.order) == 0 {
		b.WriteString(s.tailPre)
		b.WriteString(s.tailRest)
		return b.String()
	}

	b.WriteString(strings.TrimRight(s.tailPre, " \t\r\n"))
	b.WriteString(" ORDER BY")
	if s.tailOrder != "" {
		b.WriteByte(' ')
		b.WriteString(s.tailOrder)
	}
	for _, o := range s.order {
		b.WriteByte(' ')
		b.WriteString(o.String())
	}
	if s.tailRest != "" {
		b.WriteByte(' ')
		b.WriteString(s.tailRest)
	}
	return b.String()
}
