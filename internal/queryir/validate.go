package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult reports structural problems in a Select.
//
// Warnings never stop serialization; they flag output a triple store is
// likely to reject or evaluate differently from what the caller intended.
type ValidationResult struct {
	// Valid is true when there are no warnings.
	Valid bool

	// Warnings lists the problems found, in discovery order.
	Warnings []string
}

// Validate checks the additions made to a Select:
//  1. projected and ordered names are SPARQL variables ("?name")
//  2. no variable is projected twice
//  3. every ordered variable is bound by an added pattern, the head or the body
//  4. braces in added patterns are balanced
//
// Validate is a pure function with no side effects.
func Validate(s *Select) ValidationResult {
	v := &validator{warnings: []string{}}
	if s == nil {
		v.addWarning("nil query")
	} else {
		v.validateSelect(s)
	}
	return ValidationResult{
		Valid:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(s *Select) {
	seen := make(map[string]bool, len(s.projection))
	for _, p := range s.projection {
		if !isVariable(p) {
			v.addWarning("projection %q is not a variable", p)
		}
		if seen[p] {
			v.addWarning("variable %s projected twice", p)
		}
		seen[p] = true
	}

	var added strings.Builder
	for _, p := range s.patterns {
		if !v.validatePattern(p) {
			continue
		}
		added.WriteString(p.render())
		added.WriteByte('\n')
	}
	if open, closed := strings.Count(added.String(), "{"), strings.Count(added.String(), "}"); open != closed {
		v.addWarning("added patterns have unbalanced braces (%d open, %d closed)", open, closed)
	}

	scope := s.head + " " + s.body + " " + added.String()
	for _, o := range s.order {
		if !isVariable(o.Var) {
			v.addWarning("order key %q is not a variable", o.Var)
			continue
		}
		if !Mentions(scope, o.Var) {
			v.addWarning("order key %s is not bound in the query", o.Var)
		}
	}
}

// validatePattern reports whether p can be rendered.
func (v *validator) validatePattern(p Pattern) bool {
	switch pat := p.(type) {
	case Triple:
		if pat.Subject == "" || pat.Predicate == "" || pat.Object == "" {
			v.addWarning("incomplete triple pattern %q", pat.render())
		}
	case Optional:
		if pat.Inner == nil {
			v.addWarning("empty OPTIONAL block")
			return false
		}
		return v.validatePattern(pat.Inner)
	case Bind:
		if !isVariable(pat.Var) {
			v.addWarning("bind target %q is not a variable", pat.Var)
		}
	case Subquery:
		if !strings.Contains(strings.ToLower(pat.Text), "select") {
			v.addWarning("subquery without SELECT")
		}
	case Raw:
		// caller-owned text
	case nil:
		v.addWarning("nil pattern")
		return false
	default:
		v.addWarning("unknown pattern type: %T", p)
		return false
	}
	return true
}

func isVariable(s string) bool {
	return len(s) > 1 && (s[0] == '?' || s[0] == '$')
}

// Mentions reports whether text contains variable as a whole token.
func Mentions(text, variable string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], variable)
		if j < 0 {
			return false
		}
		end := i + j + len(variable)
		if end == len(text) || !isNameChar(text[end]) {
			return true
		}
		i = end
	}
}

func isNameChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
