package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the compiled steps to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepTrace // Compiled steps for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nCompiled steps:\n")
	for i, s := range e.Trace {
		if s.Error != "" {
			fmt.Fprintf(&buf, "  [%d] %s: error: %s\n", i+1, s.Step, s.Error)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s (%s)\n", i+1, s.Step, s.Dialect)
	}

	return buf.String()
}

// AssertionContext provides the query log for logged_count assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

func stepText(trace []StepTrace, a Assertion) (string, error) {
	for _, s := range trace {
		if s.Step != a.Step {
			continue
		}
		if s.Error != "" {
			return "", &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("step %s compiled", a.Step),
				Actual:   "compile error: " + s.Error,
				Trace:    trace,
			}
		}
		return s.Text, nil
	}
	return "", &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("step %s in trace", a.Step),
		Actual:   "not found",
		Trace:    trace,
	}
}

// assertTextContains checks that the step's text contains the fragment.
func assertTextContains(trace []StepTrace, a Assertion) error {
	text, err := stepText(trace, a)
	if err != nil {
		return err
	}
	if !strings.Contains(text, a.Text) {
		return &AssertionError{
			Type:     AssertTextContains,
			Expected: fmt.Sprintf("%s contains %q", a.Step, a.Text),
			Actual:   fmt.Sprintf("not found in %q", text),
			Trace:    trace,
		}
	}
	return nil
}

// assertTextNotContains checks that the step's text lacks the fragment.
func assertTextNotContains(trace []StepTrace, a Assertion) error {
	text, err := stepText(trace, a)
	if err != nil {
		return err
	}
	if strings.Contains(text, a.Text) {
		return &AssertionError{
			Type:     AssertTextNotContains,
			Expected: fmt.Sprintf("%s does not contain %q", a.Step, a.Text),
			Actual:   fmt.Sprintf("found in %q", text),
			Trace:    trace,
		}
	}
	return nil
}

// assertTextOrder checks that fragments occur in order. Each fragment is
// searched after the end of the previous one.
func assertTextOrder(trace []StepTrace, a Assertion) error {
	text, err := stepText(trace, a)
	if err != nil {
		return err
	}

	pos := 0
	for i, fragment := range a.Texts {
		at := strings.Index(text[pos:], fragment)
		if at < 0 {
			actual := fmt.Sprintf("%q not found", fragment)
			if i > 0 {
				actual = fmt.Sprintf("%q not found after %q", fragment, a.Texts[i-1])
			}
			return &AssertionError{
				Type:     AssertTextOrder,
				Expected: fmt.Sprintf("fragments in order: %q", a.Texts),
				Actual:   actual,
				Trace:    trace,
			}
		}
		pos += at + len(fragment)
	}
	return nil
}

// assertTextCount checks the exact number of occurrences of the fragment.
func assertTextCount(trace []StepTrace, a Assertion) error {
	text, err := stepText(trace, a)
	if err != nil {
		return err
	}
	if count := strings.Count(text, a.Text); count != a.Count {
		return &AssertionError{
			Type:     AssertTextCount,
			Expected: fmt.Sprintf("%d occurrences of %q", a.Count, a.Text),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertBindingEquals checks one binding of the step.
func assertBindingEquals(trace []StepTrace, a Assertion) error {
	if _, err := stepText(trace, a); err != nil {
		return err
	}
	want, err := ir.ParseBindingValue(a.Value)
	if err != nil {
		return fmt.Errorf("binding_equals %s: %w", a.Binding, err)
	}

	var got ir.IRValue
	for _, s := range trace {
		if s.Step == a.Step {
			got = s.Bindings[a.Binding]
		}
	}
	if !valuesEqual(got, want) {
		return &AssertionError{
			Type:     AssertBindingEquals,
			Expected: fmt.Sprintf("%s binds %s = %s", a.Step, a.Binding, formatValue(want)),
			Actual:   formatValue(got),
			Trace:    trace,
		}
	}
	return nil
}

// assertLoggedCount checks the number of records in the query log.
func assertLoggedCount(ctx context.Context, st *store.Store, trace []StepTrace, a Assertion) error {
	records, err := st.ListQueries(ctx, 0)
	if err != nil {
		return fmt.Errorf("logged_count: %w", err)
	}
	if len(records) != a.Count {
		return &AssertionError{
			Type:     AssertLoggedCount,
			Expected: fmt.Sprintf("%d logged queries", a.Count),
			Actual:   fmt.Sprintf("%d logged queries", len(records)),
			Trace:    trace,
		}
	}
	return nil
}

// valuesEqual compares binding values by their canonical encoding.
func valuesEqual(got, want ir.IRValue) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	a, err := ir.MarshalCanonical(got)
	if err != nil {
		return false
	}
	b, err := ir.MarshalCanonical(want)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

func formatValue(v ir.IRValue) string {
	if v == nil {
		return "(unbound)"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the query log for logged_count assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTextContains:
			err = assertTextContains(result.Trace, assertion)
		case AssertTextNotContains:
			err = assertTextNotContains(result.Trace, assertion)
		case AssertTextOrder:
			err = assertTextOrder(result.Trace, assertion)
		case AssertTextCount:
			err = assertTextCount(result.Trace, assertion)
		case AssertBindingEquals:
			err = assertBindingEquals(result.Trace, assertion)
		case AssertLoggedCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: logged_count requires the query log", i)
			} else {
				err = assertLoggedCount(actx.Ctx, actx.Store, result.Trace, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
