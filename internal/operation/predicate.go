package operation

import (
	"slices"

	"golang.org/x/text/cases"

	"github.com/roach88/searchql/internal/ir"
)

// OperatorIs matches any of the given operator names, ignoring case.
func OperatorIs(names ...string) Predicate {
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = foldOperator(n)
	}
	return func(r ir.Rule) bool {
		return slices.Contains(folded, foldOperator(r.Operator()))
	}
}

// foldOperator case-folds an operator name. A Caser is stateful, so each
// call gets its own.
func foldOperator(op string) string {
	return cases.Fold().String(op)
}

// ValueCount matches rules with exactly n values.
func ValueCount(n int) Predicate {
	return func(r ir.Rule) bool { return r.Len() == n }
}

// MinValues matches rules with at least n values.
func MinValues(n int) Predicate {
	return func(r ir.Rule) bool { return r.Len() >= n }
}

// TypeIn matches rules whose type tag is one of types.
func TypeIn(types ...string) Predicate {
	return func(r ir.Rule) bool { return slices.Contains(types, r.Type()) }
}

// DateType matches date and date-time rules.
func DateType() Predicate {
	return TypeIn(ir.TypeDate, ir.TypeDateTime)
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(r ir.Rule) bool { return !p(r) }
}

// All matches when every predicate matches. All() matches everything.
func All(preds ...Predicate) Predicate {
	return func(r ir.Rule) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}
