// Package operation provides the ordered operation table both dialect
// builders dispatch through.
//
// A Registry is built once, at start-up, from an explicit list of
// descriptors. Dispatch is a linear scan in ascending priority; the first
// descriptor whose predicate accepts the rule wins. There is no reflection
// and no auto-registration.
package operation

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/searchql/internal/ir"
)

// Predicate decides whether a descriptor can build a rule.
type Predicate func(ir.Rule) bool

// Descriptor is one registered operation for a builder type B.
//
// Build writes into the builder rather than returning text, so a caller can
// wrap the output (for example with a negation prefix).
type Descriptor[B any] struct {
	Name       string
	Priority   int
	Applicable Predicate
	Build      func(b B, r ir.Rule) error
}

// Registry is an immutable, priority-ordered operation table.
//
// Thread-safety: read-only after NewRegistry, safe for concurrent use.
type Registry[B any] struct {
	dialect string
	ops     []Descriptor[B]
}

// NewRegistry validates the descriptors and orders them by priority.
// Descriptors with equal priority keep their declaration order.
func NewRegistry[B any](dialect string, ops ...Descriptor[B]) (*Registry[B], error) {
	seen := make(map[string]bool, len(ops))
	for i, op := range ops {
		if op.Name == "" {
			return nil, fmt.Errorf("%s operation %d: name is required", dialect, i)
		}
		if seen[op.Name] {
			return nil, fmt.Errorf("%s operation %q: registered twice", dialect, op.Name)
		}
		if op.Applicable == nil || op.Build == nil {
			return nil, fmt.Errorf("%s operation %q: predicate and build are required", dialect, op.Name)
		}
		seen[op.Name] = true
	}

	sorted := slices.Clone(ops)
	slices.SortStableFunc(sorted, func(a, b Descriptor[B]) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return &Registry[B]{dialect: dialect, ops: sorted}, nil
}

// MustRegistry is like NewRegistry but panics on error.
// Intended for package-level tables built from literals.
func MustRegistry[B any](dialect string, ops ...Descriptor[B]) *Registry[B] {
	r, err := NewRegistry(dialect, ops...)
	if err != nil {
		panic(err)
	}
	return r
}

// Dialect returns the dialect name used in error messages.
func (r *Registry[B]) Dialect() string { return r.dialect }

// Select returns the first applicable descriptor for rule, or an
// UNSUPPORTED_SEARCH_OPERATION error. Skip-or-abort is the caller's call.
func (r *Registry[B]) Select(rule ir.Rule) (Descriptor[B], error) {
	for _, op := range r.ops {
		if op.Applicable(rule) {
			return op, nil
		}
	}
	return Descriptor[B]{}, ir.NewUnsupportedOperationError(r.dialect, rule)
}

// Build selects the operation for rule and runs it against b.
func (r *Registry[B]) Build(b B, rule ir.Rule) error {
	op, err := r.Select(rule)
	if err != nil {
		return err
	}
	if err := op.Build(b, rule); err != nil {
		return fmt.Errorf("%s operation %q on %s: %w", r.dialect, op.Name, rule.Field(), err)
	}
	return nil
}

// Names returns the operation names in dispatch order.
func (r *Registry[B]) Names() []string {
	names := make([]string, len(r.ops))
	for i, op := range r.ops {
		names[i] = op.Name
	}
	return names
}

// Len returns the number of registered operations.
func (r *Registry[B]) Len() int { return len(r.ops) }
