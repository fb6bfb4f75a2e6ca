package querysolr

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/operation"
)

// Dialect is the registry name used in errors.
const Dialect = "solr"

// MatchAll is emitted when no rule produced a clause.
const MatchAll = "*:*"

// Operator names understood by the full-text dialect.
const (
	OpBefore           = "before"
	OpAfter            = "after"
	OpBetween          = "between"
	OpIs               = "is"
	OpWithin           = "within"
	OpEquals           = "equals"
	OpIn               = "in"
	OpDoesNotEqual     = "does_not_equal"
	OpNotIn            = "not_in"
	OpContains         = "contains"
	OpDoesNotContain   = "does_not_contain"
	OpStartsWith       = "starts_with"
	OpDoesNotStartWith = "does_not_start_with"
	OpEndsWith         = "ends_with"
	OpDoesNotEndWith   = "does_not_end_with"
	OpSetTo            = "set_to"
	OpNotSetTo         = "not_set_to"
	OpEmpty            = "empty"
	OpNotEmpty         = "not_empty"
)

type op = operation.Descriptor[*strings.Builder]

func write(f func(ir.Rule) string) func(*strings.Builder, ir.Rule) error {
	return func(b *strings.Builder, r ir.Rule) error {
		b.WriteString(f(r))
		return nil
	}
}

func formatted(build func(ir.Rule, string) string, format string) func(*strings.Builder, ir.Rule) error {
	return write(func(r ir.Rule) string { return build(r, format) })
}

func negated(f func(ir.Rule) string) func(ir.Rule) string {
	return func(r ir.Rule) string { return "-" + f(r) }
}

func escapedNegated(format string) func(*strings.Builder, ir.Rule) error {
	return write(negated(func(r ir.Rule) string { return BuildEscapedQuery(r, format) }))
}

// Operations returns the full-text operation table. Lower priority wins:
// the date range form of "is" must be tried before plain equality.
func Operations() []operation.Descriptor[*strings.Builder] {
	valued := operation.MinValues(1)
	return []op{
		{
			Name:       "range",
			Priority:   10,
			Applicable: operation.All(operation.OperatorIs(OpBetween, OpIs, OpWithin), operation.ValueCount(2), operation.DateType()),
			Build:      write(BuildRange),
		},
		{Name: OpBefore, Priority: 20, Applicable: operation.All(operation.OperatorIs(OpBefore), valued), Build: formatted(BuildQuery, FormatBefore)},
		{Name: OpAfter, Priority: 20, Applicable: operation.All(operation.OperatorIs(OpAfter), valued), Build: formatted(BuildQuery, FormatAfter)},
		{Name: OpStartsWith, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpStartsWith), valued), Build: formatted(BuildEscapedQuery, FormatStartsWith)},
		{Name: OpDoesNotStartWith, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpDoesNotStartWith), valued), Build: escapedNegated(FormatStartsWith)},
		{Name: OpEndsWith, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpEndsWith), valued), Build: formatted(BuildEscapedQuery, FormatEndsWith)},
		{Name: OpDoesNotEndWith, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpDoesNotEndWith), valued), Build: escapedNegated(FormatEndsWith)},
		{Name: OpContains, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpContains), valued), Build: formatted(BuildEscapedQuery, FormatContains)},
		{Name: OpDoesNotContain, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpDoesNotContain), valued), Build: escapedNegated(FormatContains)},
		{Name: OpEquals, Priority: 40, Applicable: operation.All(operation.OperatorIs(OpEquals, OpIs, OpIn), valued), Build: formatted(BuildEscapedQuery, FormatValue)},
		{Name: OpDoesNotEqual, Priority: 40, Applicable: operation.All(operation.OperatorIs(OpDoesNotEqual, OpNotIn), valued), Build: escapedNegated(FormatValue)},
		{Name: OpSetTo, Priority: 50, Applicable: operation.All(operation.OperatorIs(OpSetTo), valued), Build: write(BuildSetTo)},
		{Name: OpNotSetTo, Priority: 50, Applicable: operation.All(operation.OperatorIs(OpNotSetTo), valued), Build: write(negated(BuildSetTo))},
		{Name: OpEmpty, Priority: 60, Applicable: operation.OperatorIs(OpEmpty), Build: write(BuildEmpty)},
		{Name: OpNotEmpty, Priority: 60, Applicable: operation.OperatorIs(OpNotEmpty), Build: write(BuildNotEmpty)},
	}
}

// Compiler turns a rule list into one full-text query.
//
// Thread-safety: a Compiler is read-only after NewCompiler and safe for
// concurrent use.
type Compiler struct {
	registry *operation.Registry[*strings.Builder]
	policy   operation.Policy
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPolicy sets the unsupported-rule policy (default abort).
func WithPolicy(p operation.Policy) Option {
	return func(c *Compiler) { c.policy = p }
}

// WithLogger sets the logger used for skipped rules.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// NewCompiler creates a Compiler over the built-in operation table.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		registry: operation.MustRegistry(Dialect, Operations()...),
		policy:   operation.PolicyAbort,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileRule compiles one rule. An empty clause (both-blank date range)
// is not an error.
func (c *Compiler) CompileRule(r ir.Rule) (string, error) {
	var b strings.Builder
	if err := c.registry.Build(&b, r); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Compile joins the clause of every rule with " AND ", in rule order.
// Rules producing no clause are dropped; if nothing remains the result is
// MatchAll.
func (c *Compiler) Compile(rules []ir.Rule) (string, error) {
	clauses := make([]string, 0, len(rules))
	for i, r := range rules {
		clause, err := c.CompileRule(r)
		if err != nil {
			if c.policy == operation.PolicySkip && ir.IsUnsupportedOperation(err) {
				c.logger.Warn("skipping unsupported rule",
					"dialect", Dialect, "field", r.Field(), "operator", r.Operator())
				continue
			}
			return "", fmt.Errorf("rule %d: %w", i, err)
		}
		if clause == "" {
			c.logger.Debug("rule produced no clause", "field", r.Field(), "operator", r.Operator())
			continue
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return MatchAll, nil
	}
	return strings.Join(clauses, " AND "), nil
}

// Operations returns the operation names in dispatch order.
func (c *Compiler) Operations() []string {
	return c.registry.Names()
}
