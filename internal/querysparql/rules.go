package querysparql

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/operation"
	"github.com/roach88/searchql/internal/queryir"
)

// Dialect is the registry name used in errors.
const Dialect = "sparql"

// Operator names understood by the graph dialect.
const (
	OpEquals       = "equals"
	OpIs           = "is"
	OpIn           = "in"
	OpDoesNotEqual = "does_not_equal"
	OpNotIn        = "not_in"
	OpContains     = "contains"
	OpStartsWith   = "starts_with"
	OpEndsWith     = "ends_with"
	OpBefore       = "before"
	OpAfter        = "after"
	OpBetween      = "between"
	OpWithin       = "within"
	OpSetTo        = "set_to"
	OpNotSetTo     = "not_set_to"
	OpEmpty        = "empty"
	OpNotEmpty     = "not_empty"
)

// Clauses collects the graph patterns for a rule list. Rule values are
// bound as parameters in the context, never written into the text.
type Clauses struct {
	ctx      *ir.QueryContext
	patterns []string
}

// NewClauses creates an empty clause list drawing names from ctx.
func NewClauses(ctx *ir.QueryContext) *Clauses {
	return &Clauses{ctx: ctx}
}

// Patterns returns the patterns added so far.
func (c *Clauses) Patterns() []string {
	out := make([]string, len(c.patterns))
	copy(out, c.patterns)
	return out
}

func (c *Clauses) add(p string) {
	c.patterns = append(c.patterns, p)
}

// param binds v under a fresh name and returns the "?pN" reference.
func (c *Clauses) param(v ir.IRValue) string {
	name := c.ctx.NextParam()
	c.ctx.Bind(name, v)
	return "?" + name
}

// params binds every rule value with the rule's datatype.
func (c *Clauses) params(r ir.Rule) ([]string, error) {
	refs := make([]string, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		v, err := TypedValue(r.Type(), r.Value(i))
		if err != nil {
			return nil, ruleError(r, err)
		}
		refs = append(refs, c.param(v))
	}
	return refs, nil
}

func ruleError(r ir.Rule, err error) error {
	return &ir.CompileError{
		Code:     ir.ErrCodeInvalidRule,
		Message:  err.Error(),
		Field:    r.Field(),
		Operator: r.Operator(),
	}
}

// dateLayouts are tried in order when parsing date rule values.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TypedValue converts a rule value to a binding value for the datatype.
func TypedValue(typ, value string) (ir.IRValue, error) {
	value = strings.TrimSpace(value)
	switch typ {
	case ir.TypeDate, ir.TypeDateTime:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return ir.IRDateTime(t.UTC()), nil
			}
		}
		return nil, fmt.Errorf("invalid date %q", value)
	case ir.TypeNumeric:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		return ir.IRInt(n), nil
	case ir.TypeBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", value)
		}
		return ir.IRBool(b), nil
	case ir.TypeObject:
		return ir.IRURI(value), nil
	default:
		return ir.IRString(value), nil
	}
}

func inList(v string, refs []string) string {
	return fmt.Sprintf("FILTER(%s IN (%s))", v, strings.Join(refs, ", "))
}

func notExists(inner string) string {
	return "FILTER NOT EXISTS { " + inner + " }"
}

func (c *Clauses) triple(r ir.Rule, object string) string {
	return fmt.Sprintf("%s %s %s .", InstanceVar, predicate(r.Field()), object)
}

func buildEquals(c *Clauses, r ir.Rule) error {
	refs, err := c.params(r)
	if err != nil {
		return err
	}
	if len(refs) == 1 {
		c.add(c.triple(r, refs[0]))
		return nil
	}
	v := c.ctx.NextVar("")
	c.add(c.triple(r, v) + " " + inList(v, refs))
	return nil
}

func buildNotEquals(c *Clauses, r ir.Rule) error {
	refs, err := c.params(r)
	if err != nil {
		return err
	}
	v := c.ctx.NextVar("")
	c.add(notExists(c.triple(r, v) + " " + inList(v, refs)))
	return nil
}

// textMatch compares the lower-cased string form of the value against
// every bound value; any match keeps the row.
func textMatch(fn string) func(*Clauses, ir.Rule) error {
	return func(c *Clauses, r ir.Rule) error {
		refs, err := c.params(r)
		if err != nil {
			return err
		}
		v := c.ctx.NextVar("")
		tests := make([]string, len(refs))
		for i, ref := range refs {
			tests[i] = fmt.Sprintf("%s(lcase(str(%s)), lcase(%s))", fn, v, ref)
		}
		c.add(c.triple(r, v) + " FILTER(" + strings.Join(tests, " || ") + ")")
		return nil
	}
}

func compare(op string) func(*Clauses, ir.Rule) error {
	return func(c *Clauses, r ir.Rule) error {
		value, err := TypedValue(r.Type(), r.Value(0))
		if err != nil {
			return ruleError(r, err)
		}
		v := c.ctx.NextVar("")
		c.add(fmt.Sprintf("%s FILTER(%s %s %s)", c.triple(r, v), v, op, c.param(value)))
		return nil
	}
}

// buildRange filters between two bounds. A blank bound is open; two blank
// bounds add nothing.
func buildRange(c *Clauses, r ir.Rule) error {
	from, to := strings.TrimSpace(r.Value(0)), strings.TrimSpace(r.Value(1))
	if from == "" && to == "" {
		return nil
	}
	v := c.ctx.NextVar("")
	var tests []string
	for _, bound := range []struct{ value, op string }{{from, ">="}, {to, "<="}} {
		if bound.value == "" {
			continue
		}
		value, err := TypedValue(r.Type(), bound.value)
		if err != nil {
			return ruleError(r, err)
		}
		tests = append(tests, fmt.Sprintf("%s %s %s", v, bound.op, c.param(value)))
	}
	c.add(c.triple(r, v) + " FILTER(" + strings.Join(tests, " && ") + ")")
	return nil
}

// setMembership matches related objects. The anyObject marker matches any
// relation and makes the other values irrelevant.
func setMembership(c *Clauses, r ir.Rule) string {
	values := r.Values()
	if slices.Contains(values, ir.AnyObject) {
		return c.triple(r, c.ctx.NextVar(""))
	}
	refs := make([]string, len(values))
	for i, value := range values {
		refs[i] = c.param(ir.IRURI(strings.TrimSpace(value)))
	}
	if len(refs) == 1 {
		return c.triple(r, refs[0])
	}
	v := c.ctx.NextVar("")
	return c.triple(r, v) + " " + inList(v, refs)
}

func buildSetTo(c *Clauses, r ir.Rule) error {
	c.add(setMembership(c, r))
	return nil
}

func buildNotSetTo(c *Clauses, r ir.Rule) error {
	c.add(notExists(setMembership(c, r)))
	return nil
}

func buildEmpty(c *Clauses, r ir.Rule) error {
	c.add(notExists(c.triple(r, c.ctx.NextVar(""))))
	return nil
}

func buildNotEmpty(c *Clauses, r ir.Rule) error {
	c.add(c.triple(r, c.ctx.NextVar("")))
	return nil
}

// Operations returns the graph operation table. Lower priority wins.
func Operations() []operation.Descriptor[*Clauses] {
	valued := operation.MinValues(1)
	return []operation.Descriptor[*Clauses]{
		{
			Name:       "range",
			Priority:   10,
			Applicable: operation.All(operation.OperatorIs(OpBetween, OpIs, OpWithin), operation.ValueCount(2), operation.DateType()),
			Build:      buildRange,
		},
		{Name: OpBefore, Priority: 20, Applicable: operation.All(operation.OperatorIs(OpBefore), valued), Build: compare("<=")},
		{Name: OpAfter, Priority: 20, Applicable: operation.All(operation.OperatorIs(OpAfter), valued), Build: compare(">=")},
		{Name: OpStartsWith, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpStartsWith), valued), Build: textMatch("STRSTARTS")},
		{Name: OpEndsWith, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpEndsWith), valued), Build: textMatch("STRENDS")},
		{Name: OpContains, Priority: 30, Applicable: operation.All(operation.OperatorIs(OpContains), valued), Build: textMatch("CONTAINS")},
		{Name: OpEquals, Priority: 40, Applicable: operation.All(operation.OperatorIs(OpEquals, OpIs, OpIn), valued), Build: buildEquals},
		{Name: OpDoesNotEqual, Priority: 40, Applicable: operation.All(operation.OperatorIs(OpDoesNotEqual, OpNotIn), valued), Build: buildNotEquals},
		{Name: OpSetTo, Priority: 50, Applicable: operation.All(operation.OperatorIs(OpSetTo), valued), Build: buildSetTo},
		{Name: OpNotSetTo, Priority: 50, Applicable: operation.All(operation.OperatorIs(OpNotSetTo), valued), Build: buildNotSetTo},
		{Name: OpEmpty, Priority: 60, Applicable: operation.OperatorIs(OpEmpty), Build: buildEmpty},
		{Name: OpNotEmpty, Priority: 60, Applicable: operation.OperatorIs(OpNotEmpty), Build: buildNotEmpty},
	}
}

// Compiler turns a rule list into a SPARQL SELECT over ?instance.
//
// Thread-safety: read-only after NewCompiler and safe for concurrent use.
// Per-compilation state lives in the QueryContext.
type Compiler struct {
	registry *operation.Registry[*Clauses]
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

// CompileRule adds the patterns for one rule to clauses.
func (c *Compiler) CompileRule(clauses *Clauses, r ir.Rule) error {
	return c.registry.Build(clauses, r)
}

// CompileClauses builds the patterns for rules, applying the policy to
// unsupported rules. Parameter values are recorded in ctx.
func (c *Compiler) CompileClauses(rules []ir.Rule, ctx *ir.QueryContext) (*Clauses, error) {
	clauses := NewClauses(ctx)
	for i, r := range rules {
		if err := c.CompileRule(clauses, r); err != nil {
			if c.policy == operation.PolicySkip && ir.IsUnsupportedOperation(err) {
				c.logger.Warn("skipping unsupported rule",
					"dialect", Dialect, "field", r.Field(), "operator", r.Operator())
				continue
			}
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return clauses, nil
}

// Compile builds the query for rules. Parameter values are recorded in
// ctx. The body ends with a permission placeholder for InjectPermissions.
func (c *Compiler) Compile(rules []ir.Rule, ctx *ir.QueryContext) (string, error) {
	clauses, err := c.CompileClauses(rules, ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT DISTINCT %s %s WHERE {\n", InstanceVar, InstanceTypeVar)
	fmt.Fprintf(&b, " %s emf:instanceType %s .\n", InstanceVar, InstanceTypeVar)
	for _, p := range clauses.patterns {
		b.WriteByte(' ')
		b.WriteString(p)
		b.WriteByte('\n')
	}
	b.WriteString(" " + PermissionMarker + "\n}")
	return b.String(), nil
}

// Extend appends the patterns for rules to the WHERE body of a caller
// query. The patterns constrain ?instance, so the query must use it.
// A query is returned unchanged when no rule produces a pattern.
func (c *Compiler) Extend(query string, rules []ir.Rule, ctx *ir.QueryContext) (string, error) {
	clauses, err := c.CompileClauses(rules, ctx)
	if err != nil {
		return "", err
	}
	if len(clauses.patterns) == 0 {
		return query, nil
	}

	sel, err := queryir.Parse(query)
	if err != nil {
		return "", fmt.Errorf("extend query: %w", err)
	}
	for _, p := range clauses.patterns {
		sel.AddPattern(queryir.Raw{Text: p})
	}
	return sel.String(), nil
}

// Operations returns the operation names in dispatch order.
func (c *Compiler) Operations() []string {
	return c.registry.Names()
}
