package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/operation"
	"github.com/roach88/searchql/internal/querysolr"
	"github.com/roach88/searchql/internal/querysparql"
	"github.com/roach88/searchql/internal/store"
)

// Recorder receives every compiled query. *store.Store implements it.
type Recorder interface {
	RecordQuery(ctx context.Context, rec store.QueryRecord) error
}

// Pipeline compiles requests against the configuration in its holder.
//
// Thread-safety: safe for concurrent use once constructed. Every call
// creates its own ir.QueryContext, so concurrent compilations share no
// mutable state.
type Pipeline struct {
	config   *ConfigHolder
	ids      ir.IDGenerator
	logger   *slog.Logger
	policy   operation.Policy
	recorder Recorder
	now      func() time.Time

	sparql *querysparql.Compiler
	solr   *querysolr.Compiler
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIDGenerator sets the trace id source. Tests use a fixed generator
// for byte-stable output.
func WithIDGenerator(g ir.IDGenerator) Option {
	return func(p *Pipeline) { p.ids = g }
}

// WithLogger sets the logger for the pipeline and its compilers.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithPolicy sets how rules with no matching operation are handled.
func WithPolicy(policy operation.Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithRecorder logs every compiled query to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a Pipeline reading configuration from holder.
func New(holder *ConfigHolder, opts ...Option) *Pipeline {
	if holder == nil {
		holder = NewConfigHolder(nil)
	}
	p := &Pipeline{
		config: holder,
		ids:    ir.UUIDv7Generator{},
		logger: slog.Default(),
		policy: operation.PolicyAbort,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sparql = querysparql.NewCompiler(querysparql.WithPolicy(p.policy), querysparql.WithLogger(p.logger))
	p.solr = querysolr.NewCompiler(querysolr.WithPolicy(p.policy), querysolr.WithLogger(p.logger))
	return p
}

// Config returns the configuration holder.
func (p *Pipeline) Config() *ConfigHolder { return p.config }

// CompileRequest compiles req in its dialect; a blank dialect means sparql.
func (p *Pipeline) CompileRequest(ctx context.Context, req Request) (*Result, error) {
	switch strings.ToLower(strings.TrimSpace(req.Dialect)) {
	case "", querysparql.Dialect:
		return p.Assemble(ctx, req)
	case querysolr.Dialect:
		return p.AssembleFullText(ctx, req)
	default:
		return nil, fmt.Errorf("unknown dialect %q", req.Dialect)
	}
}

// Assemble compiles req into a graph query.
//
// A blank req.Query is compiled from req.Rules; otherwise the rule patterns
// are added to the WHERE body of req.Query. The configuration is read
// once, so a concurrent reload never mixes two configurations in one query.
func (p *Pipeline) Assemble(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := p.config.Load()

	mode, err := querysparql.ParseAccessMode(req.Access)
	if err != nil {
		return nil, err
	}

	qctx := ir.NewQueryContext(p.ids)
	qctx.Offset = req.Offset
	qctx.Limit = req.Limit
	qctx.IncludeInferred = !req.ExcludeInferred
	qctx.Timeout = req.Timeout

	// A caller tag is replaced so every compilation gets its own trace id.
	query := querysparql.StripQueryID(req.Query)
	if strings.TrimSpace(query) == "" {
		query, err = p.sparql.Compile(req.Rules, qctx)
	} else if len(req.Rules) > 0 {
		query, err = p.sparql.Extend(query, req.Rules, qctx)
	}
	if err != nil {
		return nil, err
	}

	query = querysparql.ReplaceConnectorName(query, cfg.ConnectorName())

	query, err = querysparql.InjectPermissions(query, querysparql.Permissions{
		Templates:   cfg.Permissions(),
		Mode:        mode,
		Admin:       req.Admin,
		Disabled:    req.SkipPermissions,
		CurrentUser: req.CurrentUser,
	}, qctx)
	if err != nil {
		return nil, fmt.Errorf("inject permissions: %w", err)
	}

	query, projection, err := querysparql.ApplyOrderBy(query, req.Sorters, cfg, qctx)
	if err != nil {
		return nil, err
	}

	query = querysparql.InjectOffset(query, qctx.Offset)
	query = querysparql.InjectLimit(query, qctx.Limit)

	if strings.TrimSpace(req.GroupBy) != "" {
		query = querysparql.WrapGroupBy(query, req.GroupBy, req.GroupByObject)
	}

	query = querysparql.InjectNamespaces(query, cfg.Namespaces())
	query = querysparql.TagQuery(query, qctx.TraceID())

	prepared, err := querysparql.Prepare(query, querysparql.MergeBindings(req.Bindings, qctx), qctx)
	if err != nil {
		return nil, fmt.Errorf("prepare query: %w", err)
	}

	fp, err := ir.Fingerprint(querysparql.StripQueryID(prepared.Text), prepared.Bindings)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dialect:         querysparql.Dialect,
		QueryID:         prepared.QueryID,
		Text:            prepared.Text,
		Bindings:        prepared.Bindings,
		Projection:      projection,
		IncludeInferred: prepared.IncludeInferred,
		Timeout:         prepared.Timeout,
		Skip:            req.Skip,
		Fingerprint:     fp,
	}
	for _, w := range qctx.Warnings() {
		p.logger.Warn("query warning", "query_id", res.QueryID, "warning", w)
	}
	p.logger.Debug("assembled query",
		"dialect", res.Dialect, "query_id", res.QueryID, "rules", len(req.Rules), "sorters", len(req.Sorters))

	if err := p.record(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// AssembleFullText compiles req into a full-text query. Sorting,
// pagination and permissions belong to the full-text engine and are not
// applied to the text.
func (p *Pipeline) AssembleFullText(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := p.config.Load()

	text, err := p.solr.Compile(req.Rules)
	if err != nil {
		return nil, err
	}
	if base := strings.TrimSpace(querysparql.ReplaceConnectorName(req.Query, cfg.ConnectorName())); base != "" {
		if text == querysolr.MatchAll {
			text = base
		} else {
			text = "(" + base + ") AND " + text
		}
	}

	fp, err := ir.Fingerprint(text, ir.IRObject{})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dialect:     querysolr.Dialect,
		QueryID:     p.ids.Generate(),
		Text:        text,
		Bindings:    ir.IRObject{},
		Skip:        req.Skip,
		Fingerprint: fp,
	}
	p.logger.Debug("assembled query", "dialect", res.Dialect, "query_id", res.QueryID, "rules", len(req.Rules))

	if err := p.record(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) record(ctx context.Context, res *Result) error {
	if p.recorder == nil {
		return nil
	}
	err := p.recorder.RecordQuery(ctx, store.QueryRecord{
		ID:              res.QueryID,
		Dialect:         res.Dialect,
		Fingerprint:     res.Fingerprint,
		Text:            res.Text,
		Bindings:        res.Bindings,
		Projection:      res.Projection,
		IncludeInferred: res.IncludeInferred,
		Timeout:         res.Timeout,
		CreatedAt:       p.now(),
	})
	if err != nil {
		return fmt.Errorf("record query %s: %w", res.QueryID, err)
	}
	return nil
}
