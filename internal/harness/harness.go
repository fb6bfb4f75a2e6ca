package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/searchql/internal/compiler"
	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/operation"
	"github.com/roach88/searchql/internal/pipeline"
	"github.com/roach88/searchql/internal/store"
	"github.com/roach88/searchql/internal/testutil"
)

// Harness compiles the steps of one scenario.
type Harness struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory query log, so assertions on
// the log see only this scenario's queries.
//
// Execution flow:
// 1. Open the in-memory query log
// 2. Load the search configuration
// 3. Compile every step in order, checking expect clauses
// 4. Evaluate assertions
//
// An error is returned only when the harness itself cannot run; compile
// failures and failed assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg, err := loadConfig(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	policy, err := operation.ParsePolicy(scenario.Policy)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := testutil.NewSequenceIDGenerator(scenario.QueryIDPrefix)
	p := pipeline.New(pipeline.NewConfigHolder(cfg),
		pipeline.WithIDGenerator(ids),
		pipeline.WithLogger(logger),
		pipeline.WithPolicy(policy),
		pipeline.WithRecorder(st),
	)
	h := &Harness{
		store:    st,
		pipeline: p,
		logger:   logger,
	}

	ctx := context.Background()
	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func loadConfig(path string) (*ir.SearchConfig, error) {
	if path == "" {
		return compiler.Default()
	}
	return compiler.LoadConfig(path)
}

// executeSteps compiles every step and checks its expect clause.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		trace := StepTrace{Step: step.Name}

		res, err := h.compile(ctx, step.Request)
		if err != nil {
			trace.Error = err.Error()
			result.AddStep(trace)

			switch {
			case step.Expect == nil || step.Expect.Error == "":
				result.AddError(fmt.Sprintf("step %q: compile failed: %v", step.Name, err))
			case !strings.Contains(err.Error(), step.Expect.Error):
				result.AddError(fmt.Sprintf("step %q: expected error containing %q, got %q",
					step.Name, step.Expect.Error, err.Error()))
			}
			h.logger.Info("step failed", "step", i, "name", step.Name, "error", err)
			continue
		}

		trace.Dialect = res.Dialect
		trace.QueryID = res.QueryID
		trace.Text = res.Text
		trace.Bindings = res.Bindings
		trace.Projection = res.Projection
		trace.Skip = res.Skip
		result.AddStep(trace)

		if step.Expect != nil {
			if step.Expect.Error != "" {
				result.AddError(fmt.Sprintf("step %q: expected error containing %q, but it compiled",
					step.Name, step.Expect.Error))
			}
			if step.Expect.Dialect != "" && step.Expect.Dialect != res.Dialect {
				result.AddError(fmt.Sprintf("step %q: expected dialect %s, got %s",
					step.Name, step.Expect.Dialect, res.Dialect))
			}
		}

		h.logger.Info("step compiled",
			"step", i,
			"name", step.Name,
			"query_id", res.QueryID,
			"dialect", res.Dialect,
		)
	}
}

func (h *Harness) compile(ctx context.Context, spec pipeline.RequestSpec) (*pipeline.Result, error) {
	req, err := spec.Request()
	if err != nil {
		return nil, err
	}
	return h.pipeline.CompileRequest(ctx, req)
}
